package release

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"scene movie", "Avengers.Endgame.2019.1080p.BluRay.x264-LAMA.mkv", "Avengers Endgame (2019)"},
		{"already clean", "Avengers Endgame (2019)", "Avengers Endgame (2019)"},
		{"parenthesised year", "Premalu (2024) Malayalam HQ HDRip - 1080p - x264 - (DD+5.1 - 192Kbps & AAC) - 2.4GB - ESub.mkv", "Premalu (2024)"},
		{"tamilmv prefix", "www.1TamilMV.boo - Manjummel Boys (2024) Malayalam TRUE WEB-DL - 1080p.mkv", "Manjummel Boys (2024)"},
		{"sanet prefix no year", "Sanet.st.Casino.1080p.WEBRip.x264-GROUP.mkv", "Casino"},
		{"numeric title keeps number", "1917.2019.1080p.BluRay.x264.mkv", "1917 (2019)"},
		{"future number is not a year", "Blade.Runner.2049.1080p.WEB-DL.mkv", "Blade Runner 2049"},
		{"underscores", "The_Great_Indian_Kitchen_2021_720p_WEBRip.mp4", "The Great Indian Kitchen (2021)"},
		{"bracketed site", "[TamilMV] Minnal Murali (2021) 720p.mkv", "Minnal Murali (2021)"},
		{"trailing languages", "Drishyam 2 (2021) Malayalam Hindi.mkv", "Drishyam 2 (2021)"},
		{"no extension no tags", "Kumbalangi Nights", "Kumbalangi Nights"},
		{"unknown extension kept", "Mr. Robot", "Mr Robot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTitle(tt.input))
		})
	}
}

func TestCleanTitle_ShortTitleFallsBack(t *testing.T) {
	// The scrubbed title is too short, so only prefix and separator cleanup apply.
	assert.Equal(t, "AB 1080p", CleanTitle("AB.1080p.mkv"))
}

func TestCleanTitle_ShortTitleKeepsYearOnce(t *testing.T) {
	assert.Equal(t, "It (2017)", CleanTitle("It.2017.mkv"))
	assert.Equal(t, "It (2017)", CleanTitle("It (2017).mkv"))
}

func TestCleanTitle_Idempotent(t *testing.T) {
	inputs := []string{
		"Avengers.Endgame.2019.1080p.BluRay.x264-LAMA.mkv",
		"www.1TamilMV.boo - Rana Naidu S02E04 Heat.mkv",
		"Sanet.st.Casino.1080p.WEBRip.x264-GROUP.mkv",
		"Premalu (2024) Malayalam HQ HDRip - 1080p - x264.mkv",
		"AB.1080p.mkv",
		"AB.2019.mkv",
		"It.2017.mkv",
		"1917.2019.1080p.BluRay.x264.mkv",
		"Movie-ABC [x265].mkv",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := CleanTitle(in)
			assert.Equal(t, once, CleanTitle(once))
		})
	}
}

func TestCleanTitle_YearAppearsOnce(t *testing.T) {
	inputs := []string{
		"Avengers Endgame (2019)",
		"Avengers.Endgame.(2019).(2019).mkv",
		"Joji (2021) [Malayalam] 1080p.mkv",
		"(2019) Avengers Endgame.mkv",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got := CleanTitle(in)
			year := parenYearCapture.FindStringSubmatch(in)[1]
			assert.Equal(t, 1, strings.Count(got, "("+year+")"), "got %q", got)
		})
	}
}

func TestExtractYear(t *testing.T) {
	assert.Equal(t, 2019, ExtractYear("Avengers.Endgame.2019.1080p.mkv"))
	assert.Equal(t, 2024, ExtractYear("Premalu (2024) Malayalam.mkv"))
	assert.Equal(t, 0, ExtractYear("Casino.1080p.WEBRip.mkv"))
}

func TestStripExtension(t *testing.T) {
	assert.Equal(t, "movie", StripExtension("movie.mkv"))
	assert.Equal(t, "movie", StripExtension("movie.MP4"))
	assert.Equal(t, "Mr. Robot", StripExtension("Mr. Robot"))
}
