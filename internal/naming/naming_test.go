package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/mediaroute/internal/detect"
)

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder("", "")

	tests := []struct {
		name   string
		in     Input
		want   string
		kind   Kind
		orphan bool
	}{
		{
			name: "english movie omits language tag",
			in: Input{
				Filename: "Avengers.Endgame.2019.1080p.BluRay.x264-LAMA.mkv",
				Type:     detect.TypeMovie, Language: detect.LangEnglish, Resolution: "1080p",
				Base: "media/english-movies",
			},
			want: "media/english-movies/Avengers Endgame (2019)/Avengers Endgame (2019).1080p.mkv",
			kind: KindMovie,
		},
		{
			name: "malayalam movie",
			in: Input{
				Filename: "Premalu (2024) Malayalam HQ HDRip.mkv",
				Type:     detect.TypeMovie, Language: detect.LangMalayalam, Resolution: "720p",
				Base: "media/malayalam-movies",
			},
			want: "media/malayalam-movies/Premalu (2024)/Premalu (2024).720p.Malayalam.mkv",
			kind: KindMovie,
		},
		{
			name: "episode",
			in: Input{
				Filename: "www.1TamilMV.boo - Rana Naidu S02E04 Heat.mkv",
				Type:     detect.TypeTVShow, Language: detect.LangBollywood, Resolution: "1080p",
				Base: "media/bollywood-tv",
			},
			want: "media/bollywood-tv/Rana Naidu/Season 2/Rana Naidu - S02E04.1080p.Bollywood.mkv",
			kind: KindEpisode,
		},
		{
			name: "guessed series goes to season 1",
			in: Input{
				Filename: "Kaiyum Kalavum Episode 5.mkv",
				Type:     detect.TypeTVShow, Language: detect.LangMalayalam,
				Base: "tv",
			},
			want: "tv/Kaiyum Kalavum/Season 1/Kaiyum Kalavum Episode 5.Malayalam.mkv",
			kind: KindGuess,
		},
		{
			name: "orphan series",
			in: Input{
				Filename: "Some Documentary Series.mkv",
				Type:     detect.TypeTVShow, Language: detect.LangEnglish,
				Base: "tv",
			},
			want:   "tv/Some Documentary Series/Some Documentary Series.mkv",
			kind:   KindOrphan,
			orphan: true,
		},
		{
			name: "unknown type",
			in: Input{
				Filename: "Mystery.File.mkv",
				Type:     detect.TypeUnknown, Language: detect.LangUnknown,
				Base: "media",
			},
			want: "media/UnknownType/Mystery File.Unknown.mkv",
			kind: KindUnknown,
		},
		{
			name: "remuxed extension overrides original",
			in: Input{
				Filename: "Joji (2021).mp4",
				Type:     detect.TypeMovie, Language: detect.LangEnglish,
				Ext: ".mkv", Base: "movies",
			},
			want: "movies/Joji (2021)/Joji (2021).mkv",
			kind: KindMovie,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.Build(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Path)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.orphan, got.Orphan)
		})
	}
}

func TestBuilder_RenderWithCanonicalSeries(t *testing.T) {
	b := NewBuilder("", "")
	plan, err := b.Plan(Input{
		Filename: "rana.naidu.s02e05.mkv",
		Type:     detect.TypeTVShow, Language: detect.LangBollywood,
		Base: "tv",
	})
	require.NoError(t, err)
	assert.Equal(t, "rana naidu", plan.Series)

	plan.Series = "Rana Naidu"
	got, err := b.Render(plan)
	require.NoError(t, err)
	assert.Equal(t, "tv/Rana Naidu/Season 2/Rana Naidu - S02E05.Bollywood.mkv", got.Path)
	assert.Equal(t, 2, got.Season)
}

func TestBuilder_CustomTemplate(t *testing.T) {
	b := NewBuilder("{title}{tags}.{ext}", "")
	got, err := b.Build(Input{
		Filename: "Joji (2021).mkv", Type: detect.TypeMovie, Language: detect.LangEnglish, Base: "movies",
	})
	require.NoError(t, err)
	assert.Equal(t, "movies/Joji (2021).mkv", got.Path)
}

func TestBuilder_SanitizesComponents(t *testing.T) {
	b := NewBuilder("", "")
	plan := Plan{Kind: KindMovie, Base: "movies", Title: "../../etc/passwd", Ext: "mkv"}
	got, err := b.Render(plan)
	require.NoError(t, err)
	assert.Equal(t, "movies/etc passwd/etc passwd.mkv", got.Path)
}

func TestBuilder_EmptyName(t *testing.T) {
	b := NewBuilder("", "")
	_, err := b.Render(Plan{Kind: KindEpisode, Base: "tv", Ext: "mkv"})
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestTags(t *testing.T) {
	assert.Equal(t, ".1080p", Tags("1080p", detect.LangEnglish))
	assert.Equal(t, ".1080p.Malayalam", Tags("1080p", detect.LangMalayalam))
	assert.Equal(t, ".Bollywood", Tags("", detect.LangBollywood))
	assert.Equal(t, "", Tags("", ""))
}

func TestSeasonFolder(t *testing.T) {
	assert.Equal(t, "Season 2", SeasonFolder(2))
	assert.Equal(t, "Season 10", SeasonFolder(10))
}
