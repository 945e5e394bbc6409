// Package remux decides which tracks to keep and rewrites containers with
// only those tracks.
package remux

import (
	"slices"
	"strings"

	"github.com/vmunix/mediaroute/internal/detect"
	"github.com/vmunix/mediaroute/internal/probe"
)

// Selection is the set of track indices to keep.
type Selection struct {
	Language  detect.Language
	Video     []int
	Audio     []int
	Subtitles []int
}

// Options tunes selection for non-Malayalam buckets.
type Options struct {
	// PreferredSubtitle keeps only subtitles whose language contains this
	// code. Empty keeps every subtitle track.
	PreferredSubtitle string

	// TargetCodes maps a bucket to the audio language code kept for it.
	TargetCodes map[detect.Language]string
}

// DefaultTargetCodes is the audio code kept per non-Malayalam bucket.
var DefaultTargetCodes = map[detect.Language]string{
	detect.LangEnglish:   "eng",
	detect.LangBollywood: "hin",
}

// Select picks the tracks to keep for language. All video tracks are kept.
// For Malayalam, Malayalam audio and English subtitles are kept. Other
// buckets keep audio whose language contains the bucket's target code.
// When no audio matches, ErrNoMatchingAudio is returned rather than an
// empty audio set.
func Select(tracks []probe.Track, language detect.Language, opts Options) (Selection, error) {
	sel := Selection{Language: language}

	keepAudio, keepSub := policyFor(language, opts)
	for _, t := range tracks {
		switch t.Type {
		case probe.TrackVideo:
			sel.Video = append(sel.Video, t.Index)
		case probe.TrackAudio:
			if keepAudio(t) {
				sel.Audio = append(sel.Audio, t.Index)
			}
		case probe.TrackSubtitle:
			if keepSub(t) {
				sel.Subtitles = append(sel.Subtitles, t.Index)
			}
		}
	}

	if len(sel.Audio) == 0 {
		return Selection{}, ErrNoMatchingAudio
	}
	return sel, nil
}

// Plan is Select followed by a check that the selection actually removes a
// track, returning ErrNothingToDrop when a remux would be a plain copy.
func Plan(tracks []probe.Track, language detect.Language, opts Options) (Selection, error) {
	sel, err := Select(tracks, language, opts)
	if err != nil {
		return Selection{}, err
	}
	if !sel.DropsTracks(tracks) {
		return Selection{}, ErrNothingToDrop
	}
	return sel, nil
}

type trackFilter func(probe.Track) bool

func policyFor(language detect.Language, opts Options) (audio, subs trackFilter) {
	if language == detect.LangMalayalam {
		return detect.IsMalayalamTrack, detect.IsEnglishTrack
	}

	codes := opts.TargetCodes
	if codes == nil {
		codes = DefaultTargetCodes
	}
	target := codes[language]
	audio = func(t probe.Track) bool {
		return target != "" && strings.Contains(strings.ToLower(t.Language), target)
	}

	pref := strings.ToLower(opts.PreferredSubtitle)
	subs = func(t probe.Track) bool {
		return pref == "" || strings.Contains(strings.ToLower(t.Language), pref)
	}
	return audio, subs
}

// DropsTracks reports whether applying sel to tracks removes anything.
func (s Selection) DropsTracks(tracks []probe.Track) bool {
	for _, t := range tracks {
		var kept []int
		switch t.Type {
		case probe.TrackVideo:
			kept = s.Video
		case probe.TrackAudio:
			kept = s.Audio
		case probe.TrackSubtitle:
			kept = s.Subtitles
		default:
			continue
		}
		if !slices.Contains(kept, t.Index) {
			return true
		}
	}
	return false
}
