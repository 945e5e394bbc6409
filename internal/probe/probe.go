// Package probe reads the stream layout of a media file.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// ErrProbeFailed is returned when the probe tool fails or emits unusable output.
var ErrProbeFailed = errors.New("probe failed")

// TrackType classifies a stream.
type TrackType string

const (
	TrackVideo    TrackType = "video"
	TrackAudio    TrackType = "audio"
	TrackSubtitle TrackType = "subtitle"
)

// Track is one stream of a container. Index is the container track ID, which
// is also what the remux tool expects.
type Track struct {
	Index    int
	Type     TrackType
	Codec    string
	Language string
	Title    string
	Width    int
	Height   int
}

// Result is the stream layout of one file.
type Result struct {
	Tracks []Track
}

// Video returns the video tracks.
func (r *Result) Video() []Track { return r.ofType(TrackVideo) }

// Audio returns the audio tracks.
func (r *Result) Audio() []Track { return r.ofType(TrackAudio) }

// Subtitles returns the subtitle tracks.
func (r *Result) Subtitles() []Track { return r.ofType(TrackSubtitle) }

func (r *Result) ofType(t TrackType) []Track {
	if r == nil {
		return nil
	}
	var out []Track
	for _, tr := range r.Tracks {
		if tr.Type == t {
			out = append(out, tr)
		}
	}
	return out
}

// Prober reads stream metadata from a file.
type Prober interface {
	Probe(ctx context.Context, path string) (*Result, error)
}

// FFProbe runs ffprobe and parses its JSON stream listing.
type FFProbe struct {
	Path    string
	Timeout time.Duration
	log     *slog.Logger
}

// NewFFProbe returns an FFProbe using the binary at path ("ffprobe" if empty).
func NewFFProbe(path string, timeout time.Duration, logger *slog.Logger) *FFProbe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFProbe{Path: path, Timeout: timeout, log: logger.With("component", "probe")}
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	Index       int               `json:"index"`
	CodecType   string            `json:"codec_type"`
	CodecName   string            `json:"codec_name"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Tags        map[string]string `json:"tags"`
	Disposition map[string]int    `json:"disposition"`
}

// Probe implements Prober.
func (f *FFProbe) Probe(ctx context.Context, path string) (*Result, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.Path, "-v", "quiet", "-print_format", "json", "-show_streams", path)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProbeFailed, path, err)
	}

	result, err := Parse(output)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProbeFailed, path, err)
	}
	f.log.Debug("probed file", "path", path, "tracks", len(result.Tracks))
	return result, nil
}

// Parse converts ffprobe JSON output into a Result. Attached pictures
// (cover art) are not reported as video.
func Parse(data []byte) (*Result, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	result := &Result{}
	for _, s := range out.Streams {
		var typ TrackType
		switch s.CodecType {
		case "video":
			if s.Disposition["attached_pic"] == 1 {
				continue
			}
			typ = TrackVideo
		case "audio":
			typ = TrackAudio
		case "subtitle":
			typ = TrackSubtitle
		default:
			continue
		}
		result.Tracks = append(result.Tracks, Track{
			Index:    s.Index,
			Type:     typ,
			Codec:    s.CodecName,
			Language: strings.ToLower(tag(s.Tags, "language")),
			Title:    tag(s.Tags, "title"),
			Width:    s.Width,
			Height:   s.Height,
		})
	}
	return result, nil
}

// tag reads a stream tag case-insensitively; muxers disagree on key case.
func tag(tags map[string]string, key string) string {
	if v, ok := tags[key]; ok {
		return v
	}
	for k, v := range tags {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
