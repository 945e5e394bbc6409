package remux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Hellseher/go-shellquote"
)

// mkvmerge exits 1 when it finished with warnings; the output is usable.
const mkvmergeWarningExit = 1

// MKVMerge rewrites a Matroska file keeping only the selected tracks.
type MKVMerge struct {
	Path    string
	TempDir string
	Timeout time.Duration
	log     *slog.Logger
}

// NewMKVMerge returns a remuxer writing into tempDir, or into mediaroute under
// the system temp dir when tempDir is empty.
func NewMKVMerge(path, tempDir string, timeout time.Duration, logger *slog.Logger) *MKVMerge {
	if path == "" {
		path = "mkvmerge"
	}
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "mediaroute")
	}
	return &MKVMerge{
		Path:    path,
		TempDir: tempDir,
		Timeout: timeout,
		log:     logger.With("component", "remux"),
	}
}

// OutputPath returns where a remux of input for language is written.
func (m *MKVMerge) OutputPath(input string, sel Selection) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(m.TempDir, fmt.Sprintf("%s_%s_extracted.mkv", base, sel.Language))
}

// Args builds the mkvmerge argument list for sel.
func Args(input, output string, sel Selection) []string {
	args := []string{"-o", output}
	if len(sel.Video) > 0 {
		args = append(args, "--video-tracks", joinIndices(sel.Video))
	}
	args = append(args, "--audio-tracks", joinIndices(sel.Audio))
	if len(sel.Subtitles) > 0 {
		args = append(args, "--subtitle-tracks", joinIndices(sel.Subtitles))
	} else {
		args = append(args, "--no-subtitles")
	}
	return append(args, input)
}

func joinIndices(idx []int) string {
	parts := make([]string, len(idx))
	for i, n := range idx {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// Remux writes a copy of input containing only the selected tracks and
// returns its path. On any failure the partial output is removed.
func (m *MKVMerge) Remux(ctx context.Context, input string, sel Selection) (string, error) {
	if len(sel.Audio) == 0 {
		return "", ErrNoMatchingAudio
	}
	if err := os.MkdirAll(m.TempDir, 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	output := m.OutputPath(input, sel)
	args := Args(input, output, sel)
	m.log.Info("remuxing", "path", input, "command", shellquote.Join(append([]string{m.Path}, args...)...))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.Path, args...)
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err = m.classify(ctx, err, stderr.String()); err != nil {
		_ = os.Remove(output)
		return "", fmt.Errorf("%s: %w", input, err)
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(output)
		return "", fmt.Errorf("%s: %w", input, ErrEmptyOutput)
	}

	m.log.Info("remux complete", "path", input, "output", output, "size", info.Size(), "duration", time.Since(start))
	return output, nil
}

func (m *MKVMerge) classify(ctx context.Context, err error, stderr string) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrToolNotFound, m.Path)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() == mkvmergeWarningExit {
			m.log.Warn("remux finished with warnings", "stderr", strings.TrimSpace(stderr))
			return nil
		}
		return fmt.Errorf("%w: exit %d: %s", ErrRemuxFailed, exitErr.ExitCode(), strings.TrimSpace(stderr))
	}
	return fmt.Errorf("%w: %v", ErrRemuxFailed, err)
}
