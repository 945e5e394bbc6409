package transfer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLocal_Transfer(t *testing.T) {
	src := writeFile(t, t.TempDir(), "movie.mkv", "video content")
	root := t.TempDir()
	l := NewLocal(root, testLogger())

	require.NoError(t, l.Transfer(context.Background(), src, "movies/Premalu (2024)/Premalu (2024).mkv"))

	got, err := os.ReadFile(filepath.Join(root, "movies", "Premalu (2024)", "Premalu (2024).mkv"))
	require.NoError(t, err)
	assert.Equal(t, "video content", string(got))
	assert.NoFileExists(t, filepath.Join(root, "movies", "Premalu (2024)", "Premalu (2024).mkv.partial"))
}

func TestLocal_SameSizeIsSkipped(t *testing.T) {
	src := writeFile(t, t.TempDir(), "movie.mkv", "new!")
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "m"), 0755))
	writeFile(t, filepath.Join(root, "m"), "movie.mkv", "old!")

	l := NewLocal(root, testLogger())
	require.NoError(t, l.Transfer(context.Background(), src, "m/movie.mkv"))

	got, err := os.ReadFile(filepath.Join(root, "m", "movie.mkv"))
	require.NoError(t, err)
	assert.Equal(t, "old!", string(got))
}

func TestLocal_DifferentSizeIsReplaced(t *testing.T) {
	src := writeFile(t, t.TempDir(), "movie.mkv", "complete file")
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "m"), 0755))
	writeFile(t, filepath.Join(root, "m"), "movie.mkv", "partial")

	l := NewLocal(root, testLogger())
	require.NoError(t, l.Transfer(context.Background(), src, "m/movie.mkv"))

	got, err := os.ReadFile(filepath.Join(root, "m", "movie.mkv"))
	require.NoError(t, err)
	assert.Equal(t, "complete file", string(got))
}

func TestLocal_Errors(t *testing.T) {
	l := NewLocal(t.TempDir(), testLogger())
	ctx := context.Background()

	err := l.Transfer(ctx, "/nonexistent/file.mkv", "x.mkv")
	assert.ErrorIs(t, err, ErrSourceMissing)

	src := writeFile(t, t.TempDir(), "a.mkv", "x")
	for _, bad := range []string{"", "../escape.mkv", "a/../../b.mkv", ".."} {
		assert.ErrorIs(t, l.Transfer(ctx, src, bad), ErrInvalidRemotePath, bad)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, l.Transfer(cancelled, src, "ok.mkv"), context.Canceled)
}

func TestMkdirCommands(t *testing.T) {
	assert.Equal(t, []string{
		`mkdir "tv"`,
		`mkdir "tv/Rana Naidu"`,
		`mkdir "tv/Rana Naidu/Season 2"`,
	}, MkdirCommands("tv/Rana Naidu/Season 2"))
	assert.Nil(t, MkdirCommands("."))
}

// fakeSMBClient writes a script that appends each -c command to a log and
// copies the credentials file next to it.
func fakeSMBClient(t *testing.T, dir, tail string) (tool, logPath string) {
	t.Helper()
	tool = filepath.Join(dir, "smbclient")
	logPath = filepath.Join(dir, "calls.log")
	script := "#!/bin/sh\n" +
		"printf '%s|%s\\n' \"$1\" \"$5\" >> " + logPath + "\n" +
		"cp \"$3\" " + filepath.Join(dir, "creds.seen") + "\n" +
		tail + "\n"
	require.NoError(t, os.WriteFile(tool, []byte(script), 0755))
	return tool, logPath
}

func TestSMBClient_Transfer(t *testing.T) {
	dir := t.TempDir()
	tool, logPath := fakeSMBClient(t, dir, `case "$5" in mkdir*) exit 1;; esac`)
	src := writeFile(t, t.TempDir(), "ep.mkv", "x")

	tmp := t.TempDir()
	s := NewSMBClient(SMBOptions{
		Path: tool, Server: "nas", Share: "media",
		Username: "user", Password: "secret", TempDir: tmp,
	}, testLogger())

	require.NoError(t, s.Transfer(context.Background(), src, "tv/Show/Season 1/Show - S01E01.mkv"))

	calls, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(calls)), "\n")
	assert.Equal(t, []string{
		`//nas/media|mkdir "tv"`,
		`//nas/media|mkdir "tv/Show"`,
		`//nas/media|mkdir "tv/Show/Season 1"`,
		`//nas/media|put "` + src + `" "tv/Show/Season 1/Show - S01E01.mkv"`,
	}, lines)

	creds, err := os.ReadFile(filepath.Join(dir, "creds.seen"))
	require.NoError(t, err)
	assert.Equal(t, "username=user\npassword=secret\n", string(creds))

	left, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, left, "credentials file is removed")
}

func TestSMBClient_PutFailure(t *testing.T) {
	dir := t.TempDir()
	tool, _ := fakeSMBClient(t, dir, `echo NT_STATUS_ACCESS_DENIED; exit 1`)
	src := writeFile(t, t.TempDir(), "m.mkv", "x")

	s := NewSMBClient(SMBOptions{Path: tool, Server: "nas", Share: "media", TempDir: t.TempDir()}, testLogger())
	err := s.Transfer(context.Background(), src, "m.mkv")
	require.ErrorIs(t, err, ErrTransferFailed)
	assert.Contains(t, err.Error(), "NT_STATUS_ACCESS_DENIED")
	assert.True(t, IsRetryable(err))
}

func TestSMBClient_ToolMissing(t *testing.T) {
	src := writeFile(t, t.TempDir(), "m.mkv", "x")
	s := NewSMBClient(SMBOptions{Path: "mediaroute-test-no-such-smbclient", TempDir: t.TempDir()}, testLogger())

	err := s.Transfer(context.Background(), src, "a/m.mkv")
	require.ErrorIs(t, err, ErrToolNotFound)
	assert.False(t, IsRetryable(err))
}

type flakyTransferer struct {
	calls    atomic.Int32
	failures int32
	err      error
	block    bool
}

func (f *flakyTransferer) Transfer(ctx context.Context, _, _ string) error {
	n := f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if n <= f.failures {
		return f.err
	}
	return nil
}

func TestRetrying_SucceedsAfterFailures(t *testing.T) {
	f := &flakyTransferer{failures: 2, err: ErrTransferFailed}
	r := NewRetrying(f, 3, time.Millisecond, 0, testLogger())

	require.NoError(t, r.Transfer(context.Background(), "a", "b"))
	assert.Equal(t, int32(3), f.calls.Load())
}

func TestRetrying_GivesUp(t *testing.T) {
	f := &flakyTransferer{failures: 10, err: ErrTransferFailed}
	r := NewRetrying(f, 2, time.Millisecond, 0, testLogger())

	err := r.Transfer(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrTransferFailed)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestRetrying_NonRetryableStopsImmediately(t *testing.T) {
	f := &flakyTransferer{failures: 10, err: ErrSourceMissing}
	r := NewRetrying(f, 5, time.Millisecond, 0, testLogger())

	err := r.Transfer(context.Background(), "a", "b")
	assert.ErrorIs(t, err, ErrSourceMissing)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestRetrying_TimeoutIsRetryable(t *testing.T) {
	f := &flakyTransferer{block: true}
	r := NewRetrying(f, 2, time.Millisecond, 20*time.Millisecond, testLogger())

	err := r.Transfer(context.Background(), "a", "b")
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Equal(t, int32(2), f.calls.Load())
}
