package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/mediaroute/internal/events"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, filepath.FromSlash(n))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte("data"), 0644))
	}
}

func TestScanner_Find(t *testing.T) {
	root := t.TempDir()
	touch(t, root,
		"Premalu.2024.mkv",
		"pack/Show.S01E01.mp4",
		"pack/Show.S01E01.sample.mkv",
		"pack/notes.nfo",
		".hidden/Secret.mkv",
		"deep/a/b/Movie.AVI",
	)

	s := NewScanner(nil, nil, nil, ScanConfig{DownloadDir: root}, testLogger())
	files, err := s.Find()
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rel = append(rel, filepath.ToSlash(r))
	}
	assert.ElementsMatch(t, []string{"Premalu.2024.mkv", "pack/Show.S01E01.mp4", "deep/a/b/Movie.AVI"}, rel)
}

func TestScanner_IsMediaFile(t *testing.T) {
	s := NewScanner(nil, nil, nil, ScanConfig{DownloadDir: t.TempDir()}, testLogger())
	tests := []struct {
		name string
		want bool
	}{
		{"Premalu.2024.mkv", true},
		{"Movie.MP4", true},
		{"notes.nfo", false},
		{"Show.S01E01.sample.mkv", false},
		{"movie-sample.mkv", false},
		{"Sample.mkv", false},
		{"sample_movie.mkv", false},
		{"Samples.Of.Life.2020.mkv", true},
		{"Resample.2019.mkv", true},
		{"The.Sampler.2022.mkv", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.IsMediaFile(tt.name))
		})
	}
}

func TestScanner_ScanOnce(t *testing.T) {
	f := newFixture(t)
	f.deps.Prober = nil
	touch(t, f.dir,
		"Premalu.2024.mkv",
		"Oppenheimer.2023.English.mkv",
		"done/Movie.part01.rar",
		"done/Movie.r00",
		"keep/Other.rar",
		"keep/readme.txt",
	)
	boom := errors.New("share offline")

	f.transfer.EXPECT().Transfer(gomock.Any(), filepath.Join(f.dir, "Premalu.2024.mkv"), gomock.Any()).Return(nil).Times(1)
	f.transfer.EXPECT().Transfer(gomock.Any(), filepath.Join(f.dir, "Oppenheimer.2023.English.mkv"), gomock.Any()).Return(boom).Times(2)

	p := New(Config{Routes: testRoutes(), RemoveOriginals: false}, f.deps, testLogger())
	s := NewScanner(p, f.store, f.deps.Notifier, ScanConfig{
		DownloadDir:      f.dir,
		CleanupArchives:  true,
		CleanupEmptyDirs: true,
	}, testLogger())

	sess, err := s.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sess.FilesFound)
	assert.Equal(t, 2, sess.Processed)
	assert.Equal(t, 1, sess.Succeeded)
	assert.Equal(t, 1, sess.Failed)
	assert.NotNil(t, sess.FinishedAt)

	assert.NoDirExists(t, filepath.Join(f.dir, "done"), "archive-only directory cleaned up")
	assert.FileExists(t, filepath.Join(f.dir, "keep", "Other.rar"))
	assert.DirExists(t, f.dir)
	assert.Contains(t, f.recorder.types(), events.EventScanCompleted)

	// The successful file is skipped on rescan; the failed one is retried.
	sess, err = s.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Processed)
	assert.Equal(t, 1, sess.Failed)

	sessions, err := f.store.Sessions(10)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestScanner_RealScanAfterDryRun(t *testing.T) {
	f := newFixture(t)
	f.deps.Prober = nil
	touch(t, f.dir, "Premalu.2024.mkv")
	src := filepath.Join(f.dir, "Premalu.2024.mkv")

	dry := New(Config{Routes: testRoutes(), DryRun: true}, f.deps, testLogger())
	ds := NewScanner(dry, f.store, f.deps.Notifier, ScanConfig{DownloadDir: f.dir, DryRun: true}, testLogger())

	sess, err := ds.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Succeeded)

	// A second dry run does not plan the same file again.
	sess, err = ds.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Processed)

	f.transfer.EXPECT().Transfer(gomock.Any(), src, gomock.Any()).Return(nil).Times(1)
	live := New(Config{Routes: testRoutes()}, f.deps, testLogger())
	rs := NewScanner(live, f.store, f.deps.Notifier, ScanConfig{DownloadDir: f.dir}, testLogger())

	sess, err = rs.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Processed)
	assert.Equal(t, 1, sess.Succeeded)

	sess, err = rs.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Processed)
}

func TestScanner_StartStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	p := New(Config{Routes: testRoutes()}, f.deps, testLogger())
	s := NewScanner(p, f.store, nil, ScanConfig{DownloadDir: f.dir, Interval: time.Hour}, testLogger())
	assert.Equal(t, "scanner", s.Name())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	// A nudge triggers a second pass without waiting for the ticker.
	require.Eventually(t, func() bool {
		list, _ := f.store.Sessions(10)
		return len(list) >= 1
	}, time.Second, 10*time.Millisecond)
	s.Nudge()
	s.Nudge()
	require.Eventually(t, func() bool {
		list, _ := f.store.Sessions(10)
		return len(list) >= 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scanner did not stop")
	}
}

func TestWaitStable(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mkv")
	p := filepath.Join(dir, "a.mkv")

	size, err := WaitStable(context.Background(), p, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = os.WriteFile(p, []byte("growing file"), 0644)
	}()
	_, err = WaitStable(context.Background(), p, 200*time.Millisecond)
	assert.ErrorIs(t, err, ErrUnstable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = WaitStable(ctx, p, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsArchiveRemnant(t *testing.T) {
	for _, name := range []string{"movie.rar", "Movie.part01.rar", "movie.r00", "MOVIE.R17"} {
		assert.True(t, IsArchiveRemnant(name), name)
	}
	for _, name := range []string{"movie.mkv", "movie.rar.txt", "movie.r1", "library"} {
		assert.False(t, IsArchiveRemnant(name), name)
	}
}

func TestCleanupEmptyDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b", "c"), 0755))
	touch(t, root, "a/b/.DS_Store", "keep/file.mkv")

	dry := CleanupEmptyDirs(root, true, testLogger())
	assert.Len(t, dry, 0)
	assert.DirExists(t, filepath.Join(root, "a", "b", "c"))

	removed := CleanupEmptyDirs(root, false, testLogger())
	assert.Len(t, removed, 3)
	assert.NoDirExists(t, filepath.Join(root, "a"))
	assert.DirExists(t, filepath.Join(root, "keep"))
	assert.DirExists(t, root)

	// An empty root is left alone.
	empty := t.TempDir()
	assert.Empty(t, CleanupEmptyDirs(empty, false, testLogger()))
	assert.DirExists(t, empty)
}

func TestCleanupArchives_DryRun(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "x/Movie.rar", "x/Movie.r00")

	assert.Empty(t, CleanupArchives(root, true, testLogger()))
	assert.FileExists(t, filepath.Join(root, "x", "Movie.rar"))

	assert.Len(t, CleanupArchives(root, false, testLogger()), 2)
	assert.NoFileExists(t, filepath.Join(root, "x", "Movie.r00"))
}
