package history

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/mediaroute/internal/detect"
	"github.com/vmunix/mediaroute/internal/migrations"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Apply(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return db
}

func ptr[T any](v T) *T {
	return &v
}

func newFile(name string) *MediaFile {
	return &MediaFile{
		OriginalFilename: name,
		SourcePath:       "/downloads/" + name,
		Type:             detect.TypeMovie,
		Language:         detect.LangMalayalam,
		SizeBytes:        1000,
	}
}

func TestStore_AddGet(t *testing.T) {
	store := NewStore(setupTestDB(t))

	f := newFile("Premalu.mkv")
	f.Subtitles = []string{"eng"}
	require.NoError(t, store.Add(f))
	assert.NotZero(t, f.ID)
	assert.Equal(t, StatusPending, f.Status)

	got, err := store.Get(f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Premalu.mkv", got.OriginalFilename)
	assert.Equal(t, detect.LangMalayalam, got.Language)
	assert.Equal(t, []string{"eng"}, got.Subtitles)
	assert.Empty(t, got.SeriesName)
	assert.Nil(t, got.CompletedAt)
}

func TestStore_GetNotFound(t *testing.T) {
	store := NewStore(setupTestDB(t))
	_, err := store.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AddRejectsUnknownStatus(t *testing.T) {
	store := NewStore(setupTestDB(t))
	f := newFile("x.mkv")
	f.Status = "bogus"
	assert.ErrorIs(t, store.Add(f), ErrConstraint)
}

func TestStore_UpdateAndTransition(t *testing.T) {
	store := NewStore(setupTestDB(t))
	f := newFile("Rana Naidu S02E04.mkv")
	require.NoError(t, store.Add(f))

	require.NoError(t, store.Transition(f, StatusProcessing, ""))

	f.Type = detect.TypeTVShow
	f.Language = detect.LangBollywood
	f.SeriesName = "Rana Naidu"
	f.Season = 2
	f.Episode = 4
	f.DestinationPath = "tv/Rana Naidu/Season 2/Rana Naidu - S02E04.mkv"
	f.ExtractionApplied = true
	f.SizeReductionBytes = 300
	require.NoError(t, store.Update(f))

	require.NoError(t, store.Transition(f, StatusSuccess, ""))
	require.NotNil(t, f.CompletedAt)

	got, err := store.Get(f.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "Rana Naidu", got.SeriesName)
	assert.Equal(t, 2, got.Season)
	assert.Equal(t, 4, got.Episode)
	assert.True(t, got.ExtractionApplied)
	assert.Equal(t, int64(300), got.SizeReductionBytes)
	assert.NotNil(t, got.CompletedAt)

	err = store.Transition(f, StatusPending, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStore_FailedCanRetry(t *testing.T) {
	store := NewStore(setupTestDB(t))
	f := newFile("x.mkv")
	require.NoError(t, store.Add(f))
	require.NoError(t, store.Transition(f, StatusProcessing, ""))
	require.NoError(t, store.Transition(f, StatusFailed, "transfer failed"))
	assert.Equal(t, "transfer failed", f.ErrorMessage)
	require.NoError(t, store.Transition(f, StatusPending, ""))
}

func TestStore_Completed(t *testing.T) {
	store := NewStore(setupTestDB(t))
	f := newFile("x.mkv")
	require.NoError(t, store.Add(f))

	done, err := store.Completed(f.SourcePath, f.SizeBytes, true)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, store.Transition(f, StatusProcessing, ""))
	require.NoError(t, store.Transition(f, StatusDryRun, ""))

	done, err = store.Completed(f.SourcePath, f.SizeBytes, true)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = store.Completed(f.SourcePath, f.SizeBytes, false)
	require.NoError(t, err)
	assert.False(t, done, "a dry run does not count once dry-run mode is off")

	done, err = store.Completed(f.SourcePath, f.SizeBytes+1, true)
	require.NoError(t, err)
	assert.False(t, done, "a replaced file with a new size is processed again")

	g := newFile("x.mkv")
	require.NoError(t, store.Add(g))
	require.NoError(t, store.Transition(g, StatusProcessing, ""))
	require.NoError(t, store.Transition(g, StatusSuccess, ""))

	done, err = store.Completed(g.SourcePath, g.SizeBytes, false)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestStore_ListAndStats(t *testing.T) {
	store := NewStore(setupTestDB(t))

	a := newFile("a.mkv")
	b := newFile("b.mkv")
	b.Language = detect.LangEnglish
	c := newFile("c.mkv")
	c.Type = detect.TypeTVShow
	c.Orphan = true
	for _, f := range []*MediaFile{a, b, c} {
		require.NoError(t, store.Add(f))
		require.NoError(t, store.Transition(f, StatusProcessing, ""))
	}
	require.NoError(t, store.Transition(a, StatusSuccess, ""))
	require.NoError(t, store.Transition(b, StatusFailed, "boom"))
	require.NoError(t, store.Transition(c, StatusSuccess, ""))

	all, err := store.List(Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	failed, err := store.List(Filter{Status: ptr(StatusFailed)})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "b.mkv", failed[0].OriginalFilename)

	orphans, err := store.List(Filter{Orphan: true})
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "c.mkv", orphans[0].OriginalFilename)

	mal, err := store.List(Filter{Language: ptr(detect.LangMalayalam), Limit: 1})
	require.NoError(t, err)
	assert.Len(t, mal, 1)

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Len(t, stats, 3)
	var total int
	for _, r := range stats {
		total += r.Count
	}
	assert.Equal(t, 3, total)
}

func TestStore_Sessions(t *testing.T) {
	store := NewStore(setupTestDB(t))

	sess, err := store.StartSession()
	require.NoError(t, err)
	assert.Len(t, sess.ID, 36)

	sess.FilesFound = 3
	sess.Processed = 2
	sess.Succeeded = 1
	sess.Failed = 1
	sess.TotalBytes = 2048
	require.NoError(t, store.FinishSession(sess))

	list, err := store.Sessions(10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sess.ID, list[0].ID)
	assert.Equal(t, 2, list[0].Processed)
	assert.Equal(t, int64(2048), list[0].TotalBytes)
	assert.NotNil(t, list[0].FinishedAt)
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusSuccess, true},
		{StatusProcessing, StatusDryRun, true},
		{StatusProcessing, StatusFailed, true},
		{StatusFailed, StatusPending, true},
		{StatusSuccess, StatusPending, false},
		{StatusDryRun, StatusProcessing, false},
		{StatusPending, StatusSuccess, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
	assert.True(t, StatusSuccess.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
}
