package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/mediaroute/internal/events"
)

func TestDetectCmd_PlansDestination(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, "detect", "--config", env.config, "--json", "/downloads/Premalu.2024.mkv")
	require.NoError(t, err)

	var results []DetectResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, "movie", r.Type)
	assert.Equal(t, "malayalam", r.Language)
	assert.Equal(t, "default", r.LanguageSource)
	assert.Equal(t, "movies/malayalam/Premalu (2024)/Premalu (2024).Malayalam.mkv", r.Destination)
}

func TestDetectCmd_NoConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, err := execute(t, "detect", "Oppenheimer.2023.English.1080p.mkv")
	require.NoError(t, err)
	assert.Contains(t, out, "Language:    english")
	assert.NotContains(t, out, "Destination:")
}

func TestProcessCmd_TransfersFile(t *testing.T) {
	env := newTestEnv(t)
	src := env.download(t, "Premalu.2024.mkv", "movie")

	out, err := execute(t, "process", "--config", env.config, src)
	require.NoError(t, err)
	assert.Contains(t, out, "OK    "+src)

	dst := filepath.Join(env.share, "movies", "malayalam", "Premalu (2024)", "Premalu (2024).Malayalam.mkv")
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "movie", string(data))
	assert.NoFileExists(t, src)
}

func TestProcessCmd_DryRun(t *testing.T) {
	env := newTestEnv(t)
	src := env.download(t, "Premalu.2024.mkv", "movie")

	out, err := execute(t, "process", "--config", env.config, "--dry-run", "--json", src)
	require.NoError(t, err)

	var results []ProcessResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "dry-run", results[0].Status)
	assert.Equal(t, "movies/malayalam/Premalu (2024)/Premalu (2024).Malayalam.mkv", results[0].Destination)
	assert.FileExists(t, src)
	assert.NoDirExists(t, filepath.Join(env.share, "movies"))
}

func TestProcessCmd_MissingFileFails(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, "process", "--config", env.config, filepath.Join(env.downloads, "gone.mkv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files failed")
	assert.Contains(t, out, "FAIL")
}

func TestHistoryCmd_AfterProcessing(t *testing.T) {
	env := newTestEnv(t)
	src := env.download(t, "Premalu.2024.mkv", "movie")
	_, err := execute(t, "process", "--config", env.config, src)
	require.NoError(t, err)

	out, err := execute(t, "history", "--config", env.config, "--json")
	require.NoError(t, err)
	var items []HistoryItem
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "success", items[0].Status)
	assert.Equal(t, "Premalu.2024.mkv", items[0].Filename)

	out, err = execute(t, "history", "--config", env.config, "--status", "failed")
	require.NoError(t, err)
	assert.Contains(t, out, "No history")

	out, err = execute(t, "history", "--config", env.config, "--stats")
	require.NoError(t, err)
	assert.Contains(t, out, "malayalam")
	assert.Contains(t, out, "1 files")

	out, err = execute(t, "history", "events", "--config", env.config, "--json", strconv.FormatInt(items[0].ID, 10))
	require.NoError(t, err)
	var evts []events.RawEvent
	require.NoError(t, json.Unmarshal([]byte(out), &evts))
	require.Len(t, evts, 2)
	assert.Equal(t, events.EventTransferStarted, evts[0].EventType)
	assert.Equal(t, events.EventTransferSucceeded, evts[1].EventType)

	out, err = execute(t, "history", "events", "--config", env.config)
	require.NoError(t, err)
	assert.Contains(t, out, events.EventTransferSucceeded)
	assert.Contains(t, out, "Premalu.2024.mkv -> movies/malayalam/Premalu (2024)/Premalu (2024).Malayalam.mkv")
}

func TestHistoryCmd_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	_, err := execute(t, "history", "--config", env.config, "--status", "bogus")
	assert.ErrorContains(t, err, "unknown status")
}

func TestHistorySessionsCmd_Empty(t *testing.T) {
	env := newTestEnv(t)
	out, err := execute(t, "history", "sessions", "--config", env.config)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions")
}

func TestHistoryEventsCmd_InvalidID(t *testing.T) {
	env := newTestEnv(t)
	_, err := execute(t, "history", "events", "--config", env.config, "abc")
	assert.ErrorContains(t, err, "invalid file id")
}

func TestFoldersListCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, "folders", "list", "--config", env.config)
	require.NoError(t, err)
	assert.Contains(t, out, "No series folders recorded")

	src := env.download(t, "Kerala.Crime.Files.S01E03.mkv", "episode")
	_, err = execute(t, "process", "--config", env.config, src)
	require.NoError(t, err)

	out, err = execute(t, "folders", "list", "--config", env.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Kerala Crime Files [malayalam]")
	assert.Contains(t, out, "episodes: 1, seasons: 1")
}

func TestFoldersSuggestCmd(t *testing.T) {
	env := newTestEnv(t)
	for _, d := range []string{
		"Rana Naidu/Season 1",
		"Rana Naidu (2023)/Season 1",
		"Rana Naidu (2023)/Season 2",
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(env.share, "tv", "malayalam", d), 0755))
	}

	out, err := execute(t, "folders", "suggest", "--config", env.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Keep:   Rana Naidu (2023) (seasons 1,2)")
	assert.Contains(t, out, "Merge:  Rana Naidu (seasons 1)")
}

func TestFoldersSuggestCmd_UnknownLanguage(t *testing.T) {
	env := newTestEnv(t)
	_, err := execute(t, "folders", "suggest", "--config", env.config, "--language", "english")
	assert.ErrorContains(t, err, "no tv route")
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mediaroute", "config.toml")

	out, err := execute(t, "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = execute(t, "init", "--path", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "init", "--path", path, "--force")
	assert.NoError(t, err)
}

func TestFormatSeasons(t *testing.T) {
	assert.Equal(t, "-", formatSeasons(nil))
	assert.Equal(t, "1,2,4", formatSeasons([]int{1, 2, 4}))
}

func TestConfigCmd(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, "config", "--config", env.config)
	require.NoError(t, err)
	assert.Contains(t, out, `method = "local"`)
	assert.Contains(t, out, env.downloads)
}

func TestConfigCmd_ReportsValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.RemoveAll(env.downloads))

	out, err := execute(t, "config", "--config", env.config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan.download_dir")
	assert.Contains(t, out, "[routing.movies]")
}
