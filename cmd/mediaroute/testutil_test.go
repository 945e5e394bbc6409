package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout. Globals and
// flag values are reset around each run so invocations do not leak.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MEDIAROUTE_CONFIG", "")

	resetCLI()
	t.Cleanup(resetCLI)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetCLI() {
	configPath, jsonOutput, verbose = "", false, false
	resetFlags(rootCmd)
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// testEnv is a download dir, a local share and a config wired to both.
type testEnv struct {
	downloads string
	share     string
	config    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		downloads: filepath.Join(dir, "downloads"),
		share:     filepath.Join(dir, "share"),
		config:    filepath.Join(dir, "config.toml"),
	}
	require.NoError(t, os.MkdirAll(env.downloads, 0755))
	require.NoError(t, os.MkdirAll(env.share, 0755))

	content := `
[database]
path = "` + filepath.Join(dir, "data", "mediaroute.db") + `"

[scan]
download_dir = "` + env.downloads + `"
stability_window = "10ms"
remove_originals = true

[routing]
library_root = "` + env.share + `"

[routing.movies]
malayalam = "movies/malayalam"
english = "movies/english"

[routing.tv]
malayalam = "tv/malayalam"

[extraction]
enabled = false

[transfer]
method = "local"
retry_delay = "10ms"

[transfer.local]
root = "` + env.share + `"
`
	require.NoError(t, os.WriteFile(env.config, []byte(content), 0644))
	return env
}

func (e *testEnv) download(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.downloads, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
