package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFullWorkflow(t *testing.T) {
	tmp := t.TempDir()

	cfgPath := filepath.Join(tmp, "mediaroute", "config.toml")
	if err := WriteDefault(cfgPath); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	t.Setenv("SMB_USERNAME", "media")
	t.Setenv("SMB_PASSWORD", "secret")
	t.Setenv("MEDIAROUTE_DOWNLOADS", tmp)
	t.Setenv("SMB_SERVER", "")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Transfer.SMB.Password != "secret" {
		t.Errorf("expected password substituted, got %q", cfg.Transfer.SMB.Password)
	}
	if cfg.Transfer.SMB.Server != "streamwave.local" {
		t.Errorf("expected default server, got %q", cfg.Transfer.SMB.Server)
	}
	if cfg.Scan.DownloadDir != tmp {
		t.Errorf("expected download dir %s, got %s", tmp, cfg.Scan.DownloadDir)
	}
	if cfg.Routing.TV["malayalam"] != "media/malayalam-tv-shows" {
		t.Errorf("unexpected malayalam tv route %q", cfg.Routing.TV["malayalam"])
	}
	if cfg.Transfer.Timeout != 2*time.Hour {
		t.Errorf("expected transfer timeout 2h, got %s", cfg.Transfer.Timeout)
	}
	if cfg.Remux.TempDir == "" {
		t.Error("expected a default remux temp dir")
	}
	if !cfg.Extraction.Enabled || cfg.Extraction.TargetCodes["bollywood"] != "hin" {
		t.Errorf("unexpected extraction config %+v", cfg.Extraction)
	}
}
