package nodeapp

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestRunAndStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeName = "test-node"
	cfg.DataDir = t.TempDir()
	cfg.ListenAddr = "127.0.0.1:0"
	cfg.SlotInterval = 50 * time.Millisecond

	app, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	height, err := app.Store.Height()
	if err != nil {
		t.Fatalf("Height: %v", err)
	}
	if height != 0 {
		t.Fatalf("height = %d, want 0 on a fresh node", height)
	}

	if err := app.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestLoadConfigRoundTripsThroughDataDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	cfg := DefaultConfig()
	cfg.DataDir = dir
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.DataDir != dir {
		t.Fatalf("DataDir = %q, want %q", loaded.DataDir, dir)
	}
}
