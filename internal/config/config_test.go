package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 {
		t.Errorf("expected width 1280, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 720 {
		t.Errorf("expected height 720, got %d", cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}
	if cfg.Graphics.MaxDrawsPerFrame != 1024 {
		t.Errorf("expected 1024 max draws, got %d", cfg.Graphics.MaxDrawsPerFrame)
	}

	if cfg.Shadow.Resolution != 2048 {
		t.Errorf("expected shadow resolution 2048, got %d", cfg.Shadow.Resolution)
	}
	if !cfg.Shadow.Enabled {
		t.Error("expected shadows enabled by default")
	}

	if cfg.Post.ToneMap != "aces" {
		t.Errorf("expected aces tone map, got %s", cfg.Post.ToneMap)
	}
	if cfg.Post.Gamma != 2.2 {
		t.Errorf("expected gamma 2.2, got %f", cfg.Post.Gamma)
	}

	if cfg.IBL.PrefilterMips != 5 {
		t.Errorf("expected 5 prefilter mips, got %d", cfg.IBL.PrefilterMips)
	}
	if cfg.IBL.BRDFLUTSize != 512 {
		t.Errorf("expected BRDF LUT size 512, got %d", cfg.IBL.BRDFLUTSize)
	}

	if cfg.Stream.Workers != 2 {
		t.Errorf("expected 2 stream workers, got %d", cfg.Stream.Workers)
	}
	if cfg.Stream.UploadsPerFrame != 2 {
		t.Errorf("expected 2 uploads per frame, got %d", cfg.Stream.UploadsPerFrame)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "lumen.yaml")

	yamlData := `
graphics:
  width: 1920
  height: 1080
  vsync: false
shadow:
  resolution: 4096
post:
  enabled: false
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(yamlData), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}

	if cfg.Graphics.Width != 1920 || cfg.Graphics.Height != 1080 {
		t.Errorf("expected 1920x1080, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Graphics.VSync {
		t.Error("expected vsync false from file")
	}
	if cfg.Shadow.Resolution != 4096 {
		t.Errorf("expected shadow resolution 4096, got %d", cfg.Shadow.Resolution)
	}
	if cfg.Post.Enabled {
		t.Error("expected post disabled from file")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %s", cfg.Logging.Level)
	}

	// Values absent from the file keep their defaults
	if cfg.Shadow.DistanceFactor != 10 {
		t.Errorf("file merge clobbered default: distance factor %f", cfg.Shadow.DistanceFactor)
	}
	if cfg.IBL.EnvSize != 512 {
		t.Errorf("file merge clobbered default: env size %d", cfg.IBL.EnvSize)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "sub", "lumen.yaml")

	cfg := Default()
	cfg.Graphics.Width = 800
	cfg.Post.BloomIntensity = 0.25

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile: %v", err)
	}

	if loaded.Graphics.Width != 800 {
		t.Errorf("round trip width: got %d, want 800", loaded.Graphics.Width)
	}
	if loaded.Post.BloomIntensity != 0.25 {
		t.Errorf("round trip bloom intensity: got %f, want 0.25", loaded.Post.BloomIntensity)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
