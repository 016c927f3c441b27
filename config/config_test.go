package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDirectoryMergesFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.yaml", `event:
  name: "Field Day 2026"
  start: "2026-06-27T18:00:00Z"
  end: "2026-06-28T21:00:00Z"
display:
  dwell_seconds: 10
`)
	writeFile(t, dir, "zz_override.yml", `display:
  mode: headless
sections: [ct, "EMA", ct]
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := filepath.Clean(cfg.LoadedFrom); got != filepath.Clean(dir) {
		t.Fatalf("expected LoadedFrom=%s, got %s", dir, got)
	}
	if cfg.Event.Name != "Field Day 2026" {
		t.Fatalf("expected event.name from app.yaml, got %q", cfg.Event.Name)
	}
	if cfg.Display.DwellSeconds != 10 {
		t.Fatalf("expected dwell_seconds=10 preserved across merge, got %d", cfg.Display.DwellSeconds)
	}
	if cfg.Display.Mode != "headless" {
		t.Fatalf("expected display.mode override, got %q", cfg.Display.Mode)
	}
	if cfg.Display.TargetFPS != 20 {
		t.Fatalf("expected default target_fps=20, got %d", cfg.Display.TargetFPS)
	}
	want := time.Date(2026, 6, 27, 18, 0, 0, 0, time.UTC)
	if !cfg.Event.Start.Equal(want) {
		t.Fatalf("expected start %v, got %v", want, cfg.Event.Start)
	}
	if len(cfg.Sections) != 3 {
		t.Fatalf("expected raw sections list preserved, got %v", cfg.Sections)
	}
}

func TestLoadRejectsFilePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.yaml", "event:\n  name: x\n")
	if _, err := Load(filepath.Join(dir, "app.yaml")); err == nil {
		t.Fatalf("expected error when loading a single file path")
	}
}

func TestLoadRejectsEmptyDirectory(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("expected error for directory without yaml files")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"bad mode", "display:\n  mode: gtk\n", "display.mode"},
		{"zero dwell", "display:\n  dwell_seconds: 0\n", "display.dwell_seconds"},
		{"bad start", "event:\n  start: tomorrow\n", "event.start"},
		{"end before start", "event:\n  start: \"2026-06-28T00:00:00Z\"\n  end: \"2026-06-27T00:00:00Z\"\n", "event.end"},
		{"empty db path", "database:\n  path: \"\"\n", "database.path"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "app.yaml", tc.body)
			_, err := Load(dir)
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	if cfg.PollInterval() != time.Minute {
		t.Fatalf("expected 1m poll interval, got %v", cfg.PollInterval())
	}
	if cfg.DisplayDwell() != 6*time.Second {
		t.Fatalf("expected 6s dwell, got %v", cfg.DisplayDwell())
	}
	if cfg.ShutdownTimeout() != time.Minute {
		t.Fatalf("expected 60s shutdown timeout, got %v", cfg.ShutdownTimeout())
	}
}
