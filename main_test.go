package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSurfaceMode(t *testing.T) {
	cases := []struct {
		configured string
		tty        bool
		want       string
	}{
		{"tview", true, "tview"},
		{"", true, "tview"},
		{"TView", false, "headless"},
		{"headless", true, "headless"},
		{"ansi", true, "headless"},
	}
	for _, tc := range cases {
		got, reason := surfaceMode(tc.configured, tc.tty)
		if got != tc.want {
			t.Fatalf("surfaceMode(%q, %v): expected %s, got %s", tc.configured, tc.tty, tc.want, got)
		}
		if got == "headless" && reason == "" {
			t.Fatalf("surfaceMode(%q, %v): expected a reason for headless", tc.configured, tc.tty)
		}
	}
}

func TestKnownSectionsOverride(t *testing.T) {
	if got := knownSections(nil); len(got) < 80 {
		t.Fatalf("expected built-in section list, got %d entries", len(got))
	}
	if got := knownSections([]string{"CT", "ENY"}); len(got) != 2 {
		t.Fatalf("expected configured sections only, got %d", len(got))
	}
}

func TestLoadDashboardConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "event.yaml"), []byte("event:\n  name: Winter Field Day\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(envConfigPath, dir)
	cfg, source, err := loadDashboardConfig()
	if err != nil {
		t.Fatalf("loadDashboardConfig: %v", err)
	}
	if source != dir || cfg.Event.Name != "Winter Field Day" {
		t.Fatalf("unexpected config source=%q name=%q", source, cfg.Event.Name)
	}
}
