// Package config loads the dashboard configuration from a directory of YAML
// files, applying defaults and validating the merged result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete dashboard configuration.
type Config struct {
	Event       EventConfig       `yaml:"event"`
	Database    DatabaseConfig    `yaml:"database"`
	Aggregation AggregationConfig `yaml:"aggregation"`
	Display     DisplayConfig     `yaml:"display"`
	Export      ExportConfig      `yaml:"export"`
	Logging     LoggingConfig     `yaml:"logging"`
	Importer    ImporterConfig    `yaml:"importer"`
	// Sections overrides the known section set used by the map. Empty keeps
	// the built-in ARRL/RAC list.
	Sections []string `yaml:"sections"`

	// LoadedFrom is the directory the configuration was read from.
	LoadedFrom string `yaml:"-"`
}

// EventConfig names the contest and bounds its operating window.
type EventConfig struct {
	Name     string `yaml:"name"`
	StartUTC string `yaml:"start"`
	EndUTC   string `yaml:"end"`

	Start time.Time `yaml:"-"`
	End   time.Time `yaml:"-"`
}

// DatabaseConfig locates the shared QSO log store.
type DatabaseConfig struct {
	Path               string `yaml:"path"`
	PreflightTimeoutMS int    `yaml:"preflight_timeout_ms"`
	BusyTimeoutMS      int    `yaml:"busy_timeout_ms"`
}

// AggregationConfig controls the polling worker and statistic windows.
type AggregationConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	SliceMinutes        int `yaml:"slice_minutes"`
	RateWindowMinutes   int `yaml:"rate_window_minutes"`
	TopOperators        int `yaml:"top_operators"`
}

// DisplayConfig controls the presentation surface and slide rotation.
type DisplayConfig struct {
	Mode                   string `yaml:"mode"` // tview | headless
	DwellSeconds           int    `yaml:"dwell_seconds"`
	TargetFPS              int    `yaml:"target_fps"`
	CrawlStep              int    `yaml:"crawl_step"`
	Logo                   string `yaml:"logo"`
	ImageWidth             int    `yaml:"image_width"`
	ImageHeight            int    `yaml:"image_height"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// ExportConfig enables PNG snapshot export of rendered artifacts.
type ExportConfig struct {
	Dir         string `yaml:"dir"`
	PostCommand string `yaml:"post_command"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// ImporterConfig drives cmd/qsorebuild.
type ImporterConfig struct {
	N1MMDatabase string `yaml:"n1mm_database"`
	Contest      string `yaml:"contest"`
	BatchSize    int    `yaml:"batch_size"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Event: EventConfig{
			Name: "Field Day",
		},
		Database: DatabaseConfig{
			Path:               "data/n1mm_view.db",
			PreflightTimeoutMS: 2000,
			BusyTimeoutMS:      5000,
		},
		Aggregation: AggregationConfig{
			PollIntervalSeconds: 60,
			SliceMinutes:        15,
			RateWindowMinutes:   10,
			TopOperators:        10,
		},
		Display: DisplayConfig{
			Mode:                   "tview",
			DwellSeconds:           6,
			TargetFPS:              20,
			CrawlStep:              1,
			Logo:                   "data/logo.png",
			ImageWidth:             1280,
			ImageHeight:            720,
			ShutdownTimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Dir:           "data/logs",
			RetentionDays: 7,
		},
		Importer: ImporterConfig{
			Contest:   "FD",
			BatchSize: 500,
		},
	}
}

// Load reads every *.yaml / *.yml file in dir (lexical order, later files
// override earlier keys), merges them over the defaults, and validates the
// result. A single file path is rejected so deployments keep one layout.
func Load(dir string) (*Config, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path %s is not a directory", dir)
	}
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no yaml files found in %s", dir)
	}

	merged := map[string]any{}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		mergeMaps(merged, doc)
	}

	raw, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode merged config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode merged config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	cfg.LoadedFrom = dir
	return cfg, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list config dir %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// mergeMaps folds src into dst; nested maps merge key by key, everything
// else (including lists) is replaced.
func mergeMaps(dst, src map[string]any) {
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeMaps(dstMap, srcMap)
			continue
		}
		dst[key] = value
	}
}

func (c *Config) normalize() error {
	var errs []error
	c.Event.Name = strings.TrimSpace(c.Event.Name)
	if start := strings.TrimSpace(c.Event.StartUTC); start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			errs = append(errs, fmt.Errorf("event.start: %w", err))
		}
		c.Event.Start = t.UTC()
	}
	if end := strings.TrimSpace(c.Event.EndUTC); end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			errs = append(errs, fmt.Errorf("event.end: %w", err))
		}
		c.Event.End = t.UTC()
	}
	if !c.Event.Start.IsZero() && !c.Event.End.IsZero() && !c.Event.End.After(c.Event.Start) {
		errs = append(errs, errors.New("event.end must be after event.start"))
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path must be set"))
	}
	if c.Database.PreflightTimeoutMS < 0 || c.Database.BusyTimeoutMS < 0 {
		errs = append(errs, errors.New("database timeouts must be >= 0"))
	}

	positive := []struct {
		name  string
		value int
	}{
		{"aggregation.poll_interval_seconds", c.Aggregation.PollIntervalSeconds},
		{"aggregation.slice_minutes", c.Aggregation.SliceMinutes},
		{"aggregation.rate_window_minutes", c.Aggregation.RateWindowMinutes},
		{"aggregation.top_operators", c.Aggregation.TopOperators},
		{"display.dwell_seconds", c.Display.DwellSeconds},
		{"display.target_fps", c.Display.TargetFPS},
		{"display.crawl_step", c.Display.CrawlStep},
		{"display.image_width", c.Display.ImageWidth},
		{"display.image_height", c.Display.ImageHeight},
		{"display.shutdown_timeout_seconds", c.Display.ShutdownTimeoutSeconds},
		{"importer.batch_size", c.Importer.BatchSize},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0 (got %d)", p.name, p.value))
		}
	}

	c.Display.Mode = strings.ToLower(strings.TrimSpace(c.Display.Mode))
	switch c.Display.Mode {
	case "tview", "headless":
	case "":
		c.Display.Mode = "tview"
	default:
		errs = append(errs, fmt.Errorf("display.mode %q not recognized (tview|headless)", c.Display.Mode))
	}
	if c.Logging.RetentionDays < 0 {
		errs = append(errs, errors.New("logging.retention_days must be >= 0"))
	}
	return errors.Join(errs...)
}

// PollInterval is the worker dwell between aggregation cycles.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Aggregation.PollIntervalSeconds) * time.Second
}

// DisplayDwell is how long each slot stays on screen.
func (c *Config) DisplayDwell() time.Duration {
	return time.Duration(c.Display.DwellSeconds) * time.Second
}

// ShutdownTimeout bounds the wait for the worker to exit.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Display.ShutdownTimeoutSeconds) * time.Second
}

// Print displays the configuration
func (c *Config) Print() {
	fmt.Printf("Event: %s", c.Event.Name)
	if !c.Event.Start.IsZero() {
		fmt.Printf(" (%s - %s)", c.Event.Start.Format(time.RFC3339), c.Event.End.Format(time.RFC3339))
	}
	fmt.Println()
	fmt.Printf("Log database: %s\n", c.Database.Path)
	fmt.Printf("Aggregation: poll=%ds slice=%dm rate_window=%dm top=%d\n",
		c.Aggregation.PollIntervalSeconds, c.Aggregation.SliceMinutes, c.Aggregation.RateWindowMinutes, c.Aggregation.TopOperators)
	fmt.Printf("Display: mode=%s dwell=%ds fps=%d images=%dx%d\n",
		c.Display.Mode, c.Display.DwellSeconds, c.Display.TargetFPS, c.Display.ImageWidth, c.Display.ImageHeight)
	if c.Export.Dir != "" {
		fmt.Printf("Export: %s\n", c.Export.Dir)
	}
}
