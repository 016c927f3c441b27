// Command qsoview is a contest statistics dashboard. It polls a shared QSO
// log, renders charts, tables and a section map, and rotates them on a
// terminal display with a scrolling ticker.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"qsoview/config"
	"qsoview/contest"
	"qsoview/display"
	"qsoview/export"
	"qsoview/pipeline"
	"qsoview/qsolog"
	"qsoview/render"
	"qsoview/stats"
	"qsoview/ui"
	"qsoview/worker"
)

const (
	envConfigPath     = "QSOVIEW_CONFIG_PATH"
	defaultConfigPath = "data/config"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

// Purpose: Report whether stdout is a TTY for UI gating.
// Key aspects: Uses term.IsTerminal on stdout fd.
// Upstream: main surface selection.
// Downstream: term.IsTerminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Purpose: Load configuration from env/default locations.
// Key aspects: Tries env override first, then the default config dir.
// Upstream: main startup.
// Downstream: config.Load and os.IsNotExist.
func loadDashboardConfig() (*config.Config, string, error) {
	candidates := make([]string, 0, 2)
	if envPath := strings.TrimSpace(os.Getenv(envConfigPath)); envPath != "" {
		candidates = append(candidates, envPath)
	}
	candidates = append(candidates, defaultConfigPath)

	var lastErr error
	for _, path := range candidates {
		cfg, err := config.Load(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				lastErr = err
				continue
			}
			return nil, path, err
		}
		return cfg, cfg.LoadedFrom, nil
	}
	return nil, "", fmt.Errorf("unable to load config; tried %s (last error: %v)", strings.Join(candidates, ", "), lastErr)
}

// surfaceMode resolves the configured display mode against the terminal.
func surfaceMode(configured string, tty bool) (string, string) {
	switch strings.ToLower(strings.TrimSpace(configured)) {
	case "headless":
		return "headless", "mode=headless"
	case "", "tview":
		if !tty {
			return "headless", "tview requires an interactive console"
		}
		return "tview", ""
	default:
		return "headless", fmt.Sprintf("mode %q not recognized", configured)
	}
}

// knownSections picks the configured section set or the built-in list.
func knownSections(codes []string) []contest.Section {
	if len(codes) > 0 {
		return contest.SectionsFromCodes(codes)
	}
	return contest.DefaultSections()
}

func logoArtifact(cfg *config.Config, size image.Point) *render.Artifact {
	if path := strings.TrimSpace(cfg.Display.Logo); path != "" {
		art, err := render.LoadLogo(path, size)
		if err == nil {
			return art
		}
		log.Printf("Logo: %v; using generated title slide", err)
	}
	return render.FallbackLogo(cfg.Event.Name, size)
}

// Purpose: Program entrypoint; wires the log store, worker, display loop and
// presentation surface.
// Key aspects: The worker runs on its own goroutine and is joined with a
// bounded wait on shutdown.
// Upstream: OS process start.
// Downstream: worker.Run, ui.Surface.Run.
func main() {
	cfg, configSource, err := loadDashboardConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	log.SetFlags(0)
	fanout, err := setupLogging(cfg.Logging, os.Stderr)
	log.SetOutput(fanout)
	defer fanout.Close()
	if err != nil {
		log.Printf("Logging: file sink disabled: %v", err)
	}
	log.Printf("qsoview v%s starting (config %s)", Version, configSource)

	mode, reason := surfaceMode(cfg.Display.Mode, isStdoutTTY())
	if mode == "headless" {
		log.Printf("UI disabled (%s)", reason)
		cfg.Print()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	busy := time.Duration(cfg.Database.BusyTimeoutMS) * time.Millisecond
	store, err := qsolog.Open(cfg.Database.Path, busy)
	if err != nil {
		log.Fatalf("Log store: %v", err)
	}
	defer store.Close()
	probeTimeout := time.Duration(cfg.Database.PreflightTimeoutMS) * time.Millisecond
	if res := store.Probe(ctx, probeTimeout); res.Healthy {
		log.Printf("Log store: %s ok (%s)", store.Path(), res.Elapsed.Round(time.Millisecond))
	} else {
		log.Printf("Log store: %s not readable yet: %v", store.Path(), res.CheckError)
	}

	size := image.Pt(cfg.Display.ImageWidth, cfg.Display.ImageHeight)
	tracker := stats.NewTracker()
	engine := stats.NewEngine(store, stats.Params{
		SliceWidth:   time.Duration(cfg.Aggregation.SliceMinutes) * time.Minute,
		RateWindow:   time.Duration(cfg.Aggregation.RateWindowMinutes) * time.Minute,
		TopOperators: cfg.Aggregation.TopOperators,
	}, tracker, log.Printf)
	renderer := render.NewChartRenderer(knownSections(cfg.Sections), cfg.Event.Start, cfg.Event.End)

	queue := pipeline.NewQueue()
	opts := worker.Options{
		Dwell:     cfg.PollInterval(),
		ImageSize: size,
		Tracker:   tracker,
		Logf:      log.Printf,
	}
	if dir := strings.TrimSpace(cfg.Export.Dir); dir != "" {
		exp, err := export.New(dir, cfg.Export.PostCommand, log.Printf)
		if err != nil {
			log.Printf("Export disabled: %v", err)
		} else {
			opts.AfterCycle = exp.AfterCycle
			log.Printf("Exporting artifacts to %s", dir)
		}
	}
	w := worker.New(engine, renderer, queue, opts)

	fps := cfg.Display.TargetFPS
	dwellTicks := int(cfg.DisplayDwell().Seconds()) * fps
	rotator := display.NewRotator(render.SlotCount, render.LogoSlot, dwellTicks)
	loop := display.NewLoop(queue, rotator, display.NewCrawl(80, cfg.Display.CrawlStep, nil),
		display.Event{Name: cfg.Event.Name, Start: cfg.Event.Start, End: cfg.Event.End})
	loop.SetArtifact(logoArtifact(cfg, size))

	workerCtx, stopWorker := context.WithCancel(ctx)
	workerDone := make(chan error, 1)
	go func() { workerDone <- w.Run(workerCtx) }()

	var surface ui.Surface
	if mode == "tview" {
		surface = ui.NewSlideshow(loop, ui.SlideshowOptions{TargetFPS: fps, Logf: log.Printf})
		fanout.HoldConsole()
	} else {
		surface = ui.NewHeadless(loop, time.Second)
		log.Println("Dashboard is running headless. Press Ctrl+C to stop.")
	}
	surfaceErr := surface.Run(ctx)
	fanout.ReleaseConsole()

	log.Println("Shutting down...")
	stopWorker()
	select {
	case err := <-workerDone:
		if err != nil {
			log.Printf("Worker: %v", err)
		}
	case <-time.After(cfg.ShutdownTimeout()):
		log.Printf("Worker did not stop within %s; abandoning it", cfg.ShutdownTimeout())
	}
	log.Printf("%s | uptime=%s", tracker.SummaryLine(), tracker.Uptime().Round(time.Second))
	if surfaceErr != nil {
		fanout.Close()
		log.SetOutput(os.Stderr)
		log.Fatalf("Display: %v", surfaceErr)
	}
}
