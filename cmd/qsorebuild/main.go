// Command qsorebuild rebuilds the dashboard's QSO database from a live N1MM+
// contest database. Run it with the dashboard stopped or pointed elsewhere;
// it appends, so start from a fresh target file.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"

	"qsoview/config"
	"qsoview/qsolog"
	"qsoview/sqliteutil"
)

func main() {
	var (
		configDir = flag.String("config", envOr("QSOVIEW_CONFIG_PATH", "data/config"), "Configuration directory")
		source    = flag.String("n1mm", "", "N1MM+ database file (overrides importer.n1mm_database)")
		target    = flag.String("db", "", "View database to write (overrides database.path)")
	)
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.LUTC)

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *source != "" {
		cfg.Importer.N1MMDatabase = *source
	}
	if *target != "" {
		cfg.Database.Path = *target
	}
	if strings.TrimSpace(cfg.Importer.N1MMDatabase) == "" {
		log.Fatalf("importer.n1mm_database is not set (use -n1mm)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	busy := time.Duration(cfg.Database.BusyTimeoutMS) * time.Millisecond
	preflight := time.Duration(cfg.Database.PreflightTimeoutMS) * time.Millisecond
	if _, err := os.Stat(cfg.Database.Path); err == nil {
		if _, err := sqliteutil.Preflight(cfg.Database.Path, "view", preflight, log.Printf); err != nil {
			log.Fatalf("%v", err)
		}
	}

	src, err := sql.Open("sqlite", sqliteutil.DSN(cfg.Importer.N1MMDatabase, true, busy))
	if err != nil {
		log.Fatalf("failed to open N1MM+ database: %v", err)
	}
	defer src.Close()

	w, err := qsolog.OpenWriter(ctx, cfg.Database.Path, busy)
	if err != nil {
		log.Fatalf("failed to open view database: %v", err)
	}
	defer w.Close()

	log.Printf("Rebuild started: %s contest %q -> %s", cfg.Importer.N1MMDatabase, cfg.Importer.Contest, cfg.Database.Path)
	started := time.Now()
	read, skipped, err := readDXLOG(ctx, src, cfg.Importer.Contest, cfg.Importer.BatchSize, func(batch []qsolog.QSO) error {
		return w.Append(ctx, batch)
	})
	if err != nil {
		log.Fatalf("rebuild failed after %s QSOs: %v", humanize.Comma(int64(read)), err)
	}
	if skipped > 0 {
		log.Printf("Skipped %s rows with unreadable timestamps", humanize.Comma(int64(skipped)))
	}
	log.Printf("Rebuild finished: %s QSOs added (%d operators, %d stations) in %s",
		humanize.Comma(int64(read)), w.Operators().Len(), w.Stations().Len(), time.Since(started).Round(time.Millisecond))
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
