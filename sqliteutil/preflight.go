// Package sqliteutil holds shared SQLite helpers for the QSO log store and
// the importer: DSN construction, a read-only health probe for the display
// side, and a quarantining preflight for the rebuild side.
package sqliteutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DSN builds a modernc.org/sqlite data source name for path. A readOnly
// DSN opens an existing file without creating it and sets query_only, so
// the dashboard can never write to a log another process owns while still
// sharing that process's WAL sidecars.
func DSN(path string, readOnly bool, busyTimeout time.Duration) string {
	q := url.Values{}
	if readOnly {
		q.Set("mode", "rw")
		q.Add("_pragma", "query_only(1)")
	} else {
		q.Set("mode", "rwc")
		q.Add("_pragma", "journal_mode(WAL)")
		q.Add("_pragma", "synchronous(NORMAL)")
	}
	if busyTimeout > 0 {
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	}
	return "file:" + path + "?" + q.Encode()
}

// ProbeResult reports a read-only health check of a shared database.
type ProbeResult struct {
	Healthy    bool
	Elapsed    time.Duration
	CheckError error
}

// Probe runs a bounded quick_check against an already open database. It
// never mutates or moves the file; a failing probe is reported to the
// caller, which decides how to surface it.
func Probe(ctx context.Context, db *sql.DB, timeout time.Duration) ProbeResult {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := quickCheck(ctx, db)
	return ProbeResult{Healthy: err == nil, Elapsed: time.Since(start), CheckError: err}
}

// PreflightResult reports the outcome of a writable-database preflight.
type PreflightResult struct {
	Healthy         bool   // No issues detected; safe to proceed.
	Quarantined     bool   // The database was renamed aside.
	QuarantinePath  string // Path of the quarantined main file.
	Elapsed         time.Duration
	CheckpointError error
	CheckError      error
}

// Preflight checkpoints and quick_checks a database the caller is about to
// write. On failure the file and its sidecars are renamed to a timestamped
// .bad- path so the writer can start over with a fresh file.
//
// Purpose: keep a damaged target from stalling a rebuild.
// Key aspects: bounded by timeout; a timeout is fatal, a failed check quarantines.
// Upstream: cmd/qsorebuild before opening the target store.
// Downstream: quarantine.
func Preflight(path, role string, timeout time.Duration, logf func(string, ...any)) (PreflightResult, error) {
	if logf == nil {
		logf = log.Printf
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	res := PreflightResult{}
	if strings.TrimSpace(path) == "" {
		return res, errors.New("preflight: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return res, fmt.Errorf("preflight: ensure dir: %w", err)
	}
	start := time.Now()
	existing := existingFiles(path)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return res, fmt.Errorf("preflight: open %s db: %w", role, err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, fmt.Sprintf("pragma busy_timeout=%d", timeout.Milliseconds())); err != nil {
		return res, fmt.Errorf("preflight: set busy_timeout %s: %w", role, err)
	}

	_, res.CheckpointError = db.ExecContext(ctx, "pragma wal_checkpoint(TRUNCATE)")
	res.CheckError = quickCheck(ctx, db)
	res.Elapsed = time.Since(start)
	if res.CheckpointError == nil && res.CheckError == nil {
		res.Healthy = true
		return res, nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, fmt.Errorf("preflight: %s db timed out after %s", role, timeout)
	}

	_ = db.Close()
	dest, err := quarantine(path, existing, logf)
	if err != nil {
		return res, fmt.Errorf("preflight: %s db quarantine failed: %w (checkpoint=%v, quick_check=%v)", role, err, res.CheckpointError, res.CheckError)
	}
	res.Quarantined = true
	res.QuarantinePath = dest
	logf("%s db preflight failed (checkpoint=%v quick_check=%v); quarantined to %s; elapsed=%s",
		role, res.CheckpointError, res.CheckError, dest, res.Elapsed)
	return res, nil
}

func quickCheck(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "pragma quick_check")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		if err := rows.Scan(&status); err != nil {
			return err
		}
		if strings.TrimSpace(status) != "ok" {
			return fmt.Errorf("quick_check reported %q", status)
		}
	}
	return rows.Err()
}

func existingFiles(path string) []string {
	var out []string
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func quarantine(path string, existing []string, logf func(string, ...any)) (string, error) {
	suffix := ".bad-" + time.Now().UTC().Format("20060102T150405Z")
	for _, p := range existing {
		if err := os.Rename(p, p+suffix); err != nil {
			if os.IsNotExist(err) {
				// Sidecars can vanish during the checkpoint.
				logf("preflight: %s disappeared before quarantine", p)
				continue
			}
			return "", err
		}
	}
	return path + suffix, nil
}
