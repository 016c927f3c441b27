package sqliteutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func createDB(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec("create table t (id integer)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
}

func TestDSN(t *testing.T) {
	ro := DSN("/tmp/log.db", true, 5*time.Second)
	if !strings.HasPrefix(ro, "file:/tmp/log.db?") || !strings.Contains(ro, "query_only") || !strings.HasSuffix(ro, "mode=rw") {
		t.Fatalf("unexpected read-only dsn %q", ro)
	}
	if strings.Contains(ro, "journal_mode") {
		t.Fatalf("read-only dsn must not set journal mode: %q", ro)
	}
	rw := DSN("/tmp/log.db", false, 0)
	if !strings.Contains(rw, "mode=rwc") || !strings.Contains(rw, "journal_mode") {
		t.Fatalf("unexpected writable dsn %q", rw)
	}
}

func TestProbeHealthyReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.db")
	createDB(t, path)

	db, err := sql.Open("sqlite", DSN(path, true, time.Second))
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer db.Close()
	res := Probe(context.Background(), db, time.Second)
	if !res.Healthy || res.CheckError != nil {
		t.Fatalf("expected healthy probe, got %+v", res)
	}
	if _, err := db.Exec("insert into t(id) values (1)"); err == nil {
		t.Fatalf("expected write through read-only handle to fail")
	}
}

func TestPreflightHealthy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "healthy.db")
	createDB(t, path)

	res, err := Preflight(path, "log", time.Second, nil)
	if err != nil {
		t.Fatalf("preflight failed: %v", err)
	}
	if !res.Healthy || res.Quarantined {
		t.Fatalf("expected healthy preflight, got %+v", res)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected db to remain, stat failed: %v", err)
	}
}

func TestPreflightQuarantinesCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.db")
	if err := os.WriteFile(path, []byte("not a sqlite database"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	res, err := Preflight(path, "log", time.Second, func(string, ...any) {})
	if err != nil {
		t.Fatalf("preflight expected quarantine, got error: %v", err)
	}
	if res.Healthy || !res.Quarantined {
		t.Fatalf("expected quarantine, got %+v", res)
	}
	if !strings.Contains(res.QuarantinePath, ".bad-") {
		t.Fatalf("quarantine path not suffixed as expected: %s", res.QuarantinePath)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected original db to be renamed, stat err=%v", err)
	}
	if _, err := os.Stat(res.QuarantinePath); err != nil {
		t.Fatalf("expected quarantined file at %s: %v", res.QuarantinePath, err)
	}
}
