package qsolog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"qsoview/sqliteutil"
)

// NameTable resolves names in a two-column (id, name) lookup table to ids,
// inserting unseen names on demand. It is owned by one Writer for the
// duration of an import and loads the existing rows on first use.
type NameTable struct {
	table  string
	ids    map[string]int64
	loaded bool
}

func newNameTable(table string) *NameTable {
	return &NameTable{table: table, ids: make(map[string]int64)}
}

// Len returns the number of names currently known.
func (n *NameTable) Len() int { return len(n.ids) }

// Lookup returns the id for name, creating the row inside tx on a miss.
func (n *NameTable) Lookup(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	if !n.loaded {
		if err := n.load(ctx, tx); err != nil {
			return 0, err
		}
	}
	if id, ok := n.ids[name]; ok {
		return id, nil
	}
	res, err := tx.ExecContext(ctx, "insert into "+n.table+" (name) values (?)", name)
	if err != nil {
		return 0, fmt.Errorf("qsolog: insert %s %q: %w", n.table, name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("qsolog: %s id: %w", n.table, err)
	}
	n.ids[name] = id
	return id, nil
}

func (n *NameTable) reset() {
	n.ids = make(map[string]int64)
	n.loaded = false
}

func (n *NameTable) load(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, "select id, name from "+n.table)
	if err != nil {
		return fmt.Errorf("qsolog: load %s: %w", n.table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("qsolog: load %s: %w", n.table, err)
		}
		n.ids[name] = id
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("qsolog: load %s: %w", n.table, err)
	}
	n.loaded = true
	return nil
}

// Writer appends QSOs to a log database. It is used by the importer only;
// the dashboard never writes.
type Writer struct {
	db        *sql.DB
	operators *NameTable
	stations  *NameTable
}

// OpenWriter opens (creating if needed) the log at path for writing and
// ensures the schema exists.
func OpenWriter(ctx context.Context, path string, busyTimeout time.Duration) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("qsolog: mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", sqliteutil.DSN(path, false, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("qsolog: open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Writer{
		db:        db,
		operators: newNameTable("operator"),
		stations:  newNameTable("station"),
	}, nil
}

// Close releases the database handle.
func (w *Writer) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}

// Operators exposes the operator lookup table.
func (w *Writer) Operators() *NameTable { return w.operators }

// Stations exposes the station lookup table.
func (w *Writer) Stations() *NameTable { return w.stations }

// Append inserts qsos in a single transaction. Nothing is written if any
// row fails.
func (w *Writer) Append(ctx context.Context, qsos []QSO) (err error) {
	if len(qsos) == 0 {
		return nil
	}
	defer func() {
		if err != nil {
			// Ids handed out inside the rolled-back transaction are gone.
			w.operators.reset()
			w.stations.reset()
		}
	}()
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("qsolog: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `insert into qso_log
		(timestamp, mycall, band_id, mode_id, operator_id, station_id, rx_freq, tx_freq,
		 callsign, rst_sent, rst_recv, exchange, section, comment)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("qsolog: prepare: %w", err)
	}
	defer stmt.Close()

	for _, q := range qsos {
		opID, err := w.operators.Lookup(ctx, tx, strings.TrimSpace(q.Operator))
		if err != nil {
			return err
		}
		stID, err := w.stations.Lookup(ctx, tx, strings.TrimSpace(q.Station))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, q.Timestamp, q.MyCall, q.BandID, q.ModeID, opID, stID,
			q.RxFreq, q.TxFreq, q.Callsign, q.RSTSent, q.RSTRecv, q.Exchange, q.Section, q.Comment); err != nil {
			return fmt.Errorf("qsolog: insert qso %s: %w", q.Callsign, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("qsolog: commit: %w", err)
	}
	return nil
}
