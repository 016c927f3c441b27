package qsolog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"qsoview/sqliteutil"

	_ "modernc.org/sqlite"
)

// QSO is one logged contact. Timestamp is unix seconds UTC.
type QSO struct {
	Timestamp int64
	MyCall    string
	BandID    int
	ModeID    int
	Operator  string
	Station   string
	RxFreq    int64
	TxFreq    int64
	Callsign  string
	RSTSent   string
	RSTRecv   string
	Exchange  string
	Section   string
	Comment   string
}

// NameCount is a grouped count keyed by a display name (operator, station or
// section code).
type NameCount struct {
	Name  string
	Count int64
}

// BandModeCount is the number of QSOs for one raw band/mode id pair.
type BandModeCount struct {
	BandID int
	ModeID int
	Count  int64
}

// SliceCount is the number of QSOs on one band inside slice Index, where
// Index = (timestamp - First) / SliceWidth.
type SliceCount struct {
	Index  int64
	BandID int
	Count  int64
}

// AggregateQuery pins one aggregation pass.
type AggregateQuery struct {
	// Through bounds every query to timestamp <= Through.
	Through int64
	// RateWindowStart is the inclusive start of the trailing rate window.
	RateWindowStart int64
	// RateLimit caps the operator rate rows.
	RateLimit int
	// SliceWidth is the slice width in seconds.
	SliceWidth int64
}

// Aggregates is the raw grouped output of one consistent read.
type Aggregates struct {
	First         int64
	HasFirst      bool
	Total         int64
	Operators     []NameCount
	Stations      []NameCount
	BandModes     []BandModeCount
	Sections      []NameCount
	OperatorRates []NameCount
	Slices        []SliceCount
}

// Store is a read-only view of the shared QSO log.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the log at path read-only. The file is not touched until the
// first query, so a missing log surfaces as a read error on poll.
func Open(path string, busyTimeout time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", sqliteutil.DSN(path, true, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("qsolog: open db: %w", err)
	}
	db.SetMaxOpenConns(2)
	return &Store{db: db, path: path}, nil
}

// Path returns the log file path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Probe runs a bounded read-only integrity check.
func (s *Store) Probe(ctx context.Context, timeout time.Duration) sqliteutil.ProbeResult {
	return sqliteutil.Probe(ctx, s.db, timeout)
}

// LatestQSO returns the most recent QSO. ok is false when the log is empty.
func (s *Store) LatestQSO(ctx context.Context) (QSO, bool, error) {
	row := s.db.QueryRowContext(ctx, `select q.timestamp, q.callsign, coalesce(q.exchange, ''),
		coalesce(q.section, ''), coalesce(o.name, ''), coalesce(st.name, ''), q.band_id, q.mode_id
		from qso_log q
		left join operator o on o.id = q.operator_id
		left join station st on st.id = q.station_id
		order by q.timestamp desc limit 1`)
	var q QSO
	err := row.Scan(&q.Timestamp, &q.Callsign, &q.Exchange, &q.Section, &q.Operator, &q.Station, &q.BandID, &q.ModeID)
	if errors.Is(err, sql.ErrNoRows) {
		return QSO{}, false, nil
	}
	if err != nil {
		return QSO{}, false, fmt.Errorf("qsolog: latest qso: %w", err)
	}
	return q, true, nil
}

// Aggregates runs every grouping of one aggregation pass inside a single
// read transaction so all rows describe the same log state.
//
// Purpose: feed the snapshot builder from one consistent read.
// Key aspects: every query is bounded by q.Through; slices are grouped in SQL.
// Upstream: stats.Engine.Poll.
// Downstream: stats.BuildSnapshot.
func (s *Store) Aggregates(ctx context.Context, q AggregateQuery) (Aggregates, error) {
	var out Aggregates
	if q.SliceWidth <= 0 {
		return out, errors.New("qsolog: slice width must be > 0")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return out, fmt.Errorf("qsolog: begin read: %w", err)
	}
	defer tx.Rollback()

	var first, total sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`select min(timestamp), count(*) from qso_log where timestamp <= ?`, q.Through,
	).Scan(&first, &total); err != nil {
		return out, fmt.Errorf("qsolog: first qso: %w", err)
	}
	out.Total = total.Int64
	if !first.Valid || out.Total == 0 {
		return out, nil
	}
	out.First = first.Int64
	out.HasFirst = true

	if out.Operators, err = nameCounts(ctx, tx, `select coalesce(o.name, ''), count(*) as n
		from qso_log q left join operator o on o.id = q.operator_id
		where q.timestamp <= ? group by q.operator_id order by n desc, o.name`, q.Through); err != nil {
		return out, fmt.Errorf("qsolog: operators: %w", err)
	}
	if out.Stations, err = nameCounts(ctx, tx, `select coalesce(st.name, ''), count(*) as n
		from qso_log q left join station st on st.id = q.station_id
		where q.timestamp <= ? group by q.station_id order by n desc, st.name`, q.Through); err != nil {
		return out, fmt.Errorf("qsolog: stations: %w", err)
	}
	if out.Sections, err = nameCounts(ctx, tx, `select coalesce(section, ''), count(*)
		from qso_log where timestamp <= ? group by section`, q.Through); err != nil {
		return out, fmt.Errorf("qsolog: sections: %w", err)
	}
	limit := q.RateLimit
	if limit <= 0 {
		limit = 10
	}
	if out.OperatorRates, err = nameCounts(ctx, tx, `select coalesce(o.name, ''), count(*) as n
		from qso_log q left join operator o on o.id = q.operator_id
		where q.timestamp >= ? and q.timestamp <= ?
		group by q.operator_id order by n desc, o.name limit ?`, q.RateWindowStart, q.Through, limit); err != nil {
		return out, fmt.Errorf("qsolog: operator rates: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `select band_id, mode_id, count(*)
		from qso_log where timestamp <= ? group by band_id, mode_id`, q.Through)
	if err != nil {
		return out, fmt.Errorf("qsolog: band modes: %w", err)
	}
	for rows.Next() {
		var bm BandModeCount
		if err := rows.Scan(&bm.BandID, &bm.ModeID, &bm.Count); err != nil {
			rows.Close()
			return out, fmt.Errorf("qsolog: band modes: %w", err)
		}
		out.BandModes = append(out.BandModes, bm)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("qsolog: band modes: %w", err)
	}

	rows, err = tx.QueryContext(ctx, `select (timestamp - ?) / ? as idx, band_id, count(*)
		from qso_log where timestamp <= ? group by idx, band_id order by idx, band_id`,
		out.First, q.SliceWidth, q.Through)
	if err != nil {
		return out, fmt.Errorf("qsolog: slices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc SliceCount
		if err := rows.Scan(&sc.Index, &sc.BandID, &sc.Count); err != nil {
			return out, fmt.Errorf("qsolog: slices: %w", err)
		}
		out.Slices = append(out.Slices, sc)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("qsolog: slices: %w", err)
	}
	return out, nil
}

func nameCounts(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]NameCount, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []NameCount
	for rows.Next() {
		var nc NameCount
		if err := rows.Scan(&nc.Name, &nc.Count); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}
	return out, rows.Err()
}
