package main

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"qsoview/contest"
	"qsoview/qsolog"
)

const n1mmTimeLayout = "2006-01-02 15:04:05"

const dxlogQuery = `SELECT TS, StationPrefix, Band, Mode, Operator, NetBiosName, Freq, QSXFreq, Call,
	SNT, RCV, Exchange1, Sect, Comment
	FROM DXLOG WHERE ContestName = ? ORDER BY TS`

// dxlogRow is one DXLOG row as N1MM+ stores it; most text columns may be
// NULL in practice.
type dxlogRow struct {
	TS       string
	MyCall   sql.NullString
	Band     sql.NullFloat64
	Mode     sql.NullString
	Operator sql.NullString
	Station  sql.NullString
	Freq     sql.NullFloat64
	QSXFreq  sql.NullFloat64
	Call     sql.NullString
	Sent     sql.NullString
	Recv     sql.NullString
	Exchange sql.NullString
	Section  sql.NullString
	Comment  sql.NullString
}

// convert maps an N1MM+ row to the view schema. Frequencies are logged in
// kHz and stored in tens of Hz.
func (r dxlogRow) convert() (qsolog.QSO, error) {
	ts, err := time.ParseInLocation(n1mmTimeLayout, strings.TrimSpace(r.TS), time.UTC)
	if err != nil {
		return qsolog.QSO{}, fmt.Errorf("bad timestamp %q: %w", r.TS, err)
	}
	return qsolog.QSO{
		Timestamp: ts.Unix(),
		MyCall:    r.MyCall.String,
		BandID:    contest.BandIDForMHz(r.Band.Float64),
		ModeID:    contest.ModeID(r.Mode.String),
		Operator:  r.Operator.String,
		Station:   r.Station.String,
		RxFreq:    int64(math.Round(r.Freq.Float64 * 100)),
		TxFreq:    int64(math.Round(r.QSXFreq.Float64 * 100)),
		Callsign:  contest.NormalizeCall(r.Call.String),
		RSTSent:   r.Sent.String,
		RSTRecv:   r.Recv.String,
		Exchange:  strings.TrimSpace(r.Exchange.String),
		Section:   contest.NormalizeSection(r.Section.String),
		Comment:   r.Comment.String,
	}, nil
}

// readDXLOG streams contest rows in timestamp order, handing batches of at
// most batchSize to emit. Rows with unparseable timestamps are skipped and
// counted.
func readDXLOG(ctx context.Context, db *sql.DB, contestName string, batchSize int, emit func([]qsolog.QSO) error) (read, skipped int, err error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	rows, err := db.QueryContext(ctx, dxlogQuery, contestName)
	if err != nil {
		return 0, 0, fmt.Errorf("query DXLOG: %w", err)
	}
	defer rows.Close()

	batch := make([]qsolog.QSO, 0, batchSize)
	for rows.Next() {
		var r dxlogRow
		if err := rows.Scan(&r.TS, &r.MyCall, &r.Band, &r.Mode, &r.Operator, &r.Station, &r.Freq, &r.QSXFreq,
			&r.Call, &r.Sent, &r.Recv, &r.Exchange, &r.Section, &r.Comment); err != nil {
			return read, skipped, fmt.Errorf("scan DXLOG: %w", err)
		}
		q, convErr := r.convert()
		if convErr != nil {
			skipped++
			continue
		}
		batch = append(batch, q)
		read++
		if len(batch) == batchSize {
			if err := emit(batch); err != nil {
				return read, skipped, err
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return read, skipped, fmt.Errorf("iterate DXLOG: %w", err)
	}
	if len(batch) > 0 {
		if err := emit(batch); err != nil {
			return read, skipped, err
		}
	}
	return read, skipped, nil
}
