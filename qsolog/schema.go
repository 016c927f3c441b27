// Package qsolog adapts the shared SQLite QSO log. The dashboard side opens
// it read-only and asks for aggregate rows; the importer side appends QSOs
// and resolves operator and station names to ids.
package qsolog

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`create table if not exists operator (
		id integer primary key not null,
		name char(12) not null
	)`,
	`create index if not exists operator_name on operator(name)`,
	`create table if not exists station (
		id integer primary key not null,
		name char(12) not null
	)`,
	`create index if not exists station_name on station(name)`,
	`create table if not exists qso_log (
		timestamp integer not null,
		mycall char(12) not null,
		band_id integer not null,
		mode_id integer not null,
		operator_id integer not null,
		station_id integer not null,
		rx_freq integer not null,
		tx_freq integer not null,
		callsign char(12) not null,
		rst_sent char(3),
		rst_recv char(3),
		exchange char(4),
		section char(4),
		comment text
	)`,
	`create index if not exists qso_log_timestamp on qso_log(timestamp)`,
	`create index if not exists qso_log_band_id on qso_log(band_id)`,
	`create index if not exists qso_log_mode_id on qso_log(mode_id)`,
	`create index if not exists qso_log_operator_id on qso_log(operator_id)`,
	`create index if not exists qso_log_station_id on qso_log(station_id)`,
	`create index if not exists qso_log_section on qso_log(section)`,
}

// EnsureSchema creates the log tables and indexes if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("qsolog: schema: %w", err)
		}
	}
	return nil
}
