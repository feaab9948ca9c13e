package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS track_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id      TEXT    NOT NULL,
	kind          TEXT    NOT NULL,
	callsign      TEXT    NOT NULL DEFAULT '',
	affiliation   TEXT    NOT NULL,
	source        TEXT    NOT NULL,
	lat           REAL    NOT NULL,
	lon           REAL    NOT NULL,
	velocity      REAL    NOT NULL,
	baro_altitude REAL    NOT NULL,
	geo_altitude  REAL    NOT NULL,
	ts            TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_track_log_track_id ON track_log (track_id, ts);
`

// SQLiteSink appends documents to the track_log table.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (creating if needed) the database at path. ":memory:"
// is accepted.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path == "" {
		return nil, fmt.Errorf("mirror: sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("mirror: open sqlite %s: %w", path, err)
	}
	// One writer; also keeps ":memory:" pinned to a single database.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("mirror: init sqlite: %w", err)
		}
	}
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Write(ctx context.Context, doc Document) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO track_log (track_id, kind, callsign, affiliation, source, lat, lon, velocity, baro_altitude, geo_altitude, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.TrackID, doc.Kind, doc.Callsign, doc.Affiliation, doc.Source,
		doc.Lat, doc.Lon, doc.Velocity, doc.BaroAltitude, doc.GeoAltitude,
		doc.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("mirror: sqlite insert %s: %w", doc.TrackID, err)
	}
	return nil
}

// History returns the mirrored documents for trackID, oldest first.
func (s *SQLiteSink) History(ctx context.Context, trackID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT track_id, kind, callsign, affiliation, source, lat, lon, velocity, baro_altitude, geo_altitude, ts
		FROM track_log WHERE track_id = ? ORDER BY id`, trackID)
	if err != nil {
		return nil, fmt.Errorf("mirror: sqlite history %s: %w", trackID, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			d  Document
			ts string
		)
		if err := rows.Scan(&d.TrackID, &d.Kind, &d.Callsign, &d.Affiliation, &d.Source,
			&d.Lat, &d.Lon, &d.Velocity, &d.BaroAltitude, &d.GeoAltitude, &ts); err != nil {
			return nil, err
		}
		if d.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("mirror: parse ts %q: %w", ts, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
