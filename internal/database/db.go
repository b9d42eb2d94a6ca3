package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jgoulah/flightscraper/pkg/models"
	_ "modernc.org/sqlite"
)

const dateFormat = "2006-01-02"

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// Coverage summarizes what a table holds
type Coverage struct {
	Rows  int
	First time.Time
	Last  time.Time
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS passenger_volumes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		volume INTEGER NOT NULL,
		source TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(date)
	);
	CREATE TABLE IF NOT EXISTS trend_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		keyword TEXT NOT NULL,
		column_name TEXT NOT NULL,
		value REAL NOT NULL,
		is_partial INTEGER DEFAULT 0,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS published_weeks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		topic TEXT NOT NULL,
		published_at TEXT NOT NULL,
		UNIQUE(date, topic)
	);
	CREATE INDEX IF NOT EXISTS idx_passenger_date ON passenger_volumes(date);
	CREATE INDEX IF NOT EXISTS idx_trend_date ON trend_points(date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_trend_date_column ON trend_points(date, column_name);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// InsertPassengerVolume inserts a daily count, ignoring dates already stored.
// It reports whether a row was added.
func (db *DB) InsertPassengerVolume(data *models.PassengerVolume) (bool, error) {
	query := `
	INSERT OR IGNORE INTO passenger_volumes (date, volume, source, created_at)
	VALUES (?, ?, ?, ?)
	`

	createdAt := time.Now().UTC().Format(time.RFC3339)
	res, err := db.conn.Exec(query, data.Date.Format(dateFormat), data.Volume, data.Source, createdAt)
	if err != nil {
		return false, fmt.Errorf("inserting passenger volume: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking inserted rows: %w", err)
	}
	return n > 0, nil
}

// ListPassengerVolumes retrieves all daily counts, ordered by date
func (db *DB) ListPassengerVolumes() ([]models.PassengerVolume, error) {
	query := `
	SELECT id, date, volume, source
	FROM passenger_volumes
	ORDER BY date ASC
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying passenger volumes: %w", err)
	}
	defer rows.Close()

	var results []models.PassengerVolume
	for rows.Next() {
		var data models.PassengerVolume
		var dateStr string
		var source sql.NullString

		if err := rows.Scan(&data.ID, &dateStr, &data.Volume, &source); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		data.Date, err = time.Parse(dateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		data.Source = source.String

		results = append(results, data)
	}

	return results, rows.Err()
}

// UpsertTrendPoint stores a trend sample. Trends rescales a series on every
// fetch and finalizes partial weeks later, so a sample already stored for the
// same (date, column) is overwritten. It reports whether a new row was added.
func (db *DB) UpsertTrendPoint(data *models.TrendPoint) (bool, error) {
	date := data.Date.Format(dateFormat)

	var exists int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM trend_points WHERE date = ? AND column_name = ?`, date, data.Column).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking trend point: %w", err)
	}

	query := `
	INSERT INTO trend_points (date, keyword, column_name, value, is_partial, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(date, column_name) DO UPDATE SET
		keyword = excluded.keyword,
		value = excluded.value,
		is_partial = excluded.is_partial
	`

	partial := 0
	if data.IsPartial {
		partial = 1
	}
	createdAt := time.Now().UTC().Format(time.RFC3339)

	if _, err := db.conn.Exec(query, date, data.Keyword, data.Column, data.Value, partial, createdAt); err != nil {
		return false, fmt.Errorf("storing trend point: %w", err)
	}
	return exists == 0, nil
}

// ListTrendPoints retrieves trend samples ordered by date, optionally for one column
func (db *DB) ListTrendPoints(column string) ([]models.TrendPoint, error) {
	query := `
	SELECT id, date, keyword, column_name, value, is_partial
	FROM trend_points
	`
	var args []any
	if column != "" {
		query += ` WHERE column_name = ?`
		args = append(args, column)
	}
	query += ` ORDER BY date ASC, column_name ASC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trend points: %w", err)
	}
	defer rows.Close()

	var results []models.TrendPoint
	for rows.Next() {
		var data models.TrendPoint
		var dateStr string
		var partial int

		if err := rows.Scan(&data.ID, &dateStr, &data.Keyword, &data.Column, &data.Value, &partial); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		data.Date, err = time.Parse(dateFormat, dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		data.IsPartial = partial != 0

		results = append(results, data)
	}

	return results, rows.Err()
}

// TrendSeries identifies one stored column and the keyword it was fetched for
type TrendSeries struct {
	Keyword string
	Column  string
}

// TrendColumns returns the distinct stored columns ordered by name
func (db *DB) TrendColumns() ([]TrendSeries, error) {
	rows, err := db.conn.Query(`
	SELECT MIN(keyword), column_name
	FROM trend_points
	GROUP BY column_name
	ORDER BY column_name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying trend columns: %w", err)
	}
	defer rows.Close()

	var results []TrendSeries
	for rows.Next() {
		var s TrendSeries
		if err := rows.Scan(&s.Keyword, &s.Column); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, s)
	}

	return results, rows.Err()
}

// PassengerCoverage returns the row count and date range of stored daily counts
func (db *DB) PassengerCoverage() (Coverage, error) {
	return db.coverage(`SELECT COUNT(*), MIN(date), MAX(date) FROM passenger_volumes`)
}

// TrendCoverage returns the row count and date range of stored samples for a column
func (db *DB) TrendCoverage(column string) (Coverage, error) {
	return db.coverage(`SELECT COUNT(*), MIN(date), MAX(date) FROM trend_points WHERE column_name = ?`, column)
}

func (db *DB) coverage(query string, args ...any) (Coverage, error) {
	var c Coverage
	var first, last sql.NullString

	if err := db.conn.QueryRow(query, args...).Scan(&c.Rows, &first, &last); err != nil {
		return Coverage{}, fmt.Errorf("querying coverage: %w", err)
	}

	var err error
	if first.Valid {
		if c.First, err = time.Parse(dateFormat, first.String); err != nil {
			return Coverage{}, fmt.Errorf("parsing date: %w", err)
		}
	}
	if last.Valid {
		if c.Last, err = time.Parse(dateFormat, last.String); err != nil {
			return Coverage{}, fmt.Errorf("parsing date: %w", err)
		}
	}

	return c, nil
}

// IsPublished checks whether a week was already published to a topic
func (db *DB) IsPublished(date time.Time, topic string) (bool, error) {
	var n int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM published_weeks WHERE date = ? AND topic = ?`,
		date.Format(dateFormat), topic,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying published weeks: %w", err)
	}
	return n > 0, nil
}

// MarkPublished records that a week was published to a topic
func (db *DB) MarkPublished(date time.Time, topic string) error {
	query := `
	INSERT INTO published_weeks (date, topic, published_at) VALUES (?, ?, ?)
	ON CONFLICT(date, topic) DO UPDATE SET published_at = excluded.published_at
	`
	_, err := db.conn.Exec(query, date.Format(dateFormat), topic, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("marking week as published: %w", err)
	}
	return nil
}
