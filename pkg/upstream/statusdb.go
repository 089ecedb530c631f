package upstream

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Check is a row of upstream_checks: the last known reachability of one
// API endpoint.
type Check struct {
	Endpoint   string
	LastCheck  *int64
	LastStatus *int
	LastError  *string
	UpdatedAt  int64
}

// Reachable reports whether the last check got an HTTP answer below 500.
func (c Check) Reachable() bool {
	return c.LastStatus != nil && reachable(*c.LastStatus)
}

// StatusDB manages the upstream_checks SQLite table. Only reachability is
// stored; queries and results never touch disk.
type StatusDB struct {
	db *sql.DB
}

// MemoryPath opens a status database that lives only as long as the process.
const MemoryPath = ":memory:"

// OpenStatusDB opens (or creates) the SQLite database at path and ensures the
// upstream_checks table exists.
func OpenStatusDB(path string) (*StatusDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open status db: %w", err)
	}
	if path == MemoryPath {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS upstream_checks (
		endpoint     TEXT PRIMARY KEY,
		last_check   INTEGER,
		last_status  INTEGER,
		last_error   TEXT,
		updated_at   INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create upstream_checks table: %w", err)
	}

	return &StatusDB{db: db}, nil
}

func (s *StatusDB) Close() error {
	return s.db.Close()
}

// Register inserts a row for endpoint if it has none. Existing check results
// survive restarts.
func (s *StatusDB) Register(endpoint string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO upstream_checks (endpoint, updated_at) VALUES (?, ?)`,
		endpoint, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("register %s: %w", endpoint, err)
	}
	return nil
}

// UpdateCheck persists the result of an availability check.
func (s *StatusDB) UpdateCheck(endpoint string, status int, checkErr string) error {
	now := time.Now().Unix()
	var errPtr *string
	if checkErr != "" {
		errPtr = &checkErr
	}
	res, err := s.db.Exec(
		`UPDATE upstream_checks SET last_check = ?, last_status = ?, last_error = ?, updated_at = ? WHERE endpoint = ?`,
		now, status, errPtr, now, endpoint,
	)
	if err != nil {
		return fmt.Errorf("update check for %s: %w", endpoint, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("endpoint %s not registered", endpoint)
	}
	return nil
}

// Get returns the row for endpoint. A missing row is reported as sql.ErrNoRows.
func (s *StatusDB) Get(endpoint string) (Check, error) {
	var c Check
	err := s.db.QueryRow(`SELECT endpoint, last_check, last_status, last_error, updated_at
		FROM upstream_checks WHERE endpoint = ?`, endpoint).
		Scan(&c.Endpoint, &c.LastCheck, &c.LastStatus, &c.LastError, &c.UpdatedAt)
	if err != nil {
		return Check{}, fmt.Errorf("get %s: %w", endpoint, err)
	}
	return c, nil
}

// List returns all rows ordered by endpoint.
func (s *StatusDB) List() ([]Check, error) {
	rows, err := s.db.Query(`SELECT endpoint, last_check, last_status, last_error, updated_at
		FROM upstream_checks ORDER BY endpoint`)
	if err != nil {
		return nil, fmt.Errorf("list checks: %w", err)
	}
	defer rows.Close()

	var checks []Check
	for rows.Next() {
		var c Check
		if err := rows.Scan(&c.Endpoint, &c.LastCheck, &c.LastStatus, &c.LastError, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		checks = append(checks, c)
	}
	return checks, rows.Err()
}
