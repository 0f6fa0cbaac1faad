// Package storage persists recorded simulation series, one sqlite database
// per case identifier under a caller-supplied data directory.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// Record is one recorded instant of a simulation.
type Record struct {
	Time          float64   `json:"time"`
	Temperature   float64   `json:"temperature"`
	Pressure      float64   `json:"pressure"`
	Volume        float64   `json:"volume"`
	MassFractions []float64 `json:"mass_fractions"`
}

const schema = `
CREATE TABLE IF NOT EXISTS simulation (
	step INTEGER PRIMARY KEY,
	time REAL NOT NULL,
	temperature REAL NOT NULL,
	pressure REAL NOT NULL,
	volume REAL NOT NULL,
	mass_fractions TEXT NOT NULL
);
`

// Store manages the per-case series databases.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) path(caseID string) string {
	return filepath.Join(s.baseDir, caseID+".db")
}

// Writer appends records for a single case. Records are staged in one
// transaction and committed by Close, so a failed case leaves no partial
// series behind.
type Writer struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
	step int
}

// Create opens a fresh series for the case, replacing any previous one.
func (s *Store) Create(caseID string) (*Writer, error) {
	if caseID == "" {
		return nil, fmt.Errorf("storage: empty case id")
	}
	path := s.path(caseID)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("storage: replace %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: begin: %w", err)
	}
	stmt, err := tx.Prepare(
		"INSERT INTO simulation (step, time, temperature, pressure, volume, mass_fractions) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("storage: prepare: %w", err)
	}

	return &Writer{db: db, tx: tx, stmt: stmt}, nil
}

// Append adds one record to the series.
func (w *Writer) Append(r Record) error {
	fracs, err := json.Marshal(r.MassFractions)
	if err != nil {
		return fmt.Errorf("storage: encode mass fractions: %w", err)
	}
	_, err = w.stmt.Exec(w.step, r.Time, r.Temperature, r.Pressure, r.Volume, string(fracs))
	if err != nil {
		return fmt.Errorf("storage: append step %d: %w", w.step, err)
	}
	w.step++
	return nil
}

// Close commits the series and releases the database.
func (w *Writer) Close() error {
	w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("storage: commit: %w", err)
	}
	return w.db.Close()
}

// Abort discards everything staged since Create.
func (w *Writer) Abort() error {
	w.stmt.Close()
	w.tx.Rollback()
	return w.db.Close()
}

// Read loads the full recorded series for a case in time order.
func (s *Store) Read(caseID string) ([]Record, error) {
	path := s.path(caseID)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("storage: no series for case %q: %w", caseID, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.Query(
		"SELECT time, temperature, pressure, volume, mass_fractions FROM simulation ORDER BY step")
	if err != nil {
		return nil, fmt.Errorf("storage: query: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var r Record
		var fracs string
		if err := rows.Scan(&r.Time, &r.Temperature, &r.Pressure, &r.Volume, &fracs); err != nil {
			return nil, fmt.Errorf("storage: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(fracs), &r.MassFractions); err != nil {
			return nil, fmt.Errorf("storage: decode mass fractions: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// List returns the case identifiers with a stored series.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".db"))
	}
	sort.Strings(ids)
	return ids, nil
}
