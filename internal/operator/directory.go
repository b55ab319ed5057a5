// Package operator maps mobile country and network codes to operator names.
package operator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// Operator identifies the network behind an MCC/MNC pair.
type Operator struct {
	MCC     string `json:"mcc"`
	MNC     string `json:"mnc"`
	Country string `json:"country"`
	Network string `json:"network"`
}

const schema = `
CREATE TABLE IF NOT EXISTS operators (
	mcc     TEXT NOT NULL,
	mnc     TEXT NOT NULL,
	country TEXT NOT NULL DEFAULT '',
	network TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (mcc, mnc)
);

CREATE INDEX IF NOT EXISTS idx_operators_country ON operators(country);
`

// Directory is a SQLite-backed operator table.
type Directory struct {
	db *sql.DB
}

// Open opens or creates the directory at path. ":memory:" gives a
// private in-memory directory.
func Open(path string) (*Directory, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open operator directory: %w", err)
	}
	if path == ":memory:" {
		// Each connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Directory{db: db}, nil
}

// Close closes the database connection.
func (d *Directory) Close() error {
	return d.db.Close()
}

// Import inserts or replaces entries in a single transaction. Entries
// without an MCC or MNC are skipped. It returns the number stored.
func (d *Directory) Import(ctx context.Context, entries []Operator) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO operators (mcc, mnc, country, network)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mcc, mnc) DO UPDATE SET
			country = excluded.country,
			network = excluded.network
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	n := 0
	for _, e := range entries {
		mcc, mnc := strings.TrimSpace(e.MCC), strings.TrimSpace(e.MNC)
		if mcc == "" || mnc == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, mcc, mnc, strings.TrimSpace(e.Country), strings.TrimSpace(e.Network)); err != nil {
			return 0, fmt.Errorf("import %s-%s: %w", mcc, mnc, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return n, nil
}

// Lookup finds the operator for mcc and mnc.
func (d *Directory) Lookup(ctx context.Context, mcc, mnc string) (Operator, bool, error) {
	op := Operator{MCC: mcc, MNC: mnc}
	err := d.db.QueryRowContext(ctx,
		"SELECT country, network FROM operators WHERE mcc = ? AND mnc = ?",
		mcc, mnc,
	).Scan(&op.Country, &op.Network)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return Operator{}, false, nil
	case err != nil:
		return Operator{}, false, fmt.Errorf("lookup %s-%s: %w", mcc, mnc, err)
	}
	return op, true, nil
}

// Count returns the number of stored operators.
func (d *Directory) Count(ctx context.Context) (int, error) {
	var n int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM operators").Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// LoadJSON reads a list of operators from a JSON file.
func LoadJSON(path string) ([]Operator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Operator
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return entries, nil
}
