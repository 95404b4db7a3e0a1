// Package store keeps a local SQLite history of scans and their findings.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pratik-anurag/openport/internal/model"
)

// Scan is one stored run of the pipeline.
type Scan struct {
	ID        string
	StartedAt time.Time
	OSFamily  string
	Outcome   string
	Total     int
	Risky     int
	Malformed int
	Error     string
}

// Finding is one stored annotated record. Ports and PID keep their
// display form so "unknown" survives the round trip.
type Finding struct {
	ScanID          string
	Index           int
	Protocol        string
	LocalAddress    string
	LocalPort       string
	RemoteAddress   string
	RemotePort      string
	Status          string
	PID             string
	ProcessName     string
	ServiceName     string
	Risky           bool
	Reason          string
	Remediation     string
	FirewallCommand string
}

// DB wraps the SQLite connection
type DB struct {
	db *sql.DB
}

// Open opens or creates the history database
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL, -- unix nanoseconds
		os_family TEXT NOT NULL,
		outcome TEXT NOT NULL,
		total INTEGER NOT NULL,
		risky INTEGER NOT NULL,
		malformed INTEGER NOT NULL,
		error TEXT
	);
	CREATE TABLE IF NOT EXISTS findings (
		scan_id TEXT NOT NULL REFERENCES scans(id),
		idx INTEGER NOT NULL,
		protocol TEXT NOT NULL,
		local_address TEXT NOT NULL,
		local_port TEXT NOT NULL,
		remote_address TEXT NOT NULL,
		remote_port TEXT NOT NULL,
		status TEXT NOT NULL,
		pid TEXT NOT NULL,
		process_name TEXT NOT NULL,
		service_name TEXT NOT NULL,
		risky INTEGER NOT NULL,
		reason TEXT,
		remediation TEXT NOT NULL,
		firewall_command TEXT NOT NULL,
		PRIMARY KEY (scan_id, idx)
	);
	CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at);
	CREATE INDEX IF NOT EXISTS idx_findings_risky ON findings(scan_id, risky);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// SaveScan stores s and its records in one transaction. A new ID is
// assigned when s.ID is empty; the stored ID is returned.
func (d *DB) SaveScan(s Scan, recs []model.AnnotatedRecord) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	tx, err := d.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO scans (id, started_at, os_family, outcome, total, risky, malformed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.StartedAt.UnixNano(), s.OSFamily, s.Outcome, s.Total, s.Risky, s.Malformed, s.Error)
	if err != nil {
		return "", fmt.Errorf("insert scan: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO findings (scan_id, idx, protocol, local_address, local_port, remote_address, remote_port,
			status, pid, process_name, service_name, risky, reason, remediation, firewall_command)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for i, r := range recs {
		_, err := stmt.Exec(s.ID, i, string(r.Protocol), r.LocalAddress, r.LocalPort.String(),
			r.RemoteAddress, r.RemotePort.String(), r.Status, r.PID.String(), r.ProcessName,
			r.ServiceName, r.Security.IsRisky(), r.Security.Reason(), r.Remediation, r.FirewallCommand)
		if err != nil {
			return "", fmt.Errorf("insert finding %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return s.ID, nil
}

// RecentScans returns up to limit scans, newest first. With riskyOnly only
// scans that found a risky socket are counted and returned.
func (d *DB) RecentScans(limit int, riskyOnly bool) ([]Scan, error) {
	query := `
		SELECT id, started_at, os_family, outcome, total, risky, malformed, error
		FROM scans`
	if riskyOnly {
		query += ` WHERE risky > 0`
	}
	query += `
		ORDER BY started_at DESC
		LIMIT ?`

	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []Scan
	for rows.Next() {
		var s Scan
		var started int64
		var errText sql.NullString
		if err := rows.Scan(&s.ID, &started, &s.OSFamily, &s.Outcome, &s.Total, &s.Risky, &s.Malformed, &errText); err != nil {
			return nil, err
		}
		s.StartedAt = time.Unix(0, started).UTC()
		s.Error = errText.String
		scans = append(scans, s)
	}
	return scans, rows.Err()
}

// Findings returns the records of one scan in their original order.
func (d *DB) Findings(scanID string, riskyOnly bool) ([]Finding, error) {
	query := `
		SELECT scan_id, idx, protocol, local_address, local_port, remote_address, remote_port,
			status, pid, process_name, service_name, risky, reason, remediation, firewall_command
		FROM findings
		WHERE scan_id = ?`
	if riskyOnly {
		query += ` AND risky = 1`
	}
	query += ` ORDER BY idx`

	rows, err := d.db.Query(query, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Finding
	for rows.Next() {
		var f Finding
		var reason sql.NullString
		if err := rows.Scan(&f.ScanID, &f.Index, &f.Protocol, &f.LocalAddress, &f.LocalPort,
			&f.RemoteAddress, &f.RemotePort, &f.Status, &f.PID, &f.ProcessName, &f.ServiceName,
			&f.Risky, &reason, &f.Remediation, &f.FirewallCommand); err != nil {
			return nil, err
		}
		f.Reason = reason.String
		out = append(out, f)
	}
	return out, rows.Err()
}
