package journal

import (
	"fmt"
	"time"
)

// Run kinds.
const (
	KindImport = "import"
	KindAdd    = "add"
	KindLink   = "link"
)

// Run is one recorded operation against the graph.
type Run struct {
	ID         int64
	Kind       string
	PageTitle  string
	PageUID    string
	Source     string // file path, or a short description of the input
	Created    int    // blocks written
	Failed     int    // failed top-level subtrees
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Record appends a run to the journal.
func (db *DB) Record(r Run) error {
	_, err := db.conn.Exec(`
		INSERT INTO runs (kind, page_title, page_uid, source, created, failed, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.Kind, r.PageTitle, r.PageUID, r.Source, r.Created, r.Failed, r.Error, r.StartedAt, r.FinishedAt)
	if err != nil {
		return fmt.Errorf("journal: record run: %w", err)
	}
	return nil
}

// Recent returns the most recent runs, newest first.
func (db *DB) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT id, kind, page_title, page_uid, source, created, failed, error, started_at, finished_at
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Kind, &r.PageTitle, &r.PageUID, &r.Source,
			&r.Created, &r.Failed, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MarkImported records a file checksum as imported.
func (db *DB) MarkImported(checksum, source string) error {
	_, err := db.conn.Exec(`
		INSERT OR REPLACE INTO imported_files (checksum, source, imported_at) VALUES (?, ?, ?)
	`, checksum, source, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal: mark imported: %w", err)
	}
	return nil
}

// AlreadyImported reports whether a checksum was imported before.
func (db *DB) AlreadyImported(checksum string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(1) FROM imported_files WHERE checksum = ?`, checksum).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("journal: lookup checksum: %w", err)
	}
	return n > 0, nil
}
