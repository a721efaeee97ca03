// Package auditlog records certificate-issuance metadata to a local
// SQLite database, replacing the teacher's full event store (which
// persisted every watched file-change event) with a narrower table: only
// the fact that a certificate was issued, never the breadcrumbs or chain
// it was computed over. Uses github.com/mattn/go-sqlite3, the teacher's
// own SQLite driver.
package auditlog

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tripverifier/criticality/internal/triperr"
)

// Entry is one certificate-issuance record.
type Entry struct {
	ID            int64
	IdentityKey   string // hex
	TrustScore    float64
	Verdict       string
	ChainLength   int
	IssuedAt      time.Time
	ExpiresAt     time.Time
	ActiveVerify  bool
}

// Log wraps a SQLite connection holding the audit table.
type Log struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS certificate_issuance (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	identity_key TEXT NOT NULL,
	trust_score REAL NOT NULL,
	verdict TEXT NOT NULL,
	chain_length INTEGER NOT NULL,
	issued_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	active_verify INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_certificate_issuance_identity ON certificate_issuance(identity_key);
CREATE INDEX IF NOT EXISTS idx_certificate_issuance_issued_at ON certificate_issuance(issued_at);
`

// Open opens (creating if necessary) the audit log database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, triperr.New(triperr.KindCertificateError, fmt.Sprintf("open audit log: %v", err))
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, triperr.New(triperr.KindCertificateError, fmt.Sprintf("create audit schema: %v", err))
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

// RecordIssuance records that a certificate was issued.
func (l *Log) RecordIssuance(e Entry) error {
	_, err := l.db.Exec(
		`INSERT INTO certificate_issuance
			(identity_key, trust_score, verdict, chain_length, issued_at, expires_at, active_verify)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.IdentityKey, e.TrustScore, e.Verdict, e.ChainLength,
		e.IssuedAt.Unix(), e.ExpiresAt.Unix(), e.ActiveVerify,
	)
	if err != nil {
		return triperr.New(triperr.KindCertificateError, fmt.Sprintf("record issuance: %v", err))
	}
	return nil
}

// RecentForIdentity returns the most recent issuance records for an
// identity key, newest first, bounded by limit.
func (l *Log) RecentForIdentity(identityKey string, limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, identity_key, trust_score, verdict, chain_length, issued_at, expires_at, active_verify
		 FROM certificate_issuance WHERE identity_key = ? ORDER BY issued_at DESC LIMIT ?`,
		identityKey, limit,
	)
	if err != nil {
		return nil, triperr.New(triperr.KindCertificateError, fmt.Sprintf("query issuance: %v", err))
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var issuedAt, expiresAt int64
		var activeVerify int
		if err := rows.Scan(&e.ID, &e.IdentityKey, &e.TrustScore, &e.Verdict, &e.ChainLength, &issuedAt, &expiresAt, &activeVerify); err != nil {
			return nil, triperr.New(triperr.KindCertificateError, fmt.Sprintf("scan issuance row: %v", err))
		}
		e.IssuedAt = time.Unix(issuedAt, 0).UTC()
		e.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		e.ActiveVerify = activeVerify != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountIssuances returns the total number of certificates ever issued.
func (l *Log) CountIssuances() (int64, error) {
	var count int64
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM certificate_issuance`).Scan(&count); err != nil {
		return 0, triperr.New(triperr.KindCertificateError, fmt.Sprintf("count issuances: %v", err))
	}
	return count, nil
}
