// Package store persists analyzed documents in a SQLite database.
//
// Each row keeps a summary of the document in plain columns and the full
// document as xz-compressed JSON. Documents are deduplicated by source hash
// and resolved notation system, so saving the same analysis twice returns
// the existing ID.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/musictext/core/errors"
	"github.com/FocuswithJustin/musictext/core/notation"
	"github.com/FocuswithJustin/musictext/core/score"
	"github.com/FocuswithJustin/musictext/core/sqlite"
	"github.com/FocuswithJustin/musictext/internal/logging"
)

// Injectable functions for testing.
var (
	xzNewWriter = xz.NewWriter
	xzNewReader = xz.NewReader
	jsonMarshal = json.Marshal
	newID       = uuid.NewString
	now         = time.Now
)

// DefaultListLimit is used by List when limit is not positive.
const DefaultListLimit = 50

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	hash       TEXT NOT NULL,
	system     TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	staves     INTEGER NOT NULL,
	failures   INTEGER NOT NULL,
	warnings   INTEGER NOT NULL,
	size       INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	source     BLOB NOT NULL,
	payload    BLOB NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_hash ON documents(hash, system);
CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at);
`

// Summary describes a stored document without its payload.
type Summary struct {
	ID        string          `json:"id"`
	Hash      string          `json:"hash"`
	System    notation.System `json:"system"`
	Title     string          `json:"title,omitempty"`
	Staves    int             `json:"staves"`
	Failures  int             `json:"failures"`
	Warnings  int             `json:"warnings"`
	Size      int64           `json:"size"`
	CreatedAt time.Time       `json:"created_at"`
}

// Record is a stored document together with the text it was parsed from.
type Record struct {
	Summary
	Source   string          `json:"source"`
	Document *score.Document `json:"document"`
}

// Store is a SQLite-backed document store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at path. Use ":memory:" for a transient
// store.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("migrate", path, err)
	}
	logging.StoreEvent("open", path, "driver", sqlite.DriverType())
	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing store without write access. A missing file
// is reported as a NotFoundError.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("store", path)
		}
		return nil, errors.NewIO("stat", path, err)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open %s read-only", path)
	}
	logging.StoreEvent("open_readonly", path, "driver", sqlite.DriverType())
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Save stores doc and the source text it was parsed from, returning the
// document's ID. If a document with the same hash and system already exists
// its ID is returned and nothing is written. doc is not modified.
func (s *Store) Save(ctx context.Context, doc *score.Document, source string) (string, error) {
	if doc == nil {
		return "", errors.NewValidation("document", "must not be nil")
	}
	if id, err := s.lookup(ctx, doc.Hash, doc.System); err == nil {
		logging.StoreEvent("save_dedupe", id)
		return id, nil
	} else if !errors.Is(err, errors.ErrNotFound) {
		return "", err
	}

	id := newID()
	stored := *doc
	stored.ID = id
	data, err := jsonMarshal(&stored)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	payload, err := Compress(data)
	if err != nil {
		return "", err
	}
	src, err := Compress([]byte(source))
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, hash, system, title, staves, failures, warnings, size, created_at, source, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, doc.Hash, doc.System.String(), doc.Title,
		len(doc.Staves), len(doc.Failures), len(doc.AllWarnings()),
		int64(len(data)), now().UnixNano(), src, payload)
	if err != nil {
		return "", errors.NewIO("save", id, err)
	}
	logging.StoreEvent("save", id, "hash", doc.Hash, "bytes", len(payload))
	return id, nil
}

func (s *Store) lookup(ctx context.Context, hash string, system notation.System) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE hash = ? AND system = ?`, hash, system.String()).Scan(&id)
	if err == sql.ErrNoRows {
		return "", errors.NewNotFound("document", hash)
	}
	if err != nil {
		return "", errors.NewIO("lookup", hash, err)
	}
	return id, nil
}

// Get loads the document with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, hash, system, title, staves, failures, warnings, size, created_at, source, payload
		 FROM documents WHERE id = ?`, id)

	var (
		rec     Record
		src     []byte
		payload []byte
	)
	err := scanSummary(row, &rec.Summary, &src, &payload)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document", id)
	}
	if err != nil {
		return nil, errors.NewIO("get", id, err)
	}

	data, err := Decompress(payload)
	if err != nil {
		return nil, errors.NewParse("xz", id, err.Error())
	}
	rec.Document = &score.Document{}
	if err := json.Unmarshal(data, rec.Document); err != nil {
		return nil, errors.NewParse("json", id, err.Error())
	}
	text, err := Decompress(src)
	if err != nil {
		return nil, errors.NewParse("xz", id, err.Error())
	}
	rec.Source = string(text)
	logging.StoreEvent("get", id)
	return &rec, nil
}

// Payload returns the stored JSON of a document, still xz-compressed.
func (s *Store) Payload(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM documents WHERE id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document", id)
	}
	if err != nil {
		return nil, errors.NewIO("payload", id, err)
	}
	return payload, nil
}

// List returns up to limit summaries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hash, system, title, staves, failures, warnings, size, created_at
		 FROM documents ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, errors.NewIO("list", s.path, err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := scanSummary(rows, &sum); err != nil {
			return nil, errors.NewIO("list", s.path, err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("list", s.path, err)
	}
	return summaries, nil
}

// Delete removes the document with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return errors.NewIO("delete", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.NewIO("delete", id, err)
	}
	if n == 0 {
		return errors.NewNotFound("document", id)
	}
	logging.StoreEvent("delete", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner, sum *Summary, extra ...any) error {
	var (
		system  string
		created int64
	)
	dest := []any{&sum.ID, &sum.Hash, &system, &sum.Title, &sum.Staves, &sum.Failures, &sum.Warnings, &sum.Size, &created}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	sum.System = notation.System(system)
	sum.CreatedAt = time.Unix(0, created).UTC()
	return nil
}

// Compress returns data compressed with xz.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xzNewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create xz writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	r, err := xzNewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create xz reader: %w", err)
	}
	return io.ReadAll(r)
}
