package templatestore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/mattn/go-sqlite3"

	"github.com/macropower/draftkit/pkg/drafterrors"
	"github.com/macropower/draftkit/pkg/pathutil"
)

// Kind is the template category.
type Kind string

const (
	KindCatalog Kind = "catalog"
	KindBorder  Kind = "border"
)

// Kinds lists every [Kind].
var Kinds = []Kind{KindCatalog, KindBorder}

// DrawingExt is the extension of template files.
const DrawingExt = ".dwg"

var (
	// ErrTemplateNotFound indicates no template is stored under a kind and name.
	ErrTemplateNotFound = fmt.Errorf("template %w", drafterrors.ErrNotFound)

	// ErrTemplateExists indicates a template is already stored under a kind and name.
	ErrTemplateExists = errors.New("template already exists")

	// ErrInvalidKind indicates an unknown template kind.
	ErrInvalidKind = errors.New("invalid template kind")

	// ErrInvalidName indicates a template name that cannot be used as a file name.
	ErrInvalidName = errors.New("invalid template name")

	// ErrCorrupt indicates stored data does not match its checksum.
	ErrCorrupt = errors.New("template data corrupt")
)

// ParseKind returns the [Kind] named s.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Template describes a stored template.
type Template struct {
	UpdatedAt time.Time
	Kind      Kind
	Name      string
	SHA256    string
	Size      int64
}

// Store is a SQLite-backed template store.
type Store struct {
	db     *sql.DB
	paths  *pathutil.TempPaths
	logger *slog.Logger
	mu     sync.RWMutex
}

// Option configures a [Store].
type Option func(*Store)

// WithTempPaths sets where [Store.Materialize] writes files.
func WithTempPaths(p *pathutil.TempPaths) Option {
	return func(s *Store) {
		s.paths = p
	}
}

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.paths == nil {
		s.paths = pathutil.NewTempPaths("")
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS templates (
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		data BLOB NOT NULL,
		sha256 TEXT NOT NULL,
		size INTEGER NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (kind, name)
	);
	`)

	return err
}

// Close closes the database and removes materialized files.
func (s *Store) Close() error {
	cleanupErr := s.paths.RemoveAll()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	if cleanupErr != nil {
		return fmt.Errorf("remove materialized templates: %w", cleanupErr)
	}

	return nil
}

// Put stores the contents of r as a template. An existing template is
// replaced only when overwrite is set; otherwise Put returns
// [ErrTemplateExists].
func (s *Store) Put(ctx context.Context, kind Kind, name string, r io.Reader, overwrite bool) (Template, error) {
	if err := validate(kind, name); err != nil {
		return Template{}, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return Template{}, fmt.Errorf("read template: %w", err)
	}

	sum := sha256.Sum256(raw)
	t := Template{
		Kind:      kind,
		Name:      name,
		SHA256:    hex.EncodeToString(sum[:]),
		Size:      int64(len(raw)),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}

	data, err := compress(raw)
	if err != nil {
		return Template{}, err
	}

	query := `INSERT INTO templates (kind, name, data, sha256, size, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	if overwrite {
		query += ` ON CONFLICT (kind, name) DO UPDATE SET
			data = excluded.data, sha256 = excluded.sha256,
			size = excluded.size, updated_at = excluded.updated_at`
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, query, string(t.Kind), t.Name, data, t.SHA256, t.Size, t.UpdatedAt)
	if err != nil {
		var sqErr sqlite3.Error
		if errors.As(err, &sqErr) && sqErr.Code == sqlite3.ErrConstraint {
			return Template{}, fmt.Errorf("%w: %s/%s", ErrTemplateExists, kind, name)
		}

		return Template{}, fmt.Errorf("store template: %w", err)
	}

	s.logger.Debug("stored template",
		slog.String("kind", string(kind)),
		slog.String("name", name),
		slog.Int64("size", t.Size),
	)

	return t, nil
}

// Get returns the template's original bytes.
func (s *Store) Get(ctx context.Context, kind Kind, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		data []byte
		sum  string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT data, sha256 FROM templates WHERE kind = ? AND name = ?`,
		string(kind), name,
	).Scan(&data, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, kind, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}

	raw, err := decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrCorrupt, kind, name, err)
	}

	got := sha256.Sum256(raw)
	if hex.EncodeToString(got[:]) != sum {
		return nil, fmt.Errorf("%w: %s/%s: checksum mismatch", ErrCorrupt, kind, name)
	}

	return raw, nil
}

// List returns the templates of a kind, or of every kind when kind is
// empty, ordered by kind and name.
func (s *Store) List(ctx context.Context, kind Kind) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT kind, name, sha256, size, updated_at FROM templates`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY kind, name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var (
			t Template
			k string
		)
		if err := rows.Scan(&k, &t.Name, &t.SHA256, &t.Size, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Kind = Kind(k)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	return out, nil
}

// Delete removes a template.
func (s *Store) Delete(ctx context.Context, kind Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE kind = ? AND name = ?`, string(kind), name)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrTemplateNotFound, kind, name)
	}

	return nil
}

func validate(kind Kind, name string) error {
	if _, err := ParseKind(string(kind)); err != nil {
		return err
	}

	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\:*?"<>|`) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return nil
}

func compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("compress template: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress template: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress template: %w", err)
	}

	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return io.ReadAll(zr)
}
