package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	mu  sync.RWMutex
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (or creates) a SQLite-backed history.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	// The trigram tokenizer matches inside CJK runs, which have no spaces.
	schema := `
	CREATE TABLE IF NOT EXISTS renders (
		id         TEXT PRIMARY KEY,
		content    TEXT NOT NULL,
		template   TEXT NOT NULL DEFAULT '',
		confidence REAL NOT NULL DEFAULT 0,
		score      REAL NOT NULL DEFAULT 0,
		valid      INTEGER NOT NULL DEFAULT 0,
		success    INTEGER NOT NULL DEFAULT 0,
		error      TEXT NOT NULL DEFAULT '',
		repairs    INTEGER NOT NULL DEFAULT 0,
		language   TEXT NOT NULL DEFAULT '',
		render_ms  REAL NOT NULL DEFAULT 0,
		source     TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS renders_created ON renders(created_at);
	CREATE VIRTUAL TABLE IF NOT EXISTS renders_fts USING fts5(
		content, template, content='renders', content_rowid='rowid', tokenize='trigram'
	);
	CREATE TRIGGER IF NOT EXISTS renders_ai AFTER INSERT ON renders BEGIN
		INSERT INTO renders_fts(rowid, content, template) VALUES (new.rowid, new.content, new.template);
	END;
	CREATE TRIGGER IF NOT EXISTS renders_ad AFTER DELETE ON renders BEGIN
		INSERT INTO renders_fts(renders_fts, rowid, content, template) VALUES ('delete', old.rowid, old.content, old.template);
	END;
	CREATE TRIGGER IF NOT EXISTS renders_au AFTER UPDATE ON renders BEGIN
		INSERT INTO renders_fts(renders_fts, rowid, content, template) VALUES ('delete', old.rowid, old.content, old.template);
		INSERT INTO renders_fts(rowid, content, template) VALUES (new.rowid, new.content, new.template);
	END;`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

var _ Store = (*SQLiteStore)(nil)

// timeLayout has fixed-width fractions so timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const columns = "id, content, template, confidence, score, valid, success, error, repairs, language, render_ms, source, created_at"

// Save stores an entry, replacing any entry with the same ID.
func (s *SQLiteStore) Save(ctx context.Context, e Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO renders (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			content = excluded.content,
			template = excluded.template,
			confidence = excluded.confidence,
			score = excluded.score,
			valid = excluded.valid,
			success = excluded.success,
			error = excluded.error,
			repairs = excluded.repairs,
			language = excluded.language,
			render_ms = excluded.render_ms,
			source = excluded.source`,
		e.ID, e.Content, e.Template, e.Confidence, e.Score, e.Valid, e.Success,
		e.Error, e.Repairs, e.Language, e.RenderMS, e.Source,
		e.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return "", fmt.Errorf("save %q: %w", e.ID, err)
	}
	return e.ID, nil
}

// Get retrieves an entry by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM renders WHERE id = ?", id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", id, err)
	}
	return &e, nil
}

// Recent returns up to limit entries, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+columns+" FROM renders ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	return collect(rows)
}

// Search matches query terms against content and template name. Terms of
// three or more characters go through the full-text index; shorter ones
// fall back to a substring scan.
func (s *SQLiteStore) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return nil, nil
	}

	short := false
	quoted := make([]string, len(terms))
	for i, t := range terms {
		if utf8.RuneCountInString(t) < 3 {
			short = true
		}
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}

	var (
		rows *sql.Rows
		err  error
	)
	if short {
		where := make([]string, len(terms))
		args := make([]any, 0, 2*len(terms)+1)
		for i, t := range terms {
			where[i] = "(content LIKE ? ESCAPE '\\' OR template LIKE ? ESCAPE '\\')"
			pat := "%" + escapeLike(t) + "%"
			args = append(args, pat, pat)
		}
		args = append(args, limit)
		rows, err = s.db.QueryContext(ctx,
			"SELECT "+columns+" FROM renders WHERE "+strings.Join(where, " OR ")+
				" ORDER BY created_at DESC LIMIT ?", args...)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+prefixed("r.")+`
			FROM renders_fts f
			JOIN renders r ON r.rowid = f.rowid
			WHERE renders_fts MATCH ?
			ORDER BY rank
			LIMIT ?`,
			strings.Join(quoted, " OR "), limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return collect(rows)
}

// CountByTemplate groups successful renders by template name.
func (s *SQLiteStore) CountByTemplate(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT template, COUNT(*) FROM renders WHERE success = 1 AND template != '' GROUP BY template")
	if err != nil {
		return nil, fmt.Errorf("count by template: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts[name] = n
	}
	return counts, rows.Err()
}

// Count returns the total number of stored entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM renders").Scan(&count)
	return count, err
}

// Close shuts down the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (Entry, error) {
	var e Entry
	var createdAt string
	err := sc.Scan(&e.ID, &e.Content, &e.Template, &e.Confidence, &e.Score, &e.Valid, &e.Success,
		&e.Error, &e.Repairs, &e.Language, &e.RenderMS, &e.Source, &createdAt)
	if err != nil {
		return e, err
	}
	e.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return e, nil
}

func collect(rows *sql.Rows) ([]Entry, error) {
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func prefixed(p string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = p + c
	}
	return strings.Join(cols, ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
