// Package memory implements the persistent entry store for Lumen.
//
// Each entry is written twice: a canonical JSON document under
// entries/YYYY/MM/<id>.json, and an index row in SQLite (with an FTS5
// mirror and a tag membership table) that search runs against. Reads go
// through the index to find ids and then load the JSON document.
package memory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds memory store configuration.
type Config struct {
	DataDir            string
	DefaultSearchLimit int
	MaxSearchResults   int
	MaxScanEntries     int
	// CacheEntries bounds the blob read cache; 0 disables it.
	CacheEntries int64
	Logger       *log.Logger
	// Now overrides the clock used for timestamps.
	Now func() time.Time
}

// DefaultConfig returns the default configuration for the memory store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:            filepath.Join(home, ".lumen"),
		DefaultSearchLimit: 5,
		MaxSearchResults:   50,
		MaxScanEntries:     1000,
		CacheEntries:       1024,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the entry store backed by SQLite + FTS5 and a JSON blob tree.
type Store struct {
	db    *sql.DB
	cfg   Config
	blobs *BlobStore
	log   *log.Logger
	now   func() time.Time
	hooks storeHooks

	// updateMu serializes the read-modify-write of Update so the index
	// row and the document always agree on the last writer.
	updateMu sync.Mutex
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type sqlRowScanner struct {
	rows *sql.Rows
}

func (r sqlRowScanner) Next() bool             { return r.rows.Next() }
func (r sqlRowScanner) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r sqlRowScanner) Err() error             { return r.rows.Err() }
func (r sqlRowScanner) Close() error           { return r.rows.Close() }

// storeHooks lets tests force failures on individual statements.
type storeHooks struct {
	exec    func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error)
	queryIt func(ctx context.Context, db queryer, query string, args ...any) (rowScanner, error)
	beginTx func(ctx context.Context, db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func (s *Store) execHook(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(ctx, db, query, args...)
	}
	return db.ExecContext(ctx, query, args...)
}

func (s *Store) queryItHook(ctx context.Context, db queryer, query string, args ...any) (rowScanner, error) {
	if s.hooks.queryIt != nil {
		return s.hooks.queryIt(ctx, db, query, args...)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRowScanner{rows: rows}, nil
}

func (s *Store) beginTxHook(ctx context.Context) (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(ctx, s.db)
	}
	return s.db.BeginTx(ctx, nil)
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode,
// runs migrations and prepares the blob tree.
func New(cfg Config) (*Store, error) {
	cfg = withDefaults(cfg)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "memory.db")
	db, err := openDB("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: open database: %w", err)
	}

	blobs, err := NewBlobStore(filepath.Join(cfg.DataDir, "entries"), cfg.CacheEntries)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: blob store: %w", err)
	}

	s := &Store{
		db:    db,
		cfg:   cfg,
		blobs: blobs,
		log:   cfg.Logger,
		now:   cfg.Now,
	}
	if err := s.migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}

	return s, nil
}

// connPragmas are applied by the driver to every pooled connection.
var connPragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
}

// dsn builds the modernc connection string. Transactions begin IMMEDIATE
// so a writer takes the lock up front instead of failing on upgrade.
func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.DefaultSearchLimit <= 0 {
		cfg.DefaultSearchLimit = def.DefaultSearchLimit
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = def.MaxSearchResults
	}
	if cfg.MaxScanEntries <= 0 {
		cfg.MaxScanEntries = def.MaxScanEntries
	}
	if cfg.CacheEntries < 0 {
		cfg.CacheEntries = 0
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Now == nil {
		cfg.Now = timeNow
	}
	return cfg
}

// Close releases the database connection and the blob cache.
func (s *Store) Close() error {
	s.blobs.Close()
	return s.db.Close()
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// DataDir returns the directory holding the database and blob tree.
func (s *Store) DataDir() string {
	return s.cfg.DataDir
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS memories (
			id               TEXT PRIMARY KEY,
			created_at       TEXT    NOT NULL,
			updated_at       TEXT    NOT NULL,
			category         TEXT    NOT NULL,
			tags             TEXT,
			title            TEXT    NOT NULL,
			content          TEXT    NOT NULL,
			project          TEXT,
			importance       INTEGER NOT NULL,
			archived         INTEGER NOT NULL DEFAULT 0,
			source_type      TEXT    NOT NULL,
			source_timestamp TEXT    NOT NULL,
			entry_path       TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_category   ON memories(category);
		CREATE INDEX IF NOT EXISTS idx_project    ON memories(project);
		CREATE INDEX IF NOT EXISTS idx_created_at ON memories(created_at);

		CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
			id UNINDEXED,
			title,
			content,
			category,
			project
		);

		CREATE TABLE IF NOT EXISTS projects (
			id           TEXT PRIMARY KEY,
			name         TEXT NOT NULL UNIQUE,
			description  TEXT,
			baseline_doc TEXT,
			status       TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_project_status ON projects(status);

		CREATE TABLE IF NOT EXISTS memory_tags (
			memory_id TEXT NOT NULL,
			tag       TEXT NOT NULL,
			PRIMARY KEY (memory_id, tag),
			FOREIGN KEY (memory_id) REFERENCES memories(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_tag ON memory_tags(tag);
	`
	if _, err := s.execHook(ctx, s.db, schema); err != nil {
		return err
	}

	// Keep the FTS mirror in sync with the index rows (idempotent).
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='memories_fts_insert'",
	).Scan(&name)

	if err == sql.ErrNoRows {
		triggers := `
			CREATE TRIGGER memories_fts_insert AFTER INSERT ON memories BEGIN
				INSERT INTO memories_fts(id, title, content, category, project)
				VALUES (new.id, new.title, new.content, new.category, new.project);
			END;

			CREATE TRIGGER memories_fts_delete AFTER DELETE ON memories BEGIN
				DELETE FROM memories_fts WHERE id = old.id;
			END;

			CREATE TRIGGER memories_fts_update AFTER UPDATE OF title, content, category, project ON memories BEGIN
				DELETE FROM memories_fts WHERE id = old.id;
				INSERT INTO memories_fts(id, title, content, category, project)
				VALUES (new.id, new.title, new.content, new.category, new.project);
			END;
		`
		if _, err := s.execHook(ctx, s.db, triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return s.migrateLegacyTags(ctx)
}

// migrateLegacyTags backfills memory_tags from the JSON tags column for
// databases written before the membership table existed.
func (s *Store) migrateLegacyTags(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM memory_tags").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	rows, err := s.queryItHook(ctx, s.db,
		`SELECT id, tags FROM memories WHERE tags IS NOT NULL AND tags != '' AND tags != '[]'`)
	if err != nil {
		return err
	}
	type legacy struct {
		id   string
		tags []string
	}
	var pending []legacy
	for rows.Next() {
		var id string
		var raw sql.NullString
		if err := rows.Scan(&id, &raw); err != nil {
			_ = rows.Close()
			return err
		}
		tags, err := decodeTags(raw.String)
		if err != nil {
			s.log.Warn("skipping unreadable legacy tags", "id", id, "err", err)
			continue
		}
		pending = append(pending, legacy{id: id, tags: tags})
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, p := range pending {
		for _, tag := range p.tags {
			// best-effort migration cleanup
			_, _ = s.execHook(ctx, s.db,
				"INSERT OR IGNORE INTO memory_tags (memory_id, tag) VALUES (?, ?)", p.id, tag)
		}
	}
	return nil
}
