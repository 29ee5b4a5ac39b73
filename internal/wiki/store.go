// Package wiki implements the tenant-scoped knowledge wiki store.
//
// It uses SQLite to persist entries (a tree of text nodes per tenant)
// and an append-only history log. Every committed text mutation is
// preceded by a full snapshot of the prior state, so any earlier version
// can be reconstructed by walking history backward.
package wiki

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrEntryNotFound is returned when an entry does not exist for the
// given (entryID, tenantID) or has been soft-deleted.
var ErrEntryNotFound = errors.New("knowledge entry not found")

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds wiki store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig returns the default configuration for the wiki store.
// WIKIMERGE_DATA_DIR overrides the location, otherwise ~/.wikimerge.
func DefaultConfig() Config {
	if dir := os.Getenv("WIKIMERGE_DATA_DIR"); dir != "" {
		return Config{DataDir: dir}
	}
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".wikimerge")}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the wiki persistence engine backed by SQLite.
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given configuration. It creates the
// data directory if needed, opens SQLite with WAL mode, and runs
// migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("wiki: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "wiki.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("wiki: open database: %w", err)
	}

	// SQLite performance pragmas
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("wiki: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("wiki: migration: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS entries (
			id          TEXT PRIMARY KEY,
			tenant_id   TEXT    NOT NULL,
			parent_id   TEXT,
			user_id     TEXT,
			title       TEXT    NOT NULL,
			text        TEXT    NOT NULL DEFAULT '',
			meta        TEXT,
			tenant_wide INTEGER NOT NULL DEFAULT 0,
			hidden      INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at  TEXT    NOT NULL DEFAULT (datetime('now')),
			deleted_at  TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_entries_tenant  ON entries(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_entries_parent  ON entries(parent_id, tenant_id, title);
		CREATE INDEX IF NOT EXISTS idx_entries_deleted ON entries(deleted_at);

		CREATE TABLE IF NOT EXISTS entry_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			entry_id    TEXT    NOT NULL,
			tenant_id   TEXT    NOT NULL,
			parent_id   TEXT,
			user_id     TEXT,
			title       TEXT    NOT NULL,
			text        TEXT    NOT NULL,
			meta        TEXT,
			tenant_wide INTEGER NOT NULL DEFAULT 0,
			hidden      INTEGER NOT NULL DEFAULT 0,
			saved_by    TEXT,
			created_at  TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (entry_id) REFERENCES entries(id)
		);

		CREATE INDEX IF NOT EXISTS idx_history_entry ON entry_history(entry_id, id DESC);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// ─── Entries ─────────────────────────────────────────────────────────────────

const entryColumns = `id, tenant_id, parent_id, user_id, title, text, meta,
	tenant_wide, hidden, created_at, updated_at, deleted_at`

func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	var e Entry
	if err := row.Scan(
		&e.ID, &e.TenantID, &e.ParentID, &e.UserID, &e.Title, &e.Text, &e.Meta,
		&e.TenantWide, &e.Hidden, &e.CreatedAt, &e.UpdatedAt, &e.DeletedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEntry creates a new wiki entry with a generated UUID.
func (s *Store) CreateEntry(p CreateEntryParams) (*Entry, error) {
	if p.TenantID == "" {
		return nil, fmt.Errorf("wiki: tenant_id is required")
	}
	if p.Title == "" {
		return nil, fmt.Errorf("wiki: title is required")
	}

	id := uuid.NewString()
	now := nowUTC()

	_, err := s.db.Exec(
		`INSERT INTO entries (id, tenant_id, parent_id, user_id, title, text, meta, tenant_wide, hidden, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.TenantID, nullableString(p.ParentID), nullableString(p.UserID),
		p.Title, p.Text, nullableString(p.Meta), p.TenantWide, p.Hidden, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("wiki: create entry: %w", err)
	}

	return s.GetEntry(id, p.TenantID)
}

// GetEntry retrieves an entry by ID scoped to a tenant, excluding
// soft-deleted rows. Returns ErrEntryNotFound when absent.
func (s *Store) GetEntry(entryID, tenantID string) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT `+entryColumns+`
		 FROM entries WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL`,
		entryID, tenantID,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("wiki: get entry: %w", err)
	}
	return e, nil
}

// GetText returns the current text of an entry.
func (s *Store) GetText(entryID, tenantID string) (string, error) {
	e, err := s.GetEntry(entryID, tenantID)
	if err != nil {
		return "", err
	}
	return e.Text, nil
}

// DeleteEntry soft-deletes an entry. History rows are kept.
func (s *Store) DeleteEntry(entryID, tenantID string) error {
	res, err := s.db.Exec(
		`UPDATE entries SET deleted_at = ?, updated_at = ?
		 WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL`,
		nowUTC(), nowUTC(), entryID, tenantID,
	)
	if err != nil {
		return fmt.Errorf("wiki: delete entry: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// ─── Versioned save ──────────────────────────────────────────────────────────

// SaveText commits new text for an entry. Inside a single transaction it
// loads the current row, appends a full snapshot of the pre-mutation
// state to entry_history, and only then overwrites the live text and
// update timestamp. For every committed mutation exactly one history row
// exists capturing the immediately-preceding state.
//
// SaveText decides nothing about the new content — composing the text is
// the batch runner's job; this is only the durable commit.
func (s *Store) SaveText(entryID, tenantID, userID, newText string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("wiki: begin save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRow(
		`SELECT `+entryColumns+`
		 FROM entries WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL`,
		entryID, tenantID,
	)
	current, err := scanEntry(row)
	if err == sql.ErrNoRows {
		// Fail before any write: no orphaned snapshots for missing entries.
		return ErrEntryNotFound
	}
	if err != nil {
		return fmt.Errorf("wiki: load entry: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO entry_history (entry_id, tenant_id, parent_id, user_id, title, text, meta, tenant_wide, hidden, saved_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		current.ID, current.TenantID, current.ParentID, current.UserID,
		current.Title, current.Text, current.Meta, current.TenantWide, current.Hidden,
		nullableString(userID), nowUTC(),
	); err != nil {
		return fmt.Errorf("wiki: write history snapshot: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE entries SET text = ?, updated_at = ? WHERE id = ?`,
		newText, nowUTC(), entryID,
	); err != nil {
		return fmt.Errorf("wiki: update entry text: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("wiki: commit save: %w", err)
	}
	return nil
}

// History returns snapshots for an entry, newest first.
func (s *Store) History(entryID, tenantID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, entry_id, tenant_id, parent_id, user_id, title, text, meta,
		        tenant_wide, hidden, saved_by, created_at
		 FROM entry_history
		 WHERE entry_id = ? AND tenant_id = ?
		 ORDER BY id DESC LIMIT ?`,
		entryID, tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("wiki: history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Snapshot
	for rows.Next() {
		var sn Snapshot
		if err := rows.Scan(
			&sn.ID, &sn.EntryID, &sn.TenantID, &sn.ParentID, &sn.UserID,
			&sn.Title, &sn.Text, &sn.Meta, &sn.TenantWide, &sn.Hidden,
			&sn.SavedBy, &sn.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sn)
	}
	return result, rows.Err()
}

// ─── Hierarchy ───────────────────────────────────────────────────────────────

// Children returns the direct children of an entry, sorted by title.
func (s *Store) Children(parentID, tenantID string) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryColumns+`
		 FROM entries
		 WHERE parent_id = ? AND tenant_id = ? AND deleted_at IS NULL
		 ORDER BY title ASC`,
		parentID, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("wiki: children: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

// FindChildByTitle looks up a direct child by its exact title.
// Returns ErrEntryNotFound when no such child exists.
func (s *Store) FindChildByTitle(parentID, title, tenantID string) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT `+entryColumns+`
		 FROM entries
		 WHERE parent_id = ? AND title = ? AND tenant_id = ? AND deleted_at IS NULL
		 LIMIT 1`,
		parentID, title, tenantID,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("wiki: find child: %w", err)
	}
	return e, nil
}

// EnsureEntry returns the child of parentID with the given title,
// creating it with the provided initial text when it does not exist.
func (s *Store) EnsureEntry(parentID, title, text, tenantID, userID string) (*Entry, error) {
	existing, err := s.FindChildByTitle(parentID, title, tenantID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrEntryNotFound) {
		return nil, err
	}

	return s.CreateEntry(CreateEntryParams{
		TenantID: tenantID,
		ParentID: parentID,
		UserID:   userID,
		Title:    title,
		Text:     text,
	})
}

// Tree returns the wiki structure rooted at an entry. A visited set
// guards against parent-pointer cycles in imported data.
func (s *Store) Tree(entryID, tenantID string) (*TreeNode, error) {
	root, err := s.GetEntry(entryID, tenantID)
	if err != nil {
		return nil, err
	}
	visited := map[string]bool{root.ID: true}
	node := TreeNode{ID: root.ID, Title: root.Title}
	if err := s.buildTree(&node, tenantID, visited); err != nil {
		return nil, err
	}
	return &node, nil
}

func (s *Store) buildTree(node *TreeNode, tenantID string, visited map[string]bool) error {
	children, err := s.Children(node.ID, tenantID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if visited[child.ID] {
			continue
		}
		visited[child.ID] = true
		cn := TreeNode{ID: child.ID, Title: child.Title}
		if err := s.buildTree(&cn, tenantID, visited); err != nil {
			return err
		}
		node.Children = append(node.Children, cn)
	}
	return nil
}

// BuildDocument renders an entry and all its descendants as a single
// markdown document: each entry contributes a "# title" heading followed
// by its text, parts joined by blank lines. Traversal is depth-first
// with children sorted by title.
func (s *Store) BuildDocument(entryID, tenantID string) (string, error) {
	root, err := s.GetEntry(entryID, tenantID)
	if err != nil {
		return "", err
	}

	var parts []string
	parts = append(parts, "# "+root.Title)
	if root.Text != "" {
		parts = append(parts, root.Text)
	}

	visited := map[string]bool{root.ID: true}
	if err := s.appendDescendants(root.ID, tenantID, visited, &parts); err != nil {
		return "", err
	}

	doc := ""
	for i, p := range parts {
		if i > 0 {
			doc += "\n\n"
		}
		doc += p
	}
	return doc, nil
}

func (s *Store) appendDescendants(parentID, tenantID string, visited map[string]bool, parts *[]string) error {
	children, err := s.Children(parentID, tenantID)
	if err != nil {
		return err
	}
	for _, child := range children {
		if visited[child.ID] {
			continue
		}
		visited[child.ID] = true
		*parts = append(*parts, "\n# "+child.Title)
		if child.Text != "" {
			*parts = append(*parts, child.Text)
		}
		if err := s.appendDescendants(child.ID, tenantID, visited, parts); err != nil {
			return err
		}
	}
	return nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate store statistics.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	_ = s.db.QueryRow("SELECT COUNT(*) FROM entries WHERE deleted_at IS NULL").Scan(&stats.TotalEntries)
	_ = s.db.QueryRow("SELECT COUNT(*) FROM entry_history").Scan(&stats.TotalSnapshots)

	rows, err := s.db.Query(
		"SELECT tenant_id FROM entries WHERE deleted_at IS NULL GROUP BY tenant_id ORDER BY MAX(updated_at) DESC",
	)
	if err != nil {
		return stats, nil
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var tenant string
		if err := rows.Scan(&tenant); err == nil {
			stats.Tenants = append(stats.Tenants, tenant)
		}
	}

	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// nullableString converts an empty string to a NULL-able value.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
