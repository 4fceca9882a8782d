package workspace

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/scopeflow/scopeflow/pkgs/errors"
)

// Store keeps saved workspaces in a SQLite database, keyed by name.
type Store struct {
	db *sql.DB
}

// Entry is one row of a workspace listing.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Open opens (creating if needed) the workspace database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, errors.Wrap(errors.ErrWorkspaceStore, fmt.Sprintf("open workspace database %q", path), err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrWorkspaceStore, "migrate workspace database", err)
	}
	return store, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workspaces (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		document TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_workspaces_updated ON workspaces(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a document under its name, replacing any previous version.
func (s *Store) Save(doc *Document) error {
	if doc.Name == "" {
		return errors.New(errors.ErrWorkspaceStore, "workspace name must not be empty")
	}
	data, err := EncodeDocument(doc)
	if err != nil {
		return errors.Wrap(errors.ErrWorkspaceStore, fmt.Sprintf("encode workspace %q", doc.Name), err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO workspaces (id, name, document, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		uuid.NewString(), doc.Name, string(data), now, now,
	)
	if err != nil {
		return errors.Wrap(errors.ErrWorkspaceStore, fmt.Sprintf("save workspace %q", doc.Name), err)
	}
	return nil
}

// Load retrieves a document by name. Decode warnings pass through.
func (s *Store) Load(name string) (*Document, []string, error) {
	var raw string
	err := s.db.QueryRow(`SELECT document FROM workspaces WHERE name = ?`, name).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil, errors.New(errors.ErrWorkspaceNotFound,
			fmt.Sprintf("no workspace named %q", name)).WithContext("name", name)
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrWorkspaceStore, fmt.Sprintf("load workspace %q", name), err)
	}

	doc, warnings, err := DecodeDocument([]byte(raw))
	if err != nil {
		return nil, nil, err
	}
	if doc.Name == "" {
		doc.Name = name
	}
	return doc, warnings, nil
}

// List returns all saved workspaces, most recently updated first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(`SELECT id, name, updated_at FROM workspaces ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrWorkspaceStore, "list workspaces", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.UpdatedAt); err != nil {
			return nil, errors.Wrap(errors.ErrWorkspaceStore, "scan workspace row", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes a workspace by name.
func (s *Store) Delete(name string) error {
	res, err := s.db.Exec(`DELETE FROM workspaces WHERE name = ?`, name)
	if err != nil {
		return errors.Wrap(errors.ErrWorkspaceStore, fmt.Sprintf("delete workspace %q", name), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New(errors.ErrWorkspaceNotFound,
			fmt.Sprintf("no workspace named %q", name)).WithContext("name", name)
	}
	return nil
}
