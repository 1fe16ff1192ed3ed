// Package sqlstore keeps a content repository in a SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/fulmenhq/janitor/internal/contentrepo"
	"github.com/fulmenhq/janitor/pkg/logger"
)

// Driver is the name the store registers under.
const Driver = "sqlite"

// schemaVersion is bumped whenever the schema below changes.
const schemaVersion = 1

func init() {
	contentrepo.RegisterDriver(Driver, func(path string) (contentrepo.Store, error) {
		return Open(path)
	})
}

// Store is a contentrepo.Store backed by SQLite.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the database at path. An empty path opens a private
// in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path == "" {
		dsn = ":memory:"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open content database: %w", err)
	}
	// One connection: SQLite serializes writers and :memory: is per connection.
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{conn: conn, path: path}
	if err := s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize content schema: %w", err)
	}
	logger.Debug("Opened content database", logger.String("path", dsn))
	return s, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS workspaces (
			position INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			base TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS sites (
			position INTEGER PRIMARY KEY AUTOINCREMENT,
			node_name TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			package_key TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS nodes (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			identifier TEXT NOT NULL,
			workspace TEXT NOT NULL,
			dimensions_hash TEXT NOT NULL,
			path TEXT NOT NULL,
			node_type TEXT NOT NULL,
			dimensions TEXT,
			properties TEXT,
			sort_index INTEGER NOT NULL DEFAULT 0,
			removed INTEGER NOT NULL DEFAULT 0,
			UNIQUE (identifier, workspace, dimensions_hash)
		);
		CREATE INDEX IF NOT EXISTS idx_nodes_workspace ON nodes(workspace);
		CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(node_type);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return err
	}
	_, err := s.conn.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", schemaVersion)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Workspaces implements contentrepo.Store.
func (s *Store) Workspaces(ctx context.Context) ([]contentrepo.Workspace, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT name, base, title FROM workspaces ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []contentrepo.Workspace
	for rows.Next() {
		var ws contentrepo.Workspace
		if err := rows.Scan(&ws.Name, &ws.Base, &ws.Title); err != nil {
			return nil, err
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

// Workspace implements contentrepo.Store.
func (s *Store) Workspace(ctx context.Context, name string) (contentrepo.Workspace, error) {
	ws := contentrepo.Workspace{Name: name}
	err := s.conn.QueryRowContext(ctx, "SELECT base, title FROM workspaces WHERE name = ?", name).Scan(&ws.Base, &ws.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return contentrepo.Workspace{}, fmt.Errorf("%w: %s", contentrepo.ErrWorkspaceNotFound, name)
	}
	if err != nil {
		return contentrepo.Workspace{}, fmt.Errorf("failed to get workspace: %w", err)
	}
	return ws, nil
}

// NodeRecords implements contentrepo.Store.
func (s *Store) NodeRecords(ctx context.Context, workspaces []string) ([]contentrepo.NodeRecord, error) {
	if len(workspaces) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(workspaces)), ",")
	args := make([]interface{}, len(workspaces))
	for i, ws := range workspaces {
		args[i] = ws
	}

	// #nosec G202 - only placeholders are concatenated
	query := `
		SELECT identifier, workspace, path, node_type, dimensions, properties, sort_index, removed
		FROM nodes WHERE workspace IN (` + placeholders + `) ORDER BY seq`
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []contentrepo.NodeRecord
	for rows.Next() {
		var (
			rec        contentrepo.NodeRecord
			dims, prop sql.NullString
			removed    int
		)
		if err := rows.Scan(&rec.Identifier, &rec.Workspace, &rec.Path, &rec.NodeType, &dims, &prop, &rec.Index, &removed); err != nil {
			return nil, err
		}
		if dims.Valid && dims.String != "" {
			if err := json.Unmarshal([]byte(dims.String), &rec.Dimensions); err != nil {
				return nil, fmt.Errorf("node %s: decoding dimensions: %w", rec.Identifier, err)
			}
		}
		if prop.Valid && prop.String != "" {
			if err := json.Unmarshal([]byte(prop.String), &rec.Properties); err != nil {
				return nil, fmt.Errorf("node %s: decoding properties: %w", rec.Identifier, err)
			}
		}
		rec.Removed = removed != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Sites implements contentrepo.Store.
func (s *Store) Sites(ctx context.Context) ([]contentrepo.Site, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT node_name, name, package_key FROM sites ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []contentrepo.Site
	for rows.Next() {
		var site contentrepo.Site
		if err := rows.Scan(&site.NodeName, &site.Name, &site.PackageKey); err != nil {
			return nil, err
		}
		out = append(out, site)
	}
	return out, rows.Err()
}

// Site implements contentrepo.Store.
func (s *Store) Site(ctx context.Context, nodeName string) (contentrepo.Site, error) {
	site := contentrepo.Site{NodeName: nodeName}
	err := s.conn.QueryRowContext(ctx, "SELECT name, package_key FROM sites WHERE node_name = ?", nodeName).Scan(&site.Name, &site.PackageKey)
	if errors.Is(err, sql.ErrNoRows) {
		return contentrepo.Site{}, fmt.Errorf("%w: %s", contentrepo.ErrSiteNotFound, nodeName)
	}
	if err != nil {
		return contentrepo.Site{}, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

// AddWorkspace implements contentrepo.Store.
func (s *Store) AddWorkspace(ctx context.Context, ws contentrepo.Workspace) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO workspaces (name, base, title) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET base = excluded.base, title = excluded.title`,
		ws.Name, ws.Base, ws.Title)
	if err != nil {
		return fmt.Errorf("failed to add workspace: %w", err)
	}
	return nil
}

// AddSite implements contentrepo.Store.
func (s *Store) AddSite(ctx context.Context, site contentrepo.Site) error {
	if _, err := s.Site(ctx, site.NodeName); err == nil {
		return fmt.Errorf("%w: %s", contentrepo.ErrSiteExists, site.NodeName)
	}
	_, err := s.conn.ExecContext(ctx, "INSERT INTO sites (node_name, name, package_key) VALUES (?, ?, ?)",
		site.NodeName, site.Name, site.PackageKey)
	if err != nil {
		return fmt.Errorf("failed to add site: %w", err)
	}
	return nil
}

// PutNodes implements contentrepo.Store. All records are written in one
// transaction.
func (s *Store) PutNodes(ctx context.Context, records []contentrepo.NodeRecord) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (identifier, workspace, dimensions_hash, path, node_type, dimensions, properties, sort_index, removed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier, workspace, dimensions_hash) DO UPDATE SET
			path = excluded.path,
			node_type = excluded.node_type,
			dimensions = excluded.dimensions,
			properties = excluded.properties,
			sort_index = excluded.sort_index,
			removed = excluded.removed`)
	if err != nil {
		return fmt.Errorf("failed to prepare node upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		dims, err := encodeJSON(rec.Dimensions)
		if err != nil {
			return fmt.Errorf("node %s: encoding dimensions: %w", rec.Identifier, err)
		}
		props, err := encodeJSON(rec.Properties)
		if err != nil {
			return fmt.Errorf("node %s: encoding properties: %w", rec.Identifier, err)
		}
		removed := 0
		if rec.Removed {
			removed = 1
		}
		if _, err := stmt.ExecContext(ctx, rec.Identifier, rec.Workspace, rec.DimensionsHash(),
			rec.Path, rec.NodeType, dims, props, rec.Index, removed); err != nil {
			return fmt.Errorf("failed to store node %s: %w", rec.Identifier, err)
		}
	}
	return tx.Commit()
}

func encodeJSON[T any](v map[string]T) (sql.NullString, error) {
	if len(v) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
