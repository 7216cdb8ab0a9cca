package engine

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// currentSchemaVersion is the latest capsule schema version.
// Bump this when adding migrations.
const currentSchemaVersion = 1

// openDB opens the capsule database file. With create false, the file must
// already exist; the engine never creates capsules implicitly.
func openDB(path string, create bool) (*sql.DB, error) {
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("capsule file missing: %w", err)
		}
	}

	// Pragmas in the connection string apply to all pooled connections.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open capsule database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Restrict permissions once the file exists (best-effort).
	_ = os.Chmod(path, 0600)

	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS memories (
		  id              TEXT PRIMARY KEY,
		  title           TEXT,
		  content         TEXT NOT NULL,
		  preview         TEXT NOT NULL,
		  tags_json       TEXT,
		  metadata_json   TEXT,
		  embedding       BLOB,
		  embedding_model TEXT,
		  created_at      INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_memories_created
		ON memories(created_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		  title, content,
		  content='memories', content_rowid='rowid'
		);

		CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
		  INSERT INTO memories_fts(rowid, title, content)
		  VALUES (new.rowid, new.title, new.content);
		END;

		CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
		  INSERT INTO memories_fts(memories_fts, rowid, title, content)
		  VALUES ('delete', old.rowid, old.title, old.content);
		END;
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// getUserVersion returns the current schema version (user_version pragma).
func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// setUserVersion sets the schema version (user_version pragma).
func setUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
