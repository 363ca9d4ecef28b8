package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lachiem1/giddycycles/internal/auth"
)

type Mode string

const (
	ModeSecure Mode = "secure"
	ModePlain  Mode = "plain"
)

const schemaVersion = 3

type Config struct {
	Mode Mode
	Path string
}

// Open opens (creating if needed) the local database and brings its schema up
// to date. Secure mode needs a sqlcipher build and a key in the keyring; a key
// is generated on first use.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Mode {
	case ModePlain:
		db, err = openPlainSQLite(cfg.Path)
	case ModeSecure, "":
		db, err = openSecure(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown db mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func openSecure(path string) (*sql.DB, error) {
	if !secureSQLiteSupported() {
		return nil, fmt.Errorf(
			"secure mode requires a sqlcipher-enabled build; rebuild with '-tags sqlcipher'",
		)
	}

	key, created, err := ensureDBKey()
	if err != nil {
		return nil, fmt.Errorf("ensure secure db key: %w", err)
	}
	if created {
		exists, err := hasLocalDBFiles(path)
		if err != nil {
			return nil, fmt.Errorf("inspect local db files: %w", err)
		}
		// Files written under a lost key can never be opened again.
		if exists {
			if err := resetLocalDBFiles(path); err != nil {
				return nil, fmt.Errorf("reset db after key creation: %w", err)
			}
		}
	}
	return openSecureSQLite(path, key)
}

// Wipe removes local database files for the configured path.
func Wipe(cfg Config) error {
	if err := resetLocalDBFiles(cfg.Path); err != nil {
		return fmt.Errorf("wipe local db files: %w", err)
	}
	return nil
}

func ensureDBKey() (key string, created bool, err error) {
	key, err = auth.LoadDBKey()
	if err == nil && strings.TrimSpace(key) != "" {
		return key, false, nil
	}

	newKey, err := generateRandomKey()
	if err != nil {
		return "", false, err
	}

	if err := auth.SaveDBKey(newKey); err != nil {
		return "", false, err
	}
	return newKey, true, nil
}

func generateRandomKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	const bootstrapSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  version INTEGER NOT NULL
);

INSERT OR IGNORE INTO schema_migrations (id, version) VALUES (1, 1);
`
	if _, err := db.ExecContext(ctx, bootstrapSchema); err != nil {
		return fmt.Errorf("run sqlite migrations: %w", err)
	}

	var currentVersion int
	if err := db.QueryRowContext(ctx, "SELECT version FROM schema_migrations WHERE id = 1").Scan(&currentVersion); err != nil {
		return fmt.Errorf("read sqlite schema version: %w", err)
	}

	if currentVersion > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, schemaVersion)
	}

	if currentVersion < 2 {
		if err := applyV2Migrations(ctx, db); err != nil {
			return err
		}
		currentVersion = 2
	}
	if currentVersion < 3 {
		if err := applyV3Migrations(ctx, db); err != nil {
			return err
		}
	}

	return nil
}

func applyV2Migrations(ctx context.Context, db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS sync_state (
  collection TEXT PRIMARY KEY,
  last_success_at TEXT,
  last_attempt_at TEXT,
  last_error TEXT
);

CREATE TABLE IF NOT EXISTS app_config (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS obligations (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  start_date TEXT NOT NULL,
  end_date TEXT,
  frequency TEXT NOT NULL,
  frequency_interval INTEGER NOT NULL DEFAULT 1,
  amount_value TEXT NOT NULL,
  minimum_value TEXT,
  tolerance_days INTEGER,
  allows_multiple_payments INTEGER NOT NULL DEFAULT 0 CHECK (allows_multiple_payments IN (0,1)),
  principal_value TEXT,
  annual_rate TEXT,
  term_cycles INTEGER NOT NULL DEFAULT 0,
  due_offset_days INTEGER NOT NULL DEFAULT 0,
  target_value TEXT,
  last_fetched_at TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1 CHECK (is_active IN (0,1))
);

CREATE INDEX IF NOT EXISTS idx_obligations_kind ON obligations(kind);

CREATE TABLE IF NOT EXISTS ledger_transactions (
  id TEXT PRIMARY KEY,
  obligation_id TEXT NOT NULL,
  amount_value TEXT NOT NULL,
  posted_on TEXT NOT NULL,
  description TEXT NOT NULL,
  metadata_json TEXT NOT NULL DEFAULT '{}',
  last_fetched_at TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1 CHECK (is_active IN (0,1))
);

CREATE INDEX IF NOT EXISTS idx_ledger_transactions_obligation_id ON ledger_transactions(obligation_id);
CREATE INDEX IF NOT EXISTS idx_ledger_transactions_posted_on ON ledger_transactions(posted_on);

CREATE TABLE IF NOT EXISTS bills (
  id TEXT PRIMARY KEY,
  obligation_id TEXT NOT NULL,
  amount_value TEXT NOT NULL,
  total_amount_value TEXT,
  due_on TEXT NOT NULL,
  status TEXT NOT NULL,
  last_fetched_at TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1 CHECK (is_active IN (0,1))
);

CREATE INDEX IF NOT EXISTS idx_bills_obligation_id ON bills(obligation_id);
`
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite migration v2 transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("run sqlite v2 migrations: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE schema_migrations SET version = 2 WHERE id = 1"); err != nil {
		return fmt.Errorf("update sqlite schema version to 2: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite v2 migrations: %w", err)
	}
	return nil
}

// applyV3Migrations adds user overrides and the obligation display order.
func applyV3Migrations(ctx context.Context, db *sql.DB) error {
	const overridesSchema = `
CREATE TABLE IF NOT EXISTS cycle_overrides (
  id TEXT PRIMARY KEY,
  obligation_id TEXT NOT NULL,
  cycle_number INTEGER NOT NULL CHECK (cycle_number > 0),
  amount_value TEXT,
  minimum_value TEXT,
  expected_on TEXT,
  notes TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL,
  UNIQUE (obligation_id, cycle_number)
);
`
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sqlite migration v3 transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, overridesSchema); err != nil {
		return fmt.Errorf("create cycle_overrides table: %w", err)
	}

	hasDisplayOrder, err := tableHasColumn(ctx, tx, "obligations", "display_order")
	if err != nil {
		return err
	}
	if !hasDisplayOrder {
		if _, err = tx.ExecContext(
			ctx,
			"ALTER TABLE obligations ADD COLUMN display_order INTEGER NOT NULL DEFAULT 2147483647",
		); err != nil {
			return fmt.Errorf("add obligations.display_order column: %w", err)
		}
	}
	if _, err = tx.ExecContext(
		ctx,
		"CREATE INDEX IF NOT EXISTS idx_obligations_display_order ON obligations(display_order)",
	); err != nil {
		return fmt.Errorf("create obligations display_order index: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "UPDATE schema_migrations SET version = 3 WHERE id = 1"); err != nil {
		return fmt.Errorf("update sqlite schema version to 3: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit sqlite v3 migrations: %w", err)
	}
	return nil
}

func tableHasColumn(ctx context.Context, tx *sql.Tx, tableName, columnName string) (bool, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return false, fmt.Errorf("query table info for %s: %w", tableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name string
		var ctype sql.NullString
		var notNull int
		var defaultValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultValue, &pk); err != nil {
			return false, fmt.Errorf("scan table info for %s: %w", tableName, err)
		}
		if name == columnName {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("read table info rows for %s: %w", tableName, err)
	}
	return false, nil
}

func localDBFiles(path string) []string {
	return []string{
		path,
		path + "-wal",
		path + "-shm",
	}
}

func hasLocalDBFiles(path string) (bool, error) {
	for _, p := range localDBFiles(path) {
		_, err := os.Stat(p)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return false, err
		}
	}
	return false, nil
}

func resetLocalDBFiles(path string) error {
	for _, p := range localDBFiles(path) {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}
