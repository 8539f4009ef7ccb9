package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion is bumped only when a collection is added. Every migration
// is additive: it creates what is missing and never drops or rewrites rows.
//
//	1 - cards
//	2 - sets
const SchemaVersion = 2

const (
	cardsTable = "cards"
	setsTable  = "sets"
)

var migrations = []string{
	// v1
	`CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    data TEXT NOT NULL
);`,
	// v2
	`CREATE TABLE IF NOT EXISTS sets (
    id TEXT PRIMARY KEY,
    data TEXT NOT NULL
);`,
}

// migrate brings the schema up to SchemaVersion. Running it against an
// up-to-date database does nothing.
func migrate(ctx context.Context, conn *sql.DB) error {
	var version int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= SchemaVersion {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for v := version; v < SchemaVersion; v++ {
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return tx.Commit()
}
