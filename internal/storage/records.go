package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var errEmptyID = errors.New("record has an empty id")

// getAll decodes every record in table. An empty table yields an empty,
// non-nil slice.
func getAll[T any](ctx context.Context, conn *sql.DB, table string) ([]T, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf("SELECT id, data FROM %s ORDER BY rowid", table))
	if err != nil {
		return nil, fmt.Errorf("failed to get all %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	records := []T{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s record %s: %w", table, id, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	return records, nil
}

// putAll upserts records in one transaction. The whole record replaces any
// stored record with the same id. If any record fails, none are written.
func putAll[T any](ctx context.Context, conn *sql.DB, table string, records []T, idOf func(T) string) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin %s batch: %w", ErrWriteRejected, table, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, table))
	if err != nil {
		return fmt.Errorf("%w: prepare %s upsert: %w", ErrWriteRejected, table, err)
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range records {
		id := idOf(rec)
		if id == "" {
			return fmt.Errorf("%w: %s record %d: %w", ErrWriteRejected, table, i, errEmptyID)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("%w: encode %s record %s: %w", ErrWriteRejected, table, id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(data)); err != nil {
			return fmt.Errorf("%w: put %s record %s: %w", ErrWriteRejected, table, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s batch: %w", ErrWriteRejected, table, err)
	}
	return nil
}

func deleteByID(ctx context.Context, conn *sql.DB, table, id string) error {
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id); err != nil {
		return fmt.Errorf("%w: delete %s record %s: %w", ErrWriteRejected, table, id, err)
	}
	return nil
}
