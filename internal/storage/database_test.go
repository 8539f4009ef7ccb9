package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/flashdeck/internal/catalog"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/sync"
)

var (
	_ sync.Store    = (*DB)(nil)
	_ catalog.Store = (*DB)(nil)
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := New(filepath.Join(t.TempDir(), "cards.db"))
	defer db.Close()

	require.NoError(t, db.Open(ctx))
	first := db.conn
	require.NoError(t, db.Open(ctx))
	assert.Same(t, first, db.conn, "second Open must reuse the connection")

	var version int
	require.NoError(t, db.conn.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, SchemaVersion, version)
}

func TestOpen_IsLazy(t *testing.T) {
	db := New(":memory:")
	defer db.Close()
	assert.Nil(t, db.conn)

	cards, err := db.GetAllCards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.NotNil(t, db.conn)
}

func TestOpen_MigratesV1WithoutTouchingCards(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = raw.Exec(migrations[0])
	require.NoError(t, err)
	_, err = raw.Exec(`INSERT INTO cards (id, data) VALUES ('number-3', '{"id":"number-3","name":"Mine","imageUrl":"x","createdAt":7}')`)
	require.NoError(t, err)
	_, err = raw.Exec("PRAGMA user_version = 1")
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	cards, err := db.GetAllCards(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "Mine", cards[0].Name)
	assert.Equal(t, int64(7), cards[0].CreatedAt)

	sets, err := db.GetAllSets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	db := New(filepath.Join(t.TempDir(), "missing", "dir", "cards.db"))
	defer db.Close()

	_, err := db.GetAllCards(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = db.GetAllSets(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, db.PutCard(ctx, domain.Card{ID: "a", Name: "A"}), ErrStoreUnavailable)
	assert.ErrorIs(t, db.PutSets(ctx, []domain.Set{{ID: "s", Name: "S"}}), ErrStoreUnavailable)
	assert.ErrorIs(t, db.DeleteCard(ctx, "a"), ErrStoreUnavailable)
	assert.NotErrorIs(t, db.DeleteCard(ctx, "a"), ErrWriteRejected)
}

func TestStoreUnavailable_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	db := New(filepath.Join(t.TempDir(), "cards.db"))
	defer db.Close()

	_, err := db.GetAllCards(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	// The failure is not cached.
	_, err = db.GetAllCards(context.Background())
	assert.NoError(t, err)
}

func TestClose(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err := db.GetAllCards(context.Background())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
