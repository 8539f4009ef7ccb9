package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/flashdeck/internal/defaults"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/storage"
	"github.com/conorfennell/flashdeck/internal/view"
)

var fixedNow = time.UnixMilli(1_750_000_000_000)

// flakyStore wraps a real store; setting a fail* field makes that write
// fail the way a full disk would.
type flakyStore struct {
	Store
	putCardCalls int
	failPutCard  bool
	failDelete   bool
	failPutSet   bool
	putSetCalls  int
}

func (s *flakyStore) PutCard(ctx context.Context, card domain.Card) error {
	s.putCardCalls++
	if s.failPutCard {
		return fmt.Errorf("%w: quota exceeded", storage.ErrWriteRejected)
	}
	return s.Store.PutCard(ctx, card)
}

func (s *flakyStore) DeleteCard(ctx context.Context, id domain.CardID) error {
	if s.failDelete {
		return fmt.Errorf("%w: transaction aborted", storage.ErrWriteRejected)
	}
	return s.Store.DeleteCard(ctx, id)
}

func (s *flakyStore) PutSet(ctx context.Context, set domain.Set) error {
	s.putSetCalls++
	if s.failPutSet {
		return fmt.Errorf("%w: quota exceeded", storage.ErrWriteRejected)
	}
	return s.Store.PutSet(ctx, set)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCatalog(t *testing.T) (*Catalog, *storage.DB, *flakyStore) {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := &flakyStore{Store: db}
	c := New(store, defaults.Build(1_000),
		WithLogger(quietLogger()),
		WithClock(func() time.Time { return fixedNow }),
	)
	require.NoError(t, c.Load(context.Background()))
	return c, db, store
}

func TestLoad(t *testing.T) {
	c, _, _ := newCatalog(t)

	assert.True(t, c.Loaded())
	assert.False(t, c.Degraded())
	assert.Empty(t, c.Notice())
	assert.Len(t, c.Cards(), 31)
	assert.Len(t, c.Sets(), 3)
	assert.Equal(t, []domain.SetID{"numbers", "shapes", "colors"}, c.Visible())
	assert.Len(t, c.FilteredCards(), 31)
}

func TestLoad_FallsBackWhenStoreUnavailable(t *testing.T) {
	db := storage.New(filepath.Join(t.TempDir(), "no", "such", "dir", "cards.db"))
	defer db.Close()

	c := New(db, defaults.Build(0), WithLogger(quietLogger()))
	err := c.Load(context.Background())

	require.ErrorIs(t, err, storage.ErrStoreUnavailable)
	assert.True(t, c.Loaded())
	assert.True(t, c.Degraded())
	assert.Equal(t, NoticeFallback, c.Notice())
	assert.Len(t, c.Cards(), 31)
	assert.Equal(t, []domain.SetID{"numbers", "shapes", "colors"}, c.Visible())

	c.DismissNotice()
	assert.Empty(t, c.Notice())
}

func TestLoad_AbandonedLoadIsDiscarded(t *testing.T) {
	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(db, defaults.Build(0), WithLogger(quietLogger()))
	err = c.Load(ctx)
	require.ErrorIs(t, err, ErrLoadAbandoned)
	assert.False(t, c.Loaded())
	assert.Empty(t, c.Cards())
	assert.Empty(t, c.Notice(), "an abandoned load is not a failure to report")
}

func TestSaveCard_Create(t *testing.T) {
	c, db, _ := newCatalog(t)
	ctx := context.Background()

	card, err := c.SaveCard(ctx, CardInput{
		Name:     "  Cat ",
		ImageURL: "data:image/png;base64,Q0FU",
		SetIDs:   []domain.SetID{"numbers"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, card.ID)
	assert.Equal(t, "Cat", card.Name)
	assert.Equal(t, fixedNow.UnixMilli(), card.CreatedAt)
	assert.Equal(t, card, c.Cards()[0], "new cards are prepended")
	assert.Len(t, c.Cards(), 32)

	stored, err := db.GetAllCards(ctx)
	require.NoError(t, err)
	assert.Contains(t, stored, card)
}

func TestSaveCard_EditKeepsCreatedAt(t *testing.T) {
	c, db, _ := newCatalog(t)
	ctx := context.Background()

	original, ok := c.Card("number-3")
	require.True(t, ok)

	edited, err := c.SaveCard(ctx, CardInput{
		ID:              "number-3",
		Name:            "Three!",
		BackgroundColor: "#123456",
	})
	require.NoError(t, err)
	assert.Equal(t, original.CreatedAt, edited.CreatedAt)
	assert.Empty(t, edited.ImageURL)
	assert.Equal(t, []domain.SetID{}, edited.SetIDs)

	got, _ := c.Card("number-3")
	assert.Equal(t, edited, got)
	assert.Len(t, c.Cards(), 31)

	stored, err := db.GetAllCards(ctx)
	require.NoError(t, err)
	for _, s := range stored {
		if s.ID == "number-3" {
			assert.Equal(t, "Three!", s.Name)
			assert.Equal(t, original.CreatedAt, s.CreatedAt)
		}
	}

	assert.Contains(t, c.AvailableSets(), domain.UncategorizedSet(), "the edited card now has no set")
}

func TestSaveCard_EditUnknownCard(t *testing.T) {
	c, _, store := newCatalog(t)
	_, err := c.SaveCard(context.Background(), CardInput{ID: "nope", Name: "X", ImageURL: "x"})
	require.ErrorIs(t, err, ErrCardNotFound)
	assert.Zero(t, store.putCardCalls)
}

func TestSaveCard_ValidationNeverReachesStore(t *testing.T) {
	c, _, store := newCatalog(t)
	ctx := context.Background()

	_, err := c.SaveCard(ctx, CardInput{Name: "   ", ImageURL: "x"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = c.SaveCard(ctx, CardInput{Name: "Blank", BackgroundColor: "  "})
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, store.putCardCalls)
	assert.Len(t, c.Cards(), 31)
	assert.Empty(t, c.Notice())
}

func TestSaveCard_StoreFailureLeavesMemoryUnchanged(t *testing.T) {
	c, _, store := newCatalog(t)
	store.failPutCard = true
	before := c.Cards()

	_, err := c.SaveCard(context.Background(), CardInput{Name: "Dog", BackgroundColor: "#000"})
	require.ErrorIs(t, err, storage.ErrWriteRejected)
	assert.Equal(t, before, c.Cards())
	assert.Equal(t, NoticeSaveFailed, c.Notice())

	_, err = c.SaveCard(context.Background(), CardInput{ID: "number-1", Name: "Uno", BackgroundColor: "#000"})
	require.Error(t, err)
	got, _ := c.Card("number-1")
	assert.Equal(t, "One", got.Name)
}

func TestDeleteCard(t *testing.T) {
	c, db, store := newCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.DeleteCard(ctx, "color-red"))
	_, ok := c.Card("color-red")
	assert.False(t, ok)

	stored, err := db.GetAllCards(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 30)

	t.Run("missing id", func(t *testing.T) {
		assert.NoError(t, c.DeleteCard(ctx, "never-existed"))
		assert.Len(t, c.Cards(), 30)
	})

	t.Run("store failure keeps the card", func(t *testing.T) {
		store.failDelete = true
		err := c.DeleteCard(ctx, "color-blue")
		require.ErrorIs(t, err, storage.ErrWriteRejected)
		_, ok := c.Card("color-blue")
		assert.True(t, ok)
		assert.Equal(t, NoticeDelFailed, c.Notice())
	})
}

func TestAddSet(t *testing.T) {
	c, db, store := newCatalog(t)
	ctx := context.Background()

	set, ok, err := c.AddSet(ctx, "  Farm Animals ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.Set{ID: "farm-animals", Name: "Farm Animals"}, set)
	assert.Contains(t, c.Visible(), domain.SetID("farm-animals"))
	assert.Equal(t, 1, store.putSetCalls)

	stored, err := db.GetAllSets(ctx)
	require.NoError(t, err)
	assert.Contains(t, stored, set)

	t.Run("existing slug is reused without a write", func(t *testing.T) {
		again, ok, err := c.AddSet(ctx, "farm   animals!")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, set, again)
		assert.Equal(t, 1, store.putSetCalls)
		assert.Len(t, c.Sets(), 4)
	})

	t.Run("blank name is ignored", func(t *testing.T) {
		_, ok, err := c.AddSet(ctx, "   ")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 1, store.putSetCalls)
	})

	t.Run("store failure", func(t *testing.T) {
		store.failPutSet = true
		_, ok, err := c.AddSet(ctx, "Vehicles")
		require.ErrorIs(t, err, storage.ErrWriteRejected)
		assert.False(t, ok)
		assert.Len(t, c.Sets(), 4)
		assert.NotContains(t, c.Visible(), domain.SetID("vehicles"))
		assert.Equal(t, NoticeSetFailed, c.Notice())
	})
}

func TestVisibility(t *testing.T) {
	c, _, _ := newCatalog(t)

	c.HideAll()
	assert.Empty(t, c.Visible())
	assert.Empty(t, c.FilteredCards())

	c.ToggleVisible("colors")
	assert.Len(t, c.FilteredCards(), 10)

	c.ToggleVisible("colors")
	assert.Empty(t, c.FilteredCards())

	_, err := c.SaveCard(context.Background(), CardInput{Name: "Loose", BackgroundColor: "#abc"})
	require.NoError(t, err)
	c.ShowAll()
	assert.Equal(t, []domain.SetID{"numbers", "shapes", "colors", domain.Uncategorized}, c.Visible())
	assert.Len(t, c.FilteredCards(), 32)
}

func TestSortMode(t *testing.T) {
	c, _, _ := newCatalog(t)
	c.HideAll()
	c.ToggleVisible("numbers")

	c.SetSortMode(view.SortAlphaAsc)
	assert.Equal(t, view.SortAlphaAsc, c.SortMode())
	filtered := c.FilteredCards()
	require.Len(t, filtered, 11)
	assert.Equal(t, "Eight", filtered[0].Name)
	assert.Equal(t, "Zero", filtered[10].Name)

	c.SetSortMode(view.SortRecent)
	filtered = c.FilteredCards()
	assert.Equal(t, domain.CardID("number-10"), filtered[0].ID)
}

func TestEndToEnd_CatCardSurvivesReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flashdeck.db")

	db, err := storage.Open(ctx, path)
	require.NoError(t, err)

	c := New(db, defaults.Build(time.Now().UnixMilli()), WithLogger(quietLogger()))
	require.NoError(t, c.Load(ctx))
	require.Len(t, c.Cards(), 31)

	cat, err := c.SaveCard(ctx, CardInput{
		Name:     "Cat",
		ImageURL: "data:image/png;base64,Q0FU",
		SetIDs:   []domain.SetID{"numbers"},
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reopened, err := storage.Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	cards, err := reopened.GetAllCards(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 32)
	assert.Contains(t, cards, cat)
}
