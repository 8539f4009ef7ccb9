// Package sync reconciles what the user has persisted with the bundled
// default dataset and produces the snapshot the application starts from.
package sync

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/conorfennell/flashdeck/internal/defaults"
	"github.com/conorfennell/flashdeck/internal/domain"
)

// Store is the part of the durable store reconciliation needs.
type Store interface {
	GetAllCards(ctx context.Context) ([]domain.Card, error)
	GetAllSets(ctx context.Context) ([]domain.Set, error)
	PutCards(ctx context.Context, cards []domain.Card) error
	PutSets(ctx context.Context, sets []domain.Set) error
}

// Snapshot is a consistent view of cards and sets plus the initial
// visibility selection.
type Snapshot struct {
	Cards         []domain.Card
	Sets          []domain.Set
	VisibleSetIDs []domain.SetID
}

// Load reads both collections, writes back any default records that are
// missing by id and returns the merged snapshot. Stored records are never
// overwritten. Any failed read or write fails the whole load.
//
// Reads honour ctx. Writes do not: once a backfill starts it runs to
// completion even if the caller gives up, and the caller is expected to
// discard the snapshot in that case.
func Load(ctx context.Context, store Store, ds defaults.Dataset) (Snapshot, error) {
	var storedCards []domain.Card
	var storedSets []domain.Set

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		storedCards, err = store.GetAllCards(gctx)
		if err != nil {
			return fmt.Errorf("read cards: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		storedSets, err = store.GetAllSets(gctx)
		if err != nil {
			return fmt.Errorf("read sets: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	wctx := context.WithoutCancel(ctx)

	sets, err := mergeSets(wctx, store, storedSets, ds.Sets)
	if err != nil {
		return Snapshot{}, err
	}
	cards, err := mergeCards(wctx, store, storedCards, ds.Cards)
	if err != nil {
		return Snapshot{}, err
	}

	return newSnapshot(cards, sets), nil
}

// Fallback is the in-memory snapshot used when the store cannot be read.
// Nothing is persisted.
func Fallback(ds defaults.Dataset) Snapshot {
	cards := make([]domain.Card, len(ds.Cards))
	copy(cards, ds.Cards)
	sets := make([]domain.Set, len(ds.Sets))
	copy(sets, ds.Sets)
	return newSnapshot(cards, sets)
}

func newSnapshot(cards []domain.Card, sets []domain.Set) Snapshot {
	normalized := make([]domain.Card, len(cards))
	for i, c := range cards {
		normalized[i] = c.Normalized()
	}

	visible := make([]domain.SetID, 0, len(sets)+1)
	for _, s := range sets {
		visible = append(visible, s.ID)
	}
	if domain.AnyUncategorized(normalized) {
		visible = append(visible, domain.Uncategorized)
	}

	return Snapshot{Cards: normalized, Sets: sets, VisibleSetIDs: visible}
}

func mergeSets(ctx context.Context, store Store, stored, base []domain.Set) ([]domain.Set, error) {
	if len(stored) == 0 {
		if err := store.PutSets(ctx, base); err != nil {
			return nil, fmt.Errorf("seed default sets: %w", err)
		}
		slog.Info("Seeded default sets", "count", len(base))
		return append([]domain.Set(nil), base...), nil
	}

	have := make(map[domain.SetID]struct{}, len(stored))
	for _, s := range stored {
		have[s.ID] = struct{}{}
	}
	var missing []domain.Set
	for _, s := range base {
		if _, ok := have[s.ID]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) == 0 {
		return stored, nil
	}

	if err := store.PutSets(ctx, missing); err != nil {
		return nil, fmt.Errorf("backfill default sets: %w", err)
	}
	slog.Info("Backfilled default sets", "count", len(missing))
	return append(stored, missing...), nil
}

func mergeCards(ctx context.Context, store Store, stored, base []domain.Card) ([]domain.Card, error) {
	if len(stored) == 0 {
		if err := store.PutCards(ctx, base); err != nil {
			return nil, fmt.Errorf("seed default cards: %w", err)
		}
		slog.Info("Seeded default cards", "count", len(base))
		return append([]domain.Card(nil), base...), nil
	}

	have := make(map[domain.CardID]struct{}, len(stored))
	for _, c := range stored {
		have[c.ID] = struct{}{}
	}
	var missing []domain.Card
	for _, c := range base {
		if _, ok := have[c.ID]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return stored, nil
	}

	// Presence is checked by id only, so a default the user deleted comes
	// back here.
	for _, c := range missing {
		slog.Debug("Re-adding default card", "id", c.ID)
	}

	union := make([]domain.Card, 0, len(stored)+len(missing))
	union = append(union, stored...)
	union = append(union, missing...)
	if err := store.PutCards(ctx, union); err != nil {
		return nil, fmt.Errorf("backfill default cards: %w", err)
	}
	slog.Info("Backfilled default cards", "missing", len(missing), "total", len(union))
	return union, nil
}
