// Package catalog holds the application's in-memory cards, sets and
// visibility selection, and is the only place that mutates them. Every
// mutation goes through the store first; memory is updated only after the
// store accepts the write.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	gosync "sync"
	"time"

	"github.com/conorfennell/flashdeck/internal/defaults"
	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/sync"
	"github.com/conorfennell/flashdeck/internal/view"
)

// User-facing notices.
const (
	NoticeFallback   = "Using starter cards; could not read saved cards."
	NoticeSaveFailed = "Unable to save card. Storage might be full or blocked."
	NoticeDelFailed  = "Unable to delete card. Storage might be blocked."
	NoticeSetFailed  = "Unable to add set right now."
)

// ErrLoadAbandoned is returned by Load when the caller's context ended
// before the snapshot could be applied.
var ErrLoadAbandoned = errors.New("load abandoned")

// ErrCardNotFound is returned when editing a card that is not in memory.
var ErrCardNotFound = errors.New("card not found")

// Store is the durable store as seen by the catalog.
type Store interface {
	sync.Store
	PutCard(ctx context.Context, card domain.Card) error
	DeleteCard(ctx context.Context, id domain.CardID) error
	PutSet(ctx context.Context, set domain.Set) error
}

// Catalog is safe for concurrent use; mutations are serialised.
type Catalog struct {
	store   Store
	dataset defaults.Dataset
	logger  *slog.Logger
	now     func() time.Time

	mu       gosync.RWMutex
	cards    []domain.Card
	sets     []domain.Set
	visible  []domain.SetID
	sort     view.SortMode
	notice   string
	degraded bool
	loaded   bool
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithSortMode sets the initial sort mode.
func WithSortMode(m view.SortMode) Option {
	return func(c *Catalog) { c.sort = m }
}

// New returns an empty catalog. Call Load before using it.
func New(store Store, ds defaults.Dataset, opts ...Option) *Catalog {
	c := &Catalog{
		store:   store,
		dataset: ds,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reconciles the store with the default dataset and installs the
// result. When reconciliation fails the catalog falls back to the default
// dataset in memory, records a notice and reports degraded mode; the error
// is returned for logging but the catalog is usable.
//
// If ctx ends while loading, the snapshot is discarded and ErrLoadAbandoned
// is returned. Writes already started by reconciliation still complete.
func (c *Catalog) Load(ctx context.Context) error {
	snap, err := sync.Load(ctx, c.store, c.dataset)
	if ctx.Err() != nil {
		c.logger.Info("Discarding abandoned load", "error", ctx.Err())
		return fmt.Errorf("%w: %w", ErrLoadAbandoned, ctx.Err())
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.logger.Warn("Falling back to starter cards", "error", err)
		snap = sync.Fallback(c.dataset)
		c.notice = NoticeFallback
		c.degraded = true
	} else {
		c.degraded = false
	}
	c.cards = snap.Cards
	c.sets = snap.Sets
	c.visible = snap.VisibleSetIDs
	c.loaded = true

	c.logger.Info("Catalog loaded",
		"cards", len(c.cards),
		"sets", len(c.sets),
		"visible", len(c.visible),
		"degraded", c.degraded,
	)
	return err
}

// Loaded reports whether Load has installed a snapshot.
func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Degraded reports whether the catalog runs on in-memory defaults because
// the store could not be read.
func (c *Catalog) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

// Notice returns the pending user-facing message, if any.
func (c *Catalog) Notice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notice
}

// DismissNotice clears the pending message.
func (c *Catalog) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notice = ""
}

// Cards returns a copy of all cards in memory.
func (c *Catalog) Cards() []domain.Card {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.cards)
}

// Card returns the card with id.
func (c *Catalog) Card(id domain.CardID) (domain.Card, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexOf(id)
	if i < 0 {
		return domain.Card{}, false
	}
	return c.cards[i], true
}

// Sets returns a copy of the real (persisted) sets.
func (c *Catalog) Sets() []domain.Set {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.sets)
}

// AvailableSets returns the sets a user can filter by, including the
// synthetic uncategorized set when it applies.
func (c *Catalog) AvailableSets() []domain.Set {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return view.AvailableSets(c.sets, c.cards)
}

// Visible returns the current visible set selection.
func (c *Catalog) Visible() []domain.SetID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.visible)
}

// SortMode returns the active sort mode.
func (c *Catalog) SortMode() view.SortMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sort
}

// FilteredCards returns the cards to display for the current selection and
// sort mode.
func (c *Catalog) FilteredCards() []domain.Card {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return view.FilteredCards(c.cards, c.visible, c.sort)
}

func (c *Catalog) indexOf(id domain.CardID) int {
	return slices.IndexFunc(c.cards, func(card domain.Card) bool { return card.ID == id })
}
