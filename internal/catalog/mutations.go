package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
	"github.com/conorfennell/flashdeck/internal/ident"
	"github.com/conorfennell/flashdeck/internal/view"
)

// CardInput is what a form submits. An empty ID creates a new card; a
// non-empty ID edits that card and keeps its creation time.
type CardInput struct {
	ID              domain.CardID
	Name            string
	ImageURL        string
	AudioURL        string
	SetIDs          []domain.SetID
	BackgroundColor string
}

// SaveCard validates and persists a card, then updates memory. Validation
// failures never reach the store. On a store failure memory is unchanged,
// a notice is recorded and the error is returned.
func (c *Catalog) SaveCard(ctx context.Context, in CardInput) (domain.Card, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	card := domain.PrepareCard(domain.Card{
		ID:              in.ID,
		Name:            in.Name,
		ImageURL:        in.ImageURL,
		AudioURL:        in.AudioURL,
		SetIDs:          slices.Clone(in.SetIDs),
		BackgroundColor: in.BackgroundColor,
	})
	if err := domain.ValidateCard(card); err != nil {
		return domain.Card{}, err
	}
	if card.SetIDs == nil {
		card.SetIDs = []domain.SetID{}
	}

	editing := in.ID != ""
	idx := -1
	if editing {
		idx = c.indexOf(in.ID)
		if idx < 0 {
			return domain.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, in.ID)
		}
		card.CreatedAt = c.cards[idx].CreatedAt
	} else {
		card.ID = ident.NewCardID()
		card.CreatedAt = c.now().UnixMilli()
	}

	if err := c.store.PutCard(ctx, card); err != nil {
		c.notice = NoticeSaveFailed
		c.logger.Error("Unable to save card", "id", card.ID, "error", err)
		return domain.Card{}, fmt.Errorf("save card %s: %w", card.ID, err)
	}

	if editing {
		c.cards = slices.Clone(c.cards)
		c.cards[idx] = card
	} else {
		c.cards = append([]domain.Card{card}, c.cards...)
	}
	c.logger.Info("Card saved", "id", card.ID, "edited", editing)
	return card, nil
}

// DeleteCard removes a card from the store and then from memory. Deleting
// a card that does not exist succeeds.
func (c *Catalog) DeleteCard(ctx context.Context, id domain.CardID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.DeleteCard(ctx, id); err != nil {
		c.notice = NoticeDelFailed
		c.logger.Error("Unable to delete card", "id", id, "error", err)
		return fmt.Errorf("delete card %s: %w", id, err)
	}

	c.cards = slices.DeleteFunc(slices.Clone(c.cards), func(card domain.Card) bool { return card.ID == id })
	c.logger.Info("Card deleted", "id", id)
	return nil
}

// AddSet creates a set from a user-supplied name and makes it visible. A
// name whose slug matches an existing set returns that set without writing.
// A blank name is ignored and reports ok=false.
func (c *Catalog) AddSet(ctx context.Context, name string) (set domain.Set, ok bool, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Set{}, false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := ident.Slugify(name)
	if i := slices.IndexFunc(c.sets, func(s domain.Set) bool { return s.ID == id }); i >= 0 {
		return c.sets[i], true, nil
	}

	set = domain.Set{ID: id, Name: name}
	if err := c.store.PutSet(ctx, set); err != nil {
		c.notice = NoticeSetFailed
		c.logger.Error("Unable to add set", "id", id, "error", err)
		return domain.Set{}, false, fmt.Errorf("add set %s: %w", id, err)
	}

	c.sets = append(slices.Clone(c.sets), set)
	if !slices.Contains(c.visible, id) {
		c.visible = append(slices.Clone(c.visible), id)
	}
	c.logger.Info("Set added", "id", id)
	return set, true, nil
}

// ToggleVisible shows the set if hidden and hides it if shown.
func (c *Catalog) ToggleVisible(id domain.SetID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := slices.Index(c.visible, id); i >= 0 {
		c.visible = slices.Delete(slices.Clone(c.visible), i, i+1)
		return
	}
	c.visible = append(slices.Clone(c.visible), id)
}

// ShowAll selects every available set, uncategorized included when present.
func (c *Catalog) ShowAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	available := view.AvailableSets(c.sets, c.cards)
	visible := make([]domain.SetID, 0, len(available))
	for _, s := range available {
		visible = append(visible, s.ID)
	}
	c.visible = visible
}

// HideAll clears the selection, which shows no cards.
func (c *Catalog) HideAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = []domain.SetID{}
}

// SetSortMode changes the active sort mode.
func (c *Catalog) SetSortMode(m view.SortMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sort = m
}
