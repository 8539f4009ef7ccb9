// Package view derives what the gallery shows from in-memory state. It does
// no I/O and never modifies its inputs.
package view

import (
	"slices"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// AvailableSets returns sets followed by the synthetic uncategorized set,
// which is only present when some card belongs to no set.
func AvailableSets(sets []domain.Set, cards []domain.Card) []domain.Set {
	out := make([]domain.Set, 0, len(sets)+1)
	out = append(out, sets...)
	if domain.AnyUncategorized(cards) {
		out = append(out, domain.UncategorizedSet())
	}
	return out
}

// FilteredCards returns the cards visible under the visible set selection,
// ordered by mode. An empty selection shows nothing. Cards with equal sort
// keys keep their input order.
func FilteredCards(cards []domain.Card, visible []domain.SetID, mode SortMode) []domain.Card {
	out := []domain.Card{}
	if len(visible) == 0 {
		return out
	}

	selected := make(map[domain.SetID]struct{}, len(visible))
	for _, id := range visible {
		selected[id] = struct{}{}
	}
	_, showUncategorized := selected[domain.Uncategorized]

	for _, c := range cards {
		if c.IsUncategorized() {
			if showUncategorized {
				out = append(out, c)
			}
			continue
		}
		if c.InAnySet(selected) {
			out = append(out, c)
		}
	}

	slices.SortStableFunc(out, mode.compare())
	return out
}
