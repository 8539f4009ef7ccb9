package domain

// CardID identifies a Card. It is never interchangeable with a SetID even
// though both are stored as plain strings.
type CardID string

// SetID identifies a Set.
type SetID string

// Uncategorized is the synthetic set that collects cards without any set
// membership. It only exists in derived views and is never persisted.
const Uncategorized SetID = "uncategorized"

// UncategorizedName is the display name of the synthetic uncategorized set.
const UncategorizedName = "No set"

// Card is a single flashcard: a picture or a colour face, a name, and an
// optional audio clip.
//
// ImageURL and AudioURL hold self-contained data URIs rather than network
// locations. CreatedAt is epoch milliseconds and is set once, when the card
// is first saved.
type Card struct {
	ID              CardID  `json:"id"`
	Name            string  `json:"name" validate:"notblank"`
	ImageURL        string  `json:"imageUrl"`
	CreatedAt       int64   `json:"createdAt"`
	AudioURL        string  `json:"audioUrl,omitempty"`
	SetIDs          []SetID `json:"setIds,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
}

// Set is a named group of cards.
type Set struct {
	ID   SetID  `json:"id"`
	Name string `json:"name"`
}

// UncategorizedSet returns the synthetic set used by views.
func UncategorizedSet() Set {
	return Set{ID: Uncategorized, Name: UncategorizedName}
}

// IsUncategorized reports whether the card belongs to no set at all.
func (c Card) IsUncategorized() bool {
	return len(c.SetIDs) == 0
}

// InAnySet reports whether the card is a member of at least one of ids.
func (c Card) InAnySet(ids map[SetID]struct{}) bool {
	for _, id := range c.SetIDs {
		if _, ok := ids[id]; ok {
			return true
		}
	}
	return false
}

// Normalized returns a copy of the card whose SetIDs is a concrete slice.
// The returned slice never aliases the receiver's.
func (c Card) Normalized() Card {
	ids := make([]SetID, len(c.SetIDs))
	copy(ids, c.SetIDs)
	c.SetIDs = ids
	return c
}

// AnyUncategorized reports whether at least one card has no set membership.
func AnyUncategorized(cards []Card) bool {
	for _, c := range cards {
		if c.IsUncategorized() {
			return true
		}
	}
	return false
}
