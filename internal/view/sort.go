package view

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// ErrUnknownSortMode is returned by ParseSortMode for unrecognised input.
var ErrUnknownSortMode = errors.New("unknown sort mode")

// SortMode selects the ordering of filtered cards. The zero value sorts by
// recency.
type SortMode string

// Sort modes.
const (
	SortRecent    SortMode = ""
	SortAlphaAsc  SortMode = "alpha-asc"
	SortAlphaDesc SortMode = "alpha-desc"
	SortNumAsc    SortMode = "num-asc"
	SortNumDesc   SortMode = "num-desc"
)

// SortModes lists every mode accepted by ParseSortMode.
var SortModes = []SortMode{SortRecent, SortAlphaAsc, SortAlphaDesc, SortNumAsc, SortNumDesc}

// String returns the mode's wire name.
func (m SortMode) String() string {
	if m == SortRecent {
		return "recent"
	}
	return string(m)
}

// ParseSortMode accepts a wire name. Both "" and "recent" mean SortRecent.
func ParseSortMode(s string) (SortMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "recent" {
		return SortRecent, nil
	}
	for _, m := range SortModes {
		if string(m) == s {
			return m, nil
		}
	}
	return SortRecent, fmt.Errorf("%w: %q", ErrUnknownSortMode, s)
}

func (m SortMode) compare() func(a, b domain.Card) int {
	switch m {
	case SortAlphaAsc:
		return compareAlpha
	case SortAlphaDesc:
		return func(a, b domain.Card) int { return compareAlpha(b, a) }
	case SortNumAsc:
		return func(a, b domain.Card) int { return compareNumeric(a, b, false) }
	case SortNumDesc:
		return func(a, b domain.Card) int { return compareNumeric(a, b, true) }
	default:
		return compareRecent
	}
}

func compareRecent(a, b domain.Card) int {
	return cmp.Compare(b.CreatedAt, a.CreatedAt)
}

func compareAlpha(a, b domain.Card) int {
	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}

// compareNumeric orders numeric names by value. Non-numeric names go last in
// both directions, and ties fall back to ascending alphabetical order.
func compareNumeric(a, b domain.Card, desc bool) int {
	x, xok := parseNumber(a.Name)
	y, yok := parseNumber(b.Name)
	switch {
	case xok && !yok:
		return -1
	case !xok && yok:
		return 1
	case xok && yok && x != y:
		if desc {
			return cmp.Compare(y, x)
		}
		return cmp.Compare(x, y)
	}
	return compareAlpha(a, b)
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
