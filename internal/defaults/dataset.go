// Package defaults builds the starter sets and cards bundled with the app.
// Everything here is a pure function of a timestamp seed: the seed only
// shifts createdAt, ids never depend on it.
package defaults

import (
	"fmt"

	"github.com/conorfennell/flashdeck/internal/domain"
)

// Default set ids.
const (
	NumbersSetID domain.SetID = "numbers"
	ShapesSetID  domain.SetID = "shapes"
	ColorsSetID  domain.SetID = "colors"
)

// createdAt offsets keep categories ordered relative to each other.
const (
	numbersOffset = 200
	shapesOffset  = 400
	colorsOffset  = 600
)

const (
	shapeBackground = "#f8fafc"
	shapeStroke     = "#0f172a"
)

// Dataset is the baseline content shipped with the application.
type Dataset struct {
	Sets  []domain.Set
	Cards []domain.Card
}

// SetIDs returns the ids of the dataset's sets in order.
func (d Dataset) SetIDs() []domain.SetID {
	ids := make([]domain.SetID, 0, len(d.Sets))
	for _, s := range d.Sets {
		ids = append(ids, s.ID)
	}
	return ids
}

// Build generates the default dataset for seed (epoch milliseconds).
func Build(seed int64) Dataset {
	cards := make([]domain.Card, 0, 31)
	cards = append(cards, numberCards(seed)...)
	cards = append(cards, shapeCards(seed)...)
	cards = append(cards, colorCards(seed)...)
	return Dataset{Sets: Sets(), Cards: cards}
}

// Sets returns the default sets.
func Sets() []domain.Set {
	return []domain.Set{
		{ID: NumbersSetID, Name: "Numbers 0-10"},
		{ID: ShapesSetID, Name: "Shapes"},
		{ID: ColorsSetID, Name: "Colors"},
	}
}

var numberNames = [...]string{
	"Zero", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten",
}

func numberCards(seed int64) []domain.Card {
	cards := make([]domain.Card, 0, len(numberNames))
	for n, name := range numberNames {
		cards = append(cards, domain.Card{
			ID:        domain.CardID(fmt.Sprintf("number-%d", n)),
			Name:      name,
			ImageURL:  labelCard(fmt.Sprint(n), "#ffb347", "#7d7aff"),
			CreatedAt: seed + numbersOffset + int64(n),
			SetIDs:    []domain.SetID{NumbersSetID},
		})
	}
	return cards
}

type shape struct {
	id     string
	name   string
	height int
	draw   func(fill, stroke string) string
}

var palette = []string{
	"#f472b6", "#22d3ee", "#f97316", "#a78bfa", "#34d399",
	"#eab308", "#60a5fa", "#fb7185", "#4ade80", "#f59e0b",
}

func polygon(points string) func(fill, stroke string) string {
	return func(fill, stroke string) string {
		return fmt.Sprintf(`<polygon points="%s" fill="%s" stroke="%s" stroke-width="8" stroke-linejoin="round" />`, points, fill, stroke)
	}
}

var shapes = []shape{
	{id: "circle", name: "Circle", draw: func(fill, stroke string) string {
		return fmt.Sprintf(`<circle cx="200" cy="130" r="80" fill="%s" stroke="%s" stroke-width="8" />`, fill, stroke)
	}},
	{id: "square", name: "Square", draw: func(fill, stroke string) string {
		return fmt.Sprintf(`<rect x="120" y="50" width="160" height="160" rx="14" fill="%s" stroke="%s" stroke-width="8" />`, fill, stroke)
	}},
	{id: "triangle", name: "Triangle", draw: polygon("200,36 96,220 304,220")},
	{id: "rectangle", name: "Rectangle", draw: func(fill, stroke string) string {
		return fmt.Sprintf(`<rect x="80" y="70" width="240" height="120" rx="18" fill="%s" stroke="%s" stroke-width="8" />`, fill, stroke)
	}},
	{id: "star", name: "Star", height: 300, draw: polygon("200,32 236,122 332,126 254,186 282,278 200,226 118,278 146,186 68,126 164,122")},
	{id: "heart", name: "Heart", draw: func(fill, stroke string) string {
		return fmt.Sprintf(`<path d="M200 238c-72-40-116-96-116-148 0-38 28-66 66-66 26 0 48 14 50 40 2-26 24-40 50-40 38 0 66 28 66 66 0 52-44 108-116 148z" fill="%s" stroke="%s" stroke-width="8" stroke-linejoin="round" />`, fill, stroke)
	}},
	{id: "oval", name: "Oval", draw: func(fill, stroke string) string {
		return fmt.Sprintf(`<ellipse cx="200" cy="130" rx="130" ry="76" fill="%s" stroke="%s" stroke-width="8" />`, fill, stroke)
	}},
	{id: "diamond", name: "Diamond", draw: polygon("200,30 326,130 200,230 74,130")},
	{id: "pentagon", name: "Pentagon", height: 300, draw: polygon("200,28 332,126 284,248 116,248 68,126")},
	{id: "hexagon", name: "Hexagon", height: 300, draw: polygon("200,32 312,96 312,196 200,260 88,196 88,96")},
}

func shapeCards(seed int64) []domain.Card {
	cards := make([]domain.Card, 0, len(shapes))
	for i, s := range shapes {
		cards = append(cards, domain.Card{
			ID:              domain.CardID("shape-" + s.id),
			Name:            s.name,
			ImageURL:        illustratedCard(s.draw(palette[i%len(palette)], shapeStroke), s.height),
			CreatedAt:       seed + shapesOffset + int64(i),
			SetIDs:          []domain.SetID{ShapesSetID},
			BackgroundColor: shapeBackground,
		})
	}
	return cards
}

var colors = []struct {
	id, name, hex string
}{
	{"red", "Red", "#ef4444"},
	{"blue", "Blue", "#3b82f6"},
	{"yellow", "Yellow", "#facc15"},
	{"green", "Green", "#22c55e"},
	{"orange", "Orange", "#fb923c"},
	{"purple", "Purple", "#a855f7"},
	{"pink", "Pink", "#f472b6"},
	{"brown", "Brown", "#b45309"},
	{"black", "Black", "#111827"},
	{"white", "White", "#f8fafc"},
}

// Color cards have no image; the background colour is the face.
func colorCards(seed int64) []domain.Card {
	cards := make([]domain.Card, 0, len(colors))
	for i, c := range colors {
		cards = append(cards, domain.Card{
			ID:              domain.CardID("color-" + c.id),
			Name:            c.name,
			BackgroundColor: c.hex,
			CreatedAt:       seed + colorsOffset + int64(i),
			SetIDs:          []domain.SetID{ColorsSetID},
		})
	}
	return cards
}
