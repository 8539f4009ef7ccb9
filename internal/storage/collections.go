package storage

import (
	"context"

	"github.com/conorfennell/flashdeck/internal/domain"
)

func cardID(c domain.Card) string { return string(c.ID) }
func setID(s domain.Set) string   { return string(s.ID) }

// GetAllCards returns every stored card in insertion order.
func (db *DB) GetAllCards(ctx context.Context) ([]domain.Card, error) {
	conn, err := db.handle(ctx)
	if err != nil {
		return nil, err
	}
	return getAll[domain.Card](ctx, conn, cardsTable)
}

// PutCard inserts the card or replaces the stored card with the same id.
func (db *DB) PutCard(ctx context.Context, card domain.Card) error {
	return db.PutCards(ctx, []domain.Card{card})
}

// PutCards upserts cards atomically: all of them are stored or none are.
func (db *DB) PutCards(ctx context.Context, cards []domain.Card) error {
	conn, err := db.handle(ctx)
	if err != nil {
		return err
	}
	return putAll(ctx, conn, cardsTable, cards, cardID)
}

// DeleteCard removes the card with id. Deleting a missing card is not an
// error.
func (db *DB) DeleteCard(ctx context.Context, id domain.CardID) error {
	conn, err := db.handle(ctx)
	if err != nil {
		return err
	}
	return deleteByID(ctx, conn, cardsTable, string(id))
}

// GetAllSets returns every stored set in insertion order.
func (db *DB) GetAllSets(ctx context.Context) ([]domain.Set, error) {
	conn, err := db.handle(ctx)
	if err != nil {
		return nil, err
	}
	return getAll[domain.Set](ctx, conn, setsTable)
}

// PutSet inserts the set or replaces the stored set with the same id.
func (db *DB) PutSet(ctx context.Context, set domain.Set) error {
	return db.PutSets(ctx, []domain.Set{set})
}

// PutSets upserts sets atomically.
func (db *DB) PutSets(ctx context.Context, sets []domain.Set) error {
	conn, err := db.handle(ctx)
	if err != nil {
		return err
	}
	return putAll(ctx, conn, setsTable, sets, setID)
}
