package game

import (
	"context"

	"story-cards/internal/db"

	"gorm.io/gorm"
)

// CardInfo is a playable card and where its image lives.
type CardInfo struct {
	ID       string `json:"id"`
	ImageURL string `json:"image_url"`
}

// Catalog supplies the immutable pool of playable cards.
type Catalog interface {
	ActiveCards(ctx context.Context) ([]CardInfo, error)
	Locate(ctx context.Context, ids []string) (map[string]string, error)
}

type DBCatalog struct {
	conn *gorm.DB
}

func NewDBCatalog(conn *gorm.DB) *DBCatalog {
	return &DBCatalog{conn: conn}
}

func (c *DBCatalog) ActiveCards(ctx context.Context) ([]CardInfo, error) {
	cards, err := db.ActiveCards(c.conn.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	out := make([]CardInfo, 0, len(cards))
	for _, card := range cards {
		out = append(out, CardInfo{ID: card.ID, ImageURL: card.ImageURL})
	}
	return out, nil
}

func (c *DBCatalog) Locate(ctx context.Context, ids []string) (map[string]string, error) {
	located := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return located, nil
	}
	var cards []db.Card
	if err := c.conn.WithContext(ctx).Where("id IN ?", ids).Find(&cards).Error; err != nil {
		return nil, err
	}
	for _, card := range cards {
		located[card.ID] = card.ImageURL
	}
	return located, nil
}

// StaticCatalog serves a fixed card list.
type StaticCatalog []CardInfo

func (c StaticCatalog) ActiveCards(context.Context) ([]CardInfo, error) {
	out := make([]CardInfo, len(c))
	copy(out, c)
	return out, nil
}

func (c StaticCatalog) Locate(_ context.Context, ids []string) (map[string]string, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	located := make(map[string]string, len(ids))
	for _, card := range c {
		if _, ok := wanted[card.ID]; ok {
			located[card.ID] = card.ImageURL
		}
	}
	return located, nil
}
