package items

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is the catalog contract the handlers depend on.
type Store interface {
	GetItemByID(ctx context.Context, itemID string) (Item, error)
	ListItems(ctx context.Context, limit, offset int) ([]Item, error)
	InsertItem(ctx context.Context, newItem NewItem) (Item, error)
	UpdateItemInDB(ctx context.Context, itemID string, update UpdateItem) (Item, error)
}

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) GetItemByID(ctx context.Context, itemID string) (Item, error) {
	query := `
		SELECT id, name, description, price_cents, stock_quantity, created_at, updated_at
		FROM items
		WHERE id = $1
	`
	var item Item
	err := c.db.QueryRowContext(ctx, query, itemID).Scan(
		&item.ID, &item.Name, &item.Description, &item.PriceCents, &item.StockQuantity,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("failed to query item: %w", err)
	}
	return item, nil
}

func (c *Conf) ListItems(ctx context.Context, limit, offset int) ([]Item, error) {
	query := `
		SELECT id, name, description, price_cents, stock_quantity, created_at, updated_at
		FROM items
		ORDER BY name
		LIMIT $1 OFFSET $2
	`
	rows, err := c.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var list []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.PriceCents,
			&item.StockQuantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		list = append(list, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return list, nil
}

func (c *Conf) InsertItem(ctx context.Context, newItem NewItem) (Item, error) {
	now := time.Now().UTC()
	item := Item{
		ID:            uuid.NewString(),
		Name:          newItem.Name,
		Description:   newItem.Description,
		PriceCents:    newItem.PriceCents,
		StockQuantity: newItem.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	query := `
		INSERT INTO items (id, name, description, price_cents, stock_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := c.db.ExecContext(ctx, query, item.ID, item.Name, item.Description,
		item.PriceCents, item.StockQuantity, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return Item{}, fmt.Errorf("failed to insert item: %w", err)
	}
	return item, nil
}

func (c *Conf) UpdateItemInDB(ctx context.Context, itemID string, update UpdateItem) (Item, error) {
	item, err := c.GetItemByID(ctx, itemID)
	if err != nil {
		return Item{}, err
	}

	if update.Name != nil {
		item.Name = *update.Name
	}
	if update.Description != nil {
		item.Description = *update.Description
	}
	if update.PriceCents != nil {
		item.PriceCents = *update.PriceCents
	}
	if update.StockQuantity != nil {
		item.StockQuantity = *update.StockQuantity
	}
	item.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE items
		SET name = $1, description = $2, price_cents = $3, stock_quantity = $4, updated_at = $5
		WHERE id = $6
	`
	res, err := c.db.ExecContext(ctx, query, item.Name, item.Description, item.PriceCents,
		item.StockQuantity, item.UpdatedAt, itemID)
	if err != nil {
		return Item{}, fmt.Errorf("failed to update item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}
