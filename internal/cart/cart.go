package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"shop-service/internal/items"

	"github.com/google/uuid"
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

func (c *Conf) GetCart(ctx context.Context, userID string) (Cart, []UnavailableLine, error) {
	var cart Cart
	var unavailable []UnavailableLine

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		cart, err = c.lockOrCreateCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		lines, found, err := c.loadLines(ctx, tx, cart.ID)
		if err != nil {
			return err
		}

		kept, repaired := Repair(lines, func(itemID string) bool { return found[itemID] })
		unavailable = repaired

		// Persist repairs before responding so a stale cart cannot be
		// checked out as-is.
		for _, r := range repaired {
			if r.Removed {
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM cart_items WHERE cart_id = $1 AND item_id = $2`,
					cart.ID, r.ItemID); err != nil {
					return fmt.Errorf("failed to remove stale cart line: %w", err)
				}
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE cart_id = $2 AND item_id = $3`,
				r.Available, cart.ID, r.ItemID); err != nil {
				return fmt.Errorf("failed to clamp cart line: %w", err)
			}
		}

		cart.Lines = kept
		return nil
	})
	if err != nil {
		return Cart{}, nil, err
	}
	return cart, unavailable, nil
}

func (c *Conf) AddItem(ctx context.Context, userID, itemID string, quantity int) (Cart, error) {
	var cart Cart

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		cart, err = c.lockOrCreateCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		var name string
		var stock int
		err = tx.QueryRowContext(ctx,
			`SELECT name, stock_quantity FROM items WHERE id = $1`, itemID).
			Scan(&name, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return items.ErrItemNotFound
			}
			return fmt.Errorf("failed to query item: %w", err)
		}

		var lineID string
		var existing int
		err = tx.QueryRowContext(ctx,
			`SELECT id, quantity FROM cart_items WHERE cart_id = $1 AND item_id = $2`,
			cart.ID, itemID).Scan(&lineID, &existing)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			if quantity > stock {
				return &items.InsufficientStockError{ItemID: itemID, Name: name, Requested: quantity, Available: stock}
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO cart_items (id, cart_id, item_id, quantity, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, NOW(), NOW())`,
				uuid.NewString(), cart.ID, itemID, quantity)
			if err != nil {
				return fmt.Errorf("failed to insert cart line: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to query cart line: %w", err)
		default:
			// Merge into the existing line.
			newQuantity := existing + quantity
			if newQuantity > stock {
				return &items.InsufficientStockError{ItemID: itemID, Name: name, Requested: newQuantity, Available: stock}
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2`,
				newQuantity, lineID)
			if err != nil {
				return fmt.Errorf("failed to update cart line: %w", err)
			}
		}

		return c.reloadCart(ctx, tx, &cart)
	})
	if err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (c *Conf) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (Cart, error) {
	var cart Cart

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		cart, err = c.lockOrCreateCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		var itemID, name string
		var stock int
		err = tx.QueryRowContext(ctx,
			`SELECT ci.item_id, i.name, i.stock_quantity
			 FROM cart_items ci
			 JOIN items i ON i.id = ci.item_id
			 WHERE ci.id = $1 AND ci.cart_id = $2`,
			lineID, cart.ID).Scan(&itemID, &name, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrLineNotFound
			}
			return fmt.Errorf("failed to query cart line: %w", err)
		}

		if quantity <= 0 {
			// Zero or negative quantity removes the line.
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM cart_items WHERE id = $1`, lineID); err != nil {
				return fmt.Errorf("failed to delete cart line: %w", err)
			}
			return c.reloadCart(ctx, tx, &cart)
		}

		if quantity > stock {
			return &items.InsufficientStockError{ItemID: itemID, Name: name, Requested: quantity, Available: stock}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE id = $2`,
			quantity, lineID); err != nil {
			return fmt.Errorf("failed to update cart line: %w", err)
		}
		return c.reloadCart(ctx, tx, &cart)
	})
	if err != nil {
		return Cart{}, err
	}
	return cart, nil
}

func (c *Conf) RemoveLine(ctx context.Context, userID, lineID string) (Cart, error) {
	var cart Cart

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		cart, err = c.lockOrCreateCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, lineID, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to delete cart line: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrLineNotFound
		}
		return c.reloadCart(ctx, tx, &cart)
	})
	if err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// lockOrCreateCart returns the user's cart row, creating it on first access.
// The FOR UPDATE lock serializes concurrent cart mutations for one user.
func (c *Conf) lockOrCreateCart(ctx context.Context, tx *sql.Tx, userID string) (Cart, error) {
	var cart Cart
	cart.UserID = userID

	err := tx.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM carts WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Cart{}, fmt.Errorf("failed to query cart: %w", err)
	}

	now := time.Now().UTC()
	cart.ID = uuid.NewString()
	cart.CreatedAt = now
	cart.UpdatedAt = now
	_, err = tx.ExecContext(ctx,
		`INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		cart.ID, userID, now, now)
	if err != nil {
		return Cart{}, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

// loadLines joins the cart lines with the live catalog. The second return
// value reports which item ids still exist; lines whose item vanished come
// back with zeroed item fields.
func (c *Conf) loadLines(ctx context.Context, tx *sql.Tx, cartID string) ([]Line, map[string]bool, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT ci.id, ci.item_id, ci.quantity,
		        COALESCE(i.name, ''), COALESCE(i.price_cents, 0), COALESCE(i.stock_quantity, 0),
		        i.id IS NOT NULL
		 FROM cart_items ci
		 LEFT JOIN items i ON i.id = ci.item_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.created_at`, cartID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	found := make(map[string]bool)
	for rows.Next() {
		var line Line
		var exists bool
		if err := rows.Scan(&line.ID, &line.ItemID, &line.Quantity,
			&line.Name, &line.UnitPriceCents, &line.StockQuantity, &exists); err != nil {
			return nil, nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if exists {
			found[line.ItemID] = true
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating cart lines: %w", err)
	}
	return lines, found, nil
}

func (c *Conf) reloadCart(ctx context.Context, tx *sql.Tx, cart *Cart) error {
	lines, _, err := c.loadLines(ctx, tx, cart.ID)
	if err != nil {
		return err
	}
	cart.Lines = lines
	if _, err := tx.ExecContext(ctx,
		`UPDATE carts SET updated_at = NOW() WHERE id = $1`, cart.ID); err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
