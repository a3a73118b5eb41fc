package orders

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

// CreateOrder performs the checkout inside a single transaction. The cart
// row is locked first, which serializes concurrent checkouts for the same
// user. Stock is taken with a conditional decrement per line; a decrement
// that matches no row means the stock ran out, and the rollback undoes every
// decrement already applied in this pass.
func (c *Conf) CreateOrder(ctx context.Context, userID string) (Order, error) {
	var order Order

	err := c.withTx(ctx, func(tx *sql.Tx) error {
		var cartID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&cartID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrEmptyCart
			}
			return fmt.Errorf("failed to query cart: %w", err)
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT ci.item_id, ci.quantity, i.name, i.price_cents
			 FROM cart_items ci
			 JOIN items i ON i.id = ci.item_id
			 WHERE ci.cart_id = $1
			 ORDER BY ci.created_at`, cartID)
		if err != nil {
			return fmt.Errorf("failed to query cart lines: %w", err)
		}

		var lines []OrderLine
		for rows.Next() {
			var line OrderLine
			if err := rows.Scan(&line.ItemID, &line.Quantity, &line.Name, &line.UnitPriceCents); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan cart line: %w", err)
			}
			lines = append(lines, line)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("error iterating cart lines: %w", err)
		}
		rows.Close()

		if len(lines) == 0 {
			return ErrEmptyCart
		}

		// Reserve stock: decrement only while enough remains. Zero rows
		// affected means another order got there first; abort the whole
		// transaction.
		for _, line := range lines {
			res, err := tx.ExecContext(ctx,
				`UPDATE items SET stock_quantity = stock_quantity - $1, updated_at = NOW()
				 WHERE id = $2 AND stock_quantity >= $1`,
				line.Quantity, line.ItemID)
			if err != nil {
				return fmt.Errorf("failed to decrement stock: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read rows affected: %w", err)
			}
			if n == 0 {
				var available int
				if err := tx.QueryRowContext(ctx,
					`SELECT stock_quantity FROM items WHERE id = $1`, line.ItemID).
					Scan(&available); err != nil && !errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("failed to query stock: %w", err)
				}
				return &items.InsufficientStockError{
					ItemID:    line.ItemID,
					Name:      line.Name,
					Requested: line.Quantity,
					Available: available,
				}
			}
		}

		order = Order{
			ID:         uuid.NewString(),
			UserID:     userID,
			Status:     StatusCompleted,
			Lines:      lines,
			TotalCents: Total(lines),
			CreatedAt:  time.Now().UTC(),
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, user_id, status, total_cents, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)`,
			order.ID, order.UserID, order.Status, order.TotalCents, order.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		for _, line := range order.Lines {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (id, order_id, item_id, name, quantity, unit_price_cents)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.NewString(), order.ID, line.ItemID, line.Name, line.Quantity, line.UnitPriceCents); err != nil {
				return fmt.Errorf("failed to insert order line: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}

		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func (c *Conf) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, user_id, status, total_cents, created_at
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var list []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	for i := range list {
		lines, err := c.loadLines(ctx, list[i].ID)
		if err != nil {
			return nil, err
		}
		list[i].Lines = lines
	}
	return list, nil
}

func (c *Conf) loadLines(ctx context.Context, orderID string) ([]OrderLine, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT item_id, name, quantity, unit_price_cents
		 FROM order_items
		 WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ItemID, &line.Name, &line.Quantity, &line.UnitPriceCents); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order lines: %w", err)
	}
	return lines, nil
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
