// Package ledger records composed checkouts (lines and totals only; the
// delivery address is never stored).
package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

//go:embed schema.sql
var schema string

type Line struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

type Entry struct {
	Key       string // idempotency key; repeated keys return the first checkout
	SessionID string
	Lines     []Line
}

type Checkout struct {
	ID        string          `json:"id"`
	SessionID string          `json:"-"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
	CreatedAt time.Time       `json:"createdAt"`
	Lines     []Line          `json:"lines"`
}

var (
	ErrNoLines  = errors.New("ledger: checkout has no lines")
	ErrNotFound = errors.New("ledger: checkout not found")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

// Record stores e in one transaction. When e.Key was seen before, the
// existing checkout id is returned with existed=true.
func (r *Repo) Record(ctx context.Context, e Entry) (id string, existed bool, err error) {
	if len(e.Lines) == 0 {
		return "", false, ErrNoLines
	}

	row := r.DB.QueryRow(ctx, `SELECT id FROM checkouts WHERE checkout_key=$1`, e.Key)
	if err = row.Scan(&id); err == nil {
		return id, true, nil
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return "", false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	total := decimal.Zero
	count := 0
	for _, l := range e.Lines {
		if l.Qty <= 0 {
			return "", false, fmt.Errorf("invalid qty for product %s", l.ProductID)
		}
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Qty))))
		count += l.Qty
	}

	id = uuid.NewString()
	tag, err := tx.Exec(ctx, `
		INSERT INTO checkouts(id, checkout_key, session_id, total, item_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (checkout_key) DO NOTHING`,
		id, e.Key, e.SessionID, total.StringFixed(2), count)
	if err != nil {
		return "", false, err
	}
	if tag.RowsAffected() == 0 {
		// lost a race with a concurrent request carrying the same key
		_ = tx.Rollback(ctx)
		if err := r.DB.QueryRow(ctx, `SELECT id FROM checkouts WHERE checkout_key=$1`, e.Key).Scan(&id); err != nil {
			return "", false, err
		}
		return id, true, nil
	}

	for i, l := range e.Lines {
		if _, err = tx.Exec(ctx, `
			INSERT INTO checkout_lines(checkout_id, product_id, name, qty, price, line_no)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, l.ProductID, l.Name, l.Qty, l.Price.StringFixed(2), i,
		); err != nil {
			return "", false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", false, err
	}
	return id, false, nil
}

// Lookup returns the checkout recorded under an idempotency key. found is
// false when the key was never recorded.
func (r *Repo) Lookup(ctx context.Context, key string) (c Checkout, found bool, err error) {
	var id string
	err = r.DB.QueryRow(ctx, `SELECT id FROM checkouts WHERE checkout_key=$1`, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkout{}, false, nil
	}
	if err != nil {
		return Checkout{}, false, err
	}
	if c, err = r.Get(ctx, id); err != nil {
		return Checkout{}, false, err
	}
	return c, true, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Checkout, error) {
	var (
		c     Checkout
		total string
	)
	err := r.DB.QueryRow(ctx, `
		SELECT id, session_id, total::text, item_count, created_at
		FROM checkouts WHERE id=$1`, id).Scan(&c.ID, &c.SessionID, &total, &c.ItemCount, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkout{}, ErrNotFound
	}
	if err != nil {
		return Checkout{}, err
	}
	if c.Total, err = decimal.NewFromString(total); err != nil {
		return Checkout{}, fmt.Errorf("decode total: %w", err)
	}

	rows, err := r.DB.Query(ctx, `
		SELECT product_id, name, qty, price::text
		FROM checkout_lines WHERE checkout_id=$1 ORDER BY line_no, product_id`, id)
	if err != nil {
		return Checkout{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			l     Line
			price string
		)
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Qty, &price); err != nil {
			return Checkout{}, err
		}
		if l.Price, err = decimal.NewFromString(price); err != nil {
			return Checkout{}, fmt.Errorf("decode price: %w", err)
		}
		c.Lines = append(c.Lines, l)
	}
	return c, rows.Err()
}
