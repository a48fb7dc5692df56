package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/b2b-orders/internal/domain/order"
	"github.com/xenking/b2b-orders/internal/domain/partner"
)

const (
	selectOrderForUpdateSQL   = selectOrderSQL + ` FOR UPDATE`
	selectPartnerForUpdateSQL = selectPartnerSQL + ` FOR UPDATE`

	// Version-checked writes: zero rows affected means the row changed
	// since it was read, even though FOR UPDATE makes that impossible
	// within a single transaction — the check catches cross-transaction
	// staleness of the in-memory aggregate.
	updateOrderSQL = `UPDATE orders
	SET status = $2, total_amount = $3, items = $4, updated_at = $5, version = version + 1
	WHERE id = $1 AND version = $6`

	updatePartnerSQL = `UPDATE partners
	SET available_credit = $2, updated_at = $3, version = version + 1
	WHERE id = $1 AND version = $4`
)

var _ order.TxRunner = (*TxRunner)(nil)

// TxRunner runs order-lifecycle closures inside a single PostgreSQL
// transaction, giving them row-locked reads and version-checked writes.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner returns a TxRunner that uses the given pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunTx begins a transaction, runs fn with a scoped order.Tx, and commits
// iff fn succeeds. Any error from fn rolls everything back, so an operation
// either persists all of its mutations or none.
func (r *TxRunner) RunTx(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	pgTx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer pgTx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(ctx, &txScope{tx: pgTx}); err != nil {
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

var _ order.Tx = (*txScope)(nil)

// txScope implements order.Tx on one open pgx transaction.
type txScope struct {
	tx pgx.Tx
}

// OrderForUpdate reads the order under an exclusive row lock, blocking
// concurrent lifecycle transitions of the same order until commit.
func (s *txScope) OrderForUpdate(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(s.tx.QueryRow(ctx, selectOrderForUpdateSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("locking order %q: %w", id, err)
	}
	return o, nil
}

// PartnerForUpdate reads the partner under an exclusive row lock. Callers
// always lock the order row first, so the two locks cannot deadlock.
func (s *txScope) PartnerForUpdate(ctx context.Context, id string) (*partner.Partner, error) {
	p, err := scanPartner(s.tx.QueryRow(ctx, selectPartnerForUpdateSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, partner.ErrNotFound
		}
		return nil, fmt.Errorf("locking partner %q: %w", id, err)
	}
	return p, nil
}

func (s *txScope) UpdateOrder(ctx context.Context, o *order.Order) error {
	itemsJSON, err := marshalItems(o.Items)
	if err != nil {
		return err
	}

	ct, err := s.tx.Exec(ctx, updateOrderSQL,
		o.ID, string(o.Status), o.TotalAmount, itemsJSON, o.UpdatedAt, o.Version,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return order.ErrConcurrentModification
	}
	o.Version++
	return nil
}

func (s *txScope) UpdatePartner(ctx context.Context, p *partner.Partner) error {
	ct, err := s.tx.Exec(ctx, updatePartnerSQL,
		p.ID, p.AvailableCredit, p.UpdatedAt, p.Version,
	)
	if err != nil {
		return fmt.Errorf("updating partner %q: %w", p.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return order.ErrConcurrentModification
	}
	p.Version++
	return nil
}
