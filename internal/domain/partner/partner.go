// Package partner holds the partner aggregate: a business customer with a
// credit line. Available credit is the partner's ledger — it is debited when
// orders are approved and restored when approved orders are cancelled.
package partner

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/b2b-orders/internal/domain/listing"
)

// Sentinel errors for partner lookup and credit operations.
var (
	ErrNotFound           = fmt.Errorf("partner not found")
	ErrInsufficientCredit = fmt.Errorf("insufficient credit available")
	ErrNegativeAmount     = fmt.Errorf("amount must not be negative")
	ErrInvalidCreditLimit = fmt.Errorf("credit limit must not be negative")
	ErrEmptyName          = fmt.Errorf("partner name required")
	ErrEmptyID            = fmt.Errorf("partner id required")
)

// DuplicateError indicates a partner creation collided with an existing
// partner on a unique field ("id" or "name").
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("partner with %s %q already exists", e.Field, e.Value)
}

// Partner is a business customer with a credit line. AvailableCredit always
// stays within [0, CreditLimit]; both are NUMERIC(12,2) in storage.
type Partner struct {
	ID              string
	Name            string
	CreditLimit     decimal.Decimal
	AvailableCredit decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// New creates a partner with its full credit line available. The id is
// caller-supplied; uniqueness of id and name is enforced at creation time
// by the service.
func New(id, name string, creditLimit decimal.Decimal) (*Partner, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	if creditLimit.IsNegative() {
		return nil, ErrInvalidCreditLimit
	}

	now := time.Now()
	return &Partner{
		ID:              id,
		Name:            name,
		CreditLimit:     creditLimit,
		AvailableCredit: creditLimit,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// HasAvailableCredit reports whether at least amount of credit is available.
// Callers must not pass a negative amount.
func (p *Partner) HasAvailableCredit(amount decimal.Decimal) bool {
	return p.AvailableCredit.GreaterThanOrEqual(amount)
}

// Debit reserves amount from the available credit. It mutates only the
// in-memory ledger; persisting the partner is the caller's concern.
func (p *Partner) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !p.HasAvailableCredit(amount) {
		return ErrInsufficientCredit
	}
	p.AvailableCredit = p.AvailableCredit.Sub(amount)
	p.UpdatedAt = time.Now()
	return nil
}

// Credit restores amount of available credit, capped at the credit limit.
// Restoring more than was ever debited is silently clamped rather than
// rejected; see the double-cancel test documenting this.
func (p *Partner) Credit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	p.AvailableCredit = p.AvailableCredit.Add(amount)
	if p.AvailableCredit.GreaterThan(p.CreditLimit) {
		p.AvailableCredit = p.CreditLimit
	}
	p.UpdatedAt = time.Now()
	return nil
}

// Filter narrows partner listings. Only a creation date range is supported.
type Filter struct {
	From *time.Time
	To   *time.Time
}

// HasDateRange reports whether both ends of the date range are present.
func (f Filter) HasDateRange() bool { return f.From != nil && f.To != nil }

// Repository defines persistence operations for partners.
type Repository interface {
	Create(ctx context.Context, p *Partner) error
	GetByID(ctx context.Context, id string) (*Partner, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context, f Filter, page listing.Page, sort listing.Sort) ([]Partner, error)
}
