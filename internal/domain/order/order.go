// Package order holds the order aggregate and its lifecycle service. An
// order belongs to a partner, carries line items whose sum is the order
// total, and moves through a small status machine guarded by the partner's
// credit ledger.
package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state, stored as text.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// ParseStatus converts a string to a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("unknown order status %q", s)
	}
}

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Sentinel errors for order lookup and construction.
var (
	ErrNotFound = fmt.Errorf("order not found")

	// ErrConcurrentModification is returned by version-checked writes when
	// the row changed under a transaction. Callers may retry.
	ErrConcurrentModification = fmt.Errorf("concurrent modification detected")
)

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InvalidUnitPriceError indicates a line item with a non-positive unit price.
type InvalidUnitPriceError struct {
	ProductID string
}

func (e *InvalidUnitPriceError) Error() string {
	return fmt.Sprintf("unit price must be greater than 0 for product %s", e.ProductID)
}

// InvalidTransitionError indicates a status precondition failed, e.g.
// approving a non-PENDING order or cancelling a terminal one.
type InvalidTransitionError struct {
	OrderID string
	From    Status
	To      Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %s cannot move from %s to %s", e.OrderID, e.From, e.To)
}

// OperationError wraps an unexpected downstream failure from a lifecycle
// operation, carrying the root cause. Business-rule rejections (not-found,
// invalid transition, insufficient credit) are surfaced as-is instead.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *OperationError) Unwrap() error { return e.Err }

// Item is a single order line. Items are owned by their order and have no
// independent lifecycle.
type Item struct {
	ID        string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// NewItem validates and builds a line item.
func NewItem(productID string, quantity int, unitPrice decimal.Decimal) (Item, error) {
	if quantity <= 0 {
		return Item{}, &InvalidQuantityError{ProductID: productID}
	}
	if !unitPrice.IsPositive() {
		return Item{}, &InvalidUnitPriceError{ProductID: productID}
	}
	return Item{
		ID:        uuid.New().String(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}, nil
}

// TotalPrice is the line total: quantity x unit price.
func (i Item) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is a purchase request owned by a partner. TotalAmount always equals
// the sum of the item line totals; it is recomputed whenever items change.
type Order struct {
	ID          string
	PartnerID   string
	Status      Status
	TotalAmount decimal.Decimal
	Items       []Item
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// New builds a PENDING order for the partner from the given items. An empty
// item list yields a zero-total order; current behavior tolerates that.
func New(partnerID string, items []Item) *Order {
	now := time.Now()
	o := &Order{
		ID:        uuid.New().String(),
		PartnerID: partnerID,
		Status:    StatusPending,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.recalcTotal()
	return o
}

// AddItem appends a line item and recomputes the total.
func (o *Order) AddItem(item Item) {
	o.Items = append(o.Items, item)
	o.recalcTotal()
	o.UpdatedAt = time.Now()
}

// CanBeApproved reports whether the order is still awaiting approval.
func (o *Order) CanBeApproved() bool {
	return o.Status == StatusPending
}

// CanBeCancelled reports whether the order has not reached a terminal state.
func (o *Order) CanBeCancelled() bool {
	return !o.Status.Terminal()
}

// UpdateStatus records the new status unconditionally; transition legality
// is the caller's responsibility via CanBeApproved/CanBeCancelled.
func (o *Order) UpdateStatus(newStatus Status) {
	o.Status = newStatus
	o.UpdatedAt = time.Now()
}

func (o *Order) recalcTotal() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.TotalPrice())
	}
	o.TotalAmount = total
}
