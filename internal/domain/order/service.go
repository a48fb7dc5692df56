package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/b2b-orders/internal/domain/listing"
	"github.com/xenking/b2b-orders/internal/domain/partner"
)

// Repository defines persistence operations for orders outside the
// transactional lifecycle path.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter, page listing.Page, sort listing.Sort) ([]Order, error)
}

// Tx exposes row-locked reads and version-checked writes within a single
// storage transaction. The ForUpdate reads take exclusive row locks; updates
// compare the version column and fail with ErrConcurrentModification when
// the row changed since it was read.
type Tx interface {
	OrderForUpdate(ctx context.Context, id string) (*Order, error)
	PartnerForUpdate(ctx context.Context, id string) (*partner.Partner, error)
	UpdateOrder(ctx context.Context, o *Order) error
	UpdatePartner(ctx context.Context, p *partner.Partner) error
}

// TxRunner runs fn inside one atomic storage transaction: every mutation in
// fn commits together or not at all.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Notifier publishes a message to a topic. A false return means delivery
// failed; the lifecycle treats that as logged and non-fatal.
type Notifier interface {
	Send(ctx context.Context, topic, message string) bool
}

// Service orchestrates the order lifecycle: creation against a credit check,
// approval that debits the partner ledger, cancellation that restores it,
// and filtered listing.
//
// Lock discipline: approve and cancel always lock the order row first and
// the partner row second, so the two locks can never deadlock against each
// other.
type Service struct {
	orders   Repository
	partners partner.Repository
	tx       TxRunner
	notifier Notifier
	lg       *zap.Logger
}

// NewService creates an order Service with the required collaborators.
func NewService(
	orders Repository,
	partners partner.Repository,
	tx TxRunner,
	notifier Notifier,
	lg *zap.Logger,
) *Service {
	return &Service{
		orders:   orders,
		partners: partners,
		tx:       tx,
		notifier: notifier,
		lg:       lg,
	}
}

// ItemParams holds one requested order line.
type ItemParams struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	PartnerID string
	Items     []ItemParams
}

// Create builds and persists a PENDING order after checking — but not
// reserving — the partner's available credit. Two concurrent creations can
// therefore both pass the check; the conflict is resolved at approval time,
// where credit is actually debited under lock.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	s.lg.Info("creating order", zap.String("partner_id", req.PartnerID))

	p, err := s.partners.GetByID(ctx, req.PartnerID)
	if err != nil {
		if errors.Is(err, partner.ErrNotFound) {
			return nil, partner.ErrNotFound
		}
		s.lg.Error("partner lookup failed", zap.String("partner_id", req.PartnerID), zap.Error(err))
		return nil, &OperationError{Op: "create order", Err: err}
	}

	items := make([]Item, len(req.Items))
	for i, ip := range req.Items {
		item, err := NewItem(ip.ProductID, ip.Quantity, ip.UnitPrice)
		if err != nil {
			return nil, err
		}
		items[i] = item
	}

	o := New(req.PartnerID, items)

	if !p.HasAvailableCredit(o.TotalAmount) {
		s.lg.Info("order rejected: insufficient credit",
			zap.String("partner_id", req.PartnerID),
			zap.String("total", o.TotalAmount.String()),
			zap.String("available", p.AvailableCredit.String()),
		)
		return nil, partner.ErrInsufficientCredit
	}

	if err := s.orders.Create(ctx, o); err != nil {
		s.lg.Error("order creation failed", zap.String("order_id", o.ID), zap.Error(err))
		return nil, &OperationError{Op: "create order", Err: err}
	}

	s.publish(ctx, "orders.created", "order created: "+o.ID, o.ID)

	s.lg.Info("order created",
		zap.String("order_id", o.ID),
		zap.String("total", o.TotalAmount.String()),
	)
	return o, nil
}

// Approve transitions a PENDING order to APPROVED and debits the partner's
// credit for the order total. The order and partner rows are locked for the
// duration of the transaction, so concurrent approvals of the same order
// (or competing orders of the same partner) serialize here.
func (s *Service) Approve(ctx context.Context, orderID string) (*Order, error) {
	s.lg.Info("approving order", zap.String("order_id", orderID))

	var approved *Order
	err := s.tx.RunTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.CanBeApproved() {
			return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: StatusApproved}
		}

		p, err := tx.PartnerForUpdate(ctx, o.PartnerID)
		if err != nil {
			return err
		}
		if err := p.Debit(o.TotalAmount); err != nil {
			return err
		}

		o.UpdateStatus(StatusApproved)

		if err := tx.UpdatePartner(ctx, p); err != nil {
			return err
		}
		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}

		approved = o
		return nil
	})
	if err != nil {
		return nil, s.classify("approve order", orderID, err)
	}

	s.publish(ctx, "orders.approved", "order approved: "+orderID, orderID)

	s.lg.Info("order approved", zap.String("order_id", orderID))
	return approved, nil
}

// Cancel transitions a non-terminal order to CANCELLED. If the order had
// already been approved (or progressed further short of delivery), the
// partner's credit is restored by the order total first. Cancelling a
// PENDING order never touches the partner ledger.
func (s *Service) Cancel(ctx context.Context, orderID string) (*Order, error) {
	s.lg.Info("cancelling order", zap.String("order_id", orderID))

	var cancelled *Order
	err := s.tx.RunTx(ctx, func(ctx context.Context, tx Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.CanBeCancelled() {
			return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: StatusCancelled}
		}

		if creditReserved(o.Status) {
			p, err := tx.PartnerForUpdate(ctx, o.PartnerID)
			if err != nil {
				return err
			}
			if err := p.Credit(o.TotalAmount); err != nil {
				return err
			}
			if err := tx.UpdatePartner(ctx, p); err != nil {
				return err
			}
		}

		o.UpdateStatus(StatusCancelled)

		if err := tx.UpdateOrder(ctx, o); err != nil {
			return err
		}

		cancelled = o
		return nil
	})
	if err != nil {
		return nil, s.classify("cancel order", orderID, err)
	}

	s.publish(ctx, "orders.cancelled", "order cancelled: "+orderID, orderID)

	s.lg.Info("order cancelled", zap.String("order_id", orderID))
	return cancelled, nil
}

// Get returns an order by id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.lg.Error("order lookup failed", zap.String("order_id", id), zap.Error(err))
		return nil, &OperationError{Op: "get order", Err: err}
	}
	return o, nil
}

// List returns orders matching the filter, paginated. Without an explicit
// sort, results are ordered by creation time descending.
func (s *Service) List(ctx context.Context, f Filter, page listing.Page, sort listing.Sort) ([]Order, error) {
	orders, err := s.orders.List(ctx, f, page.Normalize(), sort)
	if err != nil {
		s.lg.Error("order listing failed", zap.Error(err))
		return nil, &OperationError{Op: "list orders", Err: err}
	}
	return orders, nil
}

// creditReserved reports whether an order in the given status holds debited
// partner credit that cancellation must restore.
func creditReserved(s Status) bool {
	switch s {
	case StatusApproved, StatusProcessing, StatusShipped:
		return true
	default:
		return false
	}
}

// classify passes business-rule rejections through untouched and wraps
// anything else once, logging before propagating.
func (s *Service) classify(op, orderID string, err error) error {
	var transition *InvalidTransitionError
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, partner.ErrNotFound),
		errors.Is(err, partner.ErrInsufficientCredit),
		errors.As(err, &transition):
		s.lg.Info("order operation rejected",
			zap.String("op", op),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return err
	case errors.Is(err, ErrConcurrentModification):
		s.lg.Warn("order operation hit concurrent modification",
			zap.String("op", op),
			zap.String("order_id", orderID),
		)
		return err
	default:
		s.lg.Error("order operation failed",
			zap.String("op", op),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return &OperationError{Op: op, Err: err}
	}
}

// publish sends a lifecycle notification; delivery failure is logged and
// never fails the operation.
func (s *Service) publish(ctx context.Context, topic, message, orderID string) {
	if !s.notifier.Send(ctx, topic, message) {
		s.lg.Warn("notification not delivered",
			zap.String("topic", topic),
			zap.String("order_id", orderID),
		)
	}
}
