package partner

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/b2b-orders/internal/domain/listing"
)

// OperationError wraps an unexpected downstream failure (storage, mapping)
// from a partner operation. Business-rule rejections are never wrapped.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *OperationError) Unwrap() error { return e.Err }

// Notifier publishes a message to a topic. A false return means delivery
// failed; senders treat that as non-fatal.
type Notifier interface {
	Send(ctx context.Context, topic, message string) bool
}

// Service implements partner management: creation with uniqueness checks and
// filtered listing. Credit debit/restore runs inside the order lifecycle
// transactions, not here.
type Service struct {
	partners Repository
	notifier Notifier
	lg       *zap.Logger
}

// NewService creates a partner Service.
func NewService(partners Repository, notifier Notifier, lg *zap.Logger) *Service {
	return &Service{
		partners: partners,
		notifier: notifier,
		lg:       lg,
	}
}

// CreateParams holds the input for creating a partner.
type CreateParams struct {
	ID          string
	Name        string
	CreditLimit decimal.Decimal
}

// Create registers a new partner with its full credit line available.
// A colliding id or name is rejected with a DuplicateError.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Partner, error) {
	s.lg.Info("creating partner",
		zap.String("partner_id", params.ID),
		zap.String("credit_limit", params.CreditLimit.String()),
	)

	p, err := New(params.ID, params.Name, params.CreditLimit)
	if err != nil {
		return nil, err
	}

	exists, err := s.partners.ExistsByID(ctx, params.ID)
	if err != nil {
		s.lg.Error("partner existence check failed", zap.String("partner_id", params.ID), zap.Error(err))
		return nil, &OperationError{Op: "create partner", Err: err}
	}
	if exists {
		return nil, &DuplicateError{Field: "id", Value: params.ID}
	}

	exists, err = s.partners.ExistsByName(ctx, params.Name)
	if err != nil {
		s.lg.Error("partner existence check failed", zap.String("partner_name", params.Name), zap.Error(err))
		return nil, &OperationError{Op: "create partner", Err: err}
	}
	if exists {
		return nil, &DuplicateError{Field: "name", Value: params.Name}
	}

	if err := s.partners.Create(ctx, p); err != nil {
		var dup *DuplicateError
		if errors.As(err, &dup) {
			// Lost a race with a concurrent creation; same outcome as the
			// existence checks above.
			return nil, dup
		}
		s.lg.Error("partner creation failed", zap.String("partner_id", params.ID), zap.Error(err))
		return nil, &OperationError{Op: "create partner", Err: err}
	}

	if !s.notifier.Send(ctx, "partners.created", "partner created: "+p.ID) {
		s.lg.Warn("partner created notification not delivered", zap.String("partner_id", p.ID))
	}

	s.lg.Info("partner created", zap.String("partner_id", p.ID))
	return p, nil
}

// Get returns a partner by id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Partner, error) {
	p, err := s.partners.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		s.lg.Error("partner lookup failed", zap.String("partner_id", id), zap.Error(err))
		return nil, &OperationError{Op: "get partner", Err: err}
	}
	return p, nil
}

// List returns partners matching the filter, paginated. Without an explicit
// sort, results are ordered by creation time descending.
func (s *Service) List(ctx context.Context, f Filter, page listing.Page, sort listing.Sort) ([]Partner, error) {
	partners, err := s.partners.List(ctx, f, page.Normalize(), sort)
	if err != nil {
		s.lg.Error("partner listing failed", zap.Error(err))
		return nil, &OperationError{Op: "list partners", Err: err}
	}
	return partners, nil
}
