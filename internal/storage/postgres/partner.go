package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/b2b-orders/internal/domain/listing"
	"github.com/xenking/b2b-orders/internal/domain/partner"
)

const (
	partnerColumns = "id, name, credit_limit, available_credit, created_at, updated_at, version"

	insertPartnerSQL = `INSERT INTO partners (id, name, credit_limit, available_credit, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

	selectPartnerSQL = `SELECT ` + partnerColumns + ` FROM partners WHERE id = $1`

	partnerExistsByIDSQL   = `SELECT EXISTS (SELECT 1 FROM partners WHERE id = $1)`
	partnerExistsByNameSQL = `SELECT EXISTS (SELECT 1 FROM partners WHERE name = $1)`
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

var _ partner.Repository = (*PartnerRepository)(nil)

// PartnerRepository implements partner.Repository backed by PostgreSQL.
type PartnerRepository struct {
	pool *pgxpool.Pool
}

// NewPartnerRepository returns a PartnerRepository that uses the given pool.
func NewPartnerRepository(pool *pgxpool.Pool) *PartnerRepository {
	return &PartnerRepository{pool: pool}
}

// Create persists a new partner. Unique constraint violations are mapped to
// partner.DuplicateError so a lost creation race reads the same as a failed
// existence check.
func (r *PartnerRepository) Create(ctx context.Context, p *partner.Partner) error {
	_, err := r.pool.Exec(ctx, insertPartnerSQL,
		p.ID, p.Name, p.CreditLimit, p.AvailableCredit, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if dup := mapDuplicatePartner(err, p); dup != nil {
			return dup
		}
		return fmt.Errorf("creating partner %q: %w", p.ID, err)
	}
	return nil
}

// GetByID returns partner.ErrNotFound when no row matches.
func (r *PartnerRepository) GetByID(ctx context.Context, id string) (*partner.Partner, error) {
	p, err := scanPartner(r.pool.QueryRow(ctx, selectPartnerSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, partner.ErrNotFound
		}
		return nil, fmt.Errorf("finding partner %q: %w", id, err)
	}
	return p, nil
}

func (r *PartnerRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, partnerExistsByIDSQL, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking partner id %q: %w", id, err)
	}
	return exists, nil
}

func (r *PartnerRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, partnerExistsByNameSQL, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking partner name %q: %w", name, err)
	}
	return exists, nil
}

// List returns partners matching the filter, ordered by the requested sort
// or by creation time descending when none is given.
func (r *PartnerRepository) List(ctx context.Context, f partner.Filter, page listing.Page, sort listing.Sort) ([]partner.Partner, error) {
	query, args, err := buildPartnerListQuery(f, page, sort)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing partners: %w", err)
	}
	defer rows.Close()

	var partners []partner.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning partner row: %w", err)
		}
		partners = append(partners, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing partners: %w", err)
	}
	return partners, nil
}

// partnerSortColumns whitelists the sortable fields for partner listings and
// maps the API spelling to the column name.
var partnerSortColumns = map[string]string{
	"created_at":   "created_at",
	"createdAt":    "created_at",
	"updated_at":   "updated_at",
	"updatedAt":    "updated_at",
	"name":         "name",
	"credit_limit": "credit_limit",
	"creditLimit":  "credit_limit",
}

func buildPartnerListQuery(f partner.Filter, page listing.Page, sort listing.Sort) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + partnerColumns + " FROM partners")

	var args []any
	if f.HasDateRange() {
		args = append(args, *f.From, *f.To)
		sb.WriteString(" WHERE created_at BETWEEN $1 AND $2")
	}

	orderBy, err := orderByClause(sort, partnerSortColumns)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(orderBy)

	args = append(args, page.Limit(), page.Offset())
	sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)-1))
	sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))

	return sb.String(), args, nil
}

// orderByClause renders the ORDER BY for a whitelisted sort, defaulting to
// newest-first on creation time.
func orderByClause(sort listing.Sort, columns map[string]string) (string, error) {
	if sort.IsZero() {
		return " ORDER BY created_at DESC", nil
	}
	col, ok := columns[sort.Field]
	if !ok {
		return "", fmt.Errorf("unsupported sort field %q", sort.Field)
	}
	dir := " ASC"
	if sort.Desc {
		dir = " DESC"
	}
	return " ORDER BY " + col + dir, nil
}

// scanPartner reads one partner row in partnerColumns order.
func scanPartner(row pgx.Row) (*partner.Partner, error) {
	var p partner.Partner
	err := row.Scan(
		&p.ID, &p.Name, &p.CreditLimit, &p.AvailableCredit,
		&p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// mapDuplicatePartner converts a unique violation into the matching
// DuplicateError, or returns nil for other errors.
func mapDuplicatePartner(err error, p *partner.Partner) *partner.DuplicateError {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	if pgErr.ConstraintName == "partners_name_key" {
		return &partner.DuplicateError{Field: "name", Value: p.Name}
	}
	return &partner.DuplicateError{Field: "id", Value: p.ID}
}
