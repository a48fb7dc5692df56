package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/b2b-orders/internal/domain/listing"
	"github.com/xenking/b2b-orders/internal/domain/order"
)

const (
	orderColumns = "id, partner_id, status, total_amount, items, created_at, updated_at, version"

	insertOrderSQL = `INSERT INTO orders (id, partner_id, status, total_amount, items, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

	selectOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line
// items are serialized to JSON for storage in the JSONB column; they have no
// lifecycle outside their order row.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	itemsJSON, err := marshalItems(o.Items)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, insertOrderSQL,
		o.ID, o.PartnerID, string(o.Status), o.TotalAmount, itemsJSON, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// GetByID returns order.ErrNotFound when no row matches.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, selectOrderSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("finding order %q: %w", id, err)
	}
	return o, nil
}

// List returns orders matching the filter, ordered by the requested sort or
// by creation time descending when none is given.
func (r *OrderRepository) List(ctx context.Context, f order.Filter, page listing.Page, sort listing.Sort) ([]order.Order, error) {
	query, args, err := buildOrderListQuery(f, page, sort)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}

// orderSortColumns whitelists the sortable fields for order listings and
// maps the API spelling to the column name.
var orderSortColumns = map[string]string{
	"created_at":   "created_at",
	"createdAt":    "created_at",
	"updated_at":   "updated_at",
	"updatedAt":    "updated_at",
	"total_amount": "total_amount",
	"totalAmount":  "total_amount",
	"status":       "status",
}

// buildOrderListQuery composes the present filters as AND predicates, so
// every combination of partner, status and date range maps to its own query
// without explicit branching.
func buildOrderListQuery(f order.Filter, page listing.Page, sort listing.Sort) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.HasPartnerID() {
		conds = append(conds, "partner_id = "+arg(strings.TrimSpace(f.PartnerID)))
	}
	if f.HasStatus() {
		conds = append(conds, "status = "+arg(string(*f.Status)))
	}
	if f.HasDateRange() {
		conds = append(conds, "created_at BETWEEN "+arg(*f.From)+" AND "+arg(*f.To))
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + orderColumns + " FROM orders")
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	orderBy, err := orderByClause(sort, orderSortColumns)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(orderBy)

	sb.WriteString(" LIMIT " + arg(page.Limit()))
	sb.WriteString(" OFFSET " + arg(page.Offset()))

	return sb.String(), args, nil
}

// itemRecord is the JSONB representation of one order line.
type itemRecord struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func marshalItems(items []order.Item) ([]byte, error) {
	records := make([]itemRecord, len(items))
	for i, item := range items {
		records[i] = itemRecord{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshaling order items: %w", err)
	}
	return data, nil
}

func unmarshalItems(data []byte) ([]order.Item, error) {
	var records []itemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshaling order items: %w", err)
	}
	items := make([]order.Item, len(records))
	for i, rec := range records {
		items[i] = order.Item{
			ID:        rec.ID,
			ProductID: rec.ProductID,
			Quantity:  rec.Quantity,
			UnitPrice: rec.UnitPrice,
		}
	}
	return items, nil
}

// scanOrder reads one order row in orderColumns order.
func scanOrder(row pgx.Row) (*order.Order, error) {
	var (
		o         order.Order
		status    string
		itemsJSON []byte
	)
	err := row.Scan(
		&o.ID, &o.PartnerID, &status, &o.TotalAmount, &itemsJSON,
		&o.CreatedAt, &o.UpdatedAt, &o.Version,
	)
	if err != nil {
		return nil, err
	}

	o.Status = order.Status(status)
	if o.Items, err = unmarshalItems(itemsJSON); err != nil {
		return nil, err
	}
	return &o, nil
}
