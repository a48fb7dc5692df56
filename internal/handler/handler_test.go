package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/b2b-orders/internal/domain/listing"
	"github.com/xenking/b2b-orders/internal/domain/order"
	"github.com/xenking/b2b-orders/internal/domain/partner"
)

type stubOrderService struct {
	order *order.Order
	list  []order.Order
	err   error

	gotFilter order.Filter
	gotPage   listing.Page
	gotSort   listing.Sort
	gotID     string
}

func (s *stubOrderService) Create(_ context.Context, _ order.CreateRequest) (*order.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) Get(_ context.Context, id string) (*order.Order, error) {
	s.gotID = id
	return s.order, s.err
}

func (s *stubOrderService) List(_ context.Context, f order.Filter, page listing.Page, sort listing.Sort) ([]order.Order, error) {
	s.gotFilter, s.gotPage, s.gotSort = f, page, sort
	return s.list, s.err
}

func (s *stubOrderService) Approve(_ context.Context, id string) (*order.Order, error) {
	s.gotID = id
	return s.order, s.err
}

func (s *stubOrderService) Cancel(_ context.Context, id string) (*order.Order, error) {
	s.gotID = id
	return s.order, s.err
}

type stubPartnerService struct {
	partner *partner.Partner
	list    []partner.Partner
	err     error

	gotParams partner.CreateParams
	gotID     string
}

func (s *stubPartnerService) Create(_ context.Context, params partner.CreateParams) (*partner.Partner, error) {
	s.gotParams = params
	return s.partner, s.err
}

func (s *stubPartnerService) Get(_ context.Context, id string) (*partner.Partner, error) {
	s.gotID = id
	return s.partner, s.err
}

func (s *stubPartnerService) List(_ context.Context, _ partner.Filter, _ listing.Page, _ listing.Sort) ([]partner.Partner, error) {
	return s.list, s.err
}

func serve(t *testing.T, orders OrderService, partners PartnerService, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	New(orders, partners).Routes().ServeHTTP(rec, req)
	return rec
}

func testOrder(status order.Status) *order.Order {
	o := order.New("P001", []order.Item{
		{ID: "i1", ProductID: "SKU-1", Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
	})
	o.ID = "ord-1"
	o.Status = status
	return o
}

func TestCreateOrder(t *testing.T) {
	orders := &stubOrderService{order: testOrder(order.StatusPending)}

	rec := serve(t, orders, &stubPartnerService{}, http.MethodPost, "/api/v1/orders", createOrderRequest{
		PartnerID: "P001",
		Items: []orderItemRequest{
			{ProductID: "SKU-1", Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
		},
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ord-1", resp.ID)
	assert.Equal(t, "PENDING", resp.Status)
	assert.InDelta(t, 200.0, resp.TotalAmount, 1e-9)
}

func TestCreateOrder_InvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	New(&stubOrderService{}, &stubPartnerService{}).Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_MissingPartner(t *testing.T) {
	rec := serve(t, &stubOrderService{}, &stubPartnerService{}, http.MethodPost, "/api/v1/orders", createOrderRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "partnerId required")
}

func TestCreateOrder_InsufficientCredit(t *testing.T) {
	orders := &stubOrderService{err: partner.ErrInsufficientCredit}

	rec := serve(t, orders, &stubPartnerService{}, http.MethodPost, "/api/v1/orders", createOrderRequest{
		PartnerID: "P001",
		Items:     []orderItemRequest{{ProductID: "SKU-1", Quantity: 1, UnitPrice: decimal.RequireFromString("2000.00")}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	orders := &stubOrderService{err: order.ErrNotFound}

	rec := serve(t, orders, &stubPartnerService{}, http.MethodGet, "/api/v1/orders/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "missing", orders.gotID)
}

func TestApproveOrder(t *testing.T) {
	orders := &stubOrderService{order: testOrder(order.StatusApproved)}

	rec := serve(t, orders, &stubPartnerService{}, http.MethodPost, "/api/v1/orders/ord-1/approve", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ord-1", orders.gotID)
	assert.Contains(t, rec.Body.String(), `"status":"APPROVED"`)
}

func TestApproveOrder_InvalidTransition(t *testing.T) {
	orders := &stubOrderService{err: &order.InvalidTransitionError{
		OrderID: "ord-1",
		From:    order.StatusCancelled,
		To:      order.StatusApproved,
	}}

	rec := serve(t, orders, &stubPartnerService{}, http.MethodPost, "/api/v1/orders/ord-1/approve", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveOrder_Conflict(t *testing.T) {
	orders := &stubOrderService{err: order.ErrConcurrentModification}

	rec := serve(t, orders, &stubPartnerService{}, http.MethodPost, "/api/v1/orders/ord-1/approve", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	orders := &stubOrderService{order: testOrder(order.StatusCancelled)}

	rec := serve(t, orders, &stubPartnerService{}, http.MethodPost, "/api/v1/orders/ord-1/cancel", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"CANCELLED"`)
}

func TestListOrders_Filters(t *testing.T) {
	orders := &stubOrderService{list: []order.Order{*testOrder(order.StatusApproved)}}

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	target := "/api/v1/orders?partnerId=P001&status=APPROVED" +
		"&startDate=" + from.Format(time.RFC3339) +
		"&endDate=" + to.Format(time.RFC3339) +
		"&page=2&size=10&sort=totalAmount,desc"

	rec := serve(t, orders, &stubPartnerService{}, http.MethodGet, target, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "P001", orders.gotFilter.PartnerID)
	require.NotNil(t, orders.gotFilter.Status)
	assert.Equal(t, order.StatusApproved, *orders.gotFilter.Status)
	require.NotNil(t, orders.gotFilter.From)
	assert.True(t, orders.gotFilter.From.Equal(from))
	require.NotNil(t, orders.gotFilter.To)
	assert.True(t, orders.gotFilter.To.Equal(to))
	assert.Equal(t, listing.Page{Number: 2, Size: 10}, orders.gotPage)
	assert.Equal(t, listing.Sort{Field: "totalAmount", Desc: true}, orders.gotSort)
}

func TestListOrders_InvalidStatus(t *testing.T) {
	rec := serve(t, &stubOrderService{}, &stubPartnerService{}, http.MethodGet, "/api/v1/orders?status=BOGUS", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_InvalidPage(t *testing.T) {
	rec := serve(t, &stubOrderService{}, &stubPartnerService{}, http.MethodGet, "/api/v1/orders?page=-1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_InvalidSortDirection(t *testing.T) {
	rec := serve(t, &stubOrderService{}, &stubPartnerService{}, http.MethodGet, "/api/v1/orders?sort=createdAt,sideways", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders_StorageError(t *testing.T) {
	orders := &stubOrderService{err: errors.New("boom")}

	rec := serve(t, orders, &stubPartnerService{}, http.MethodGet, "/api/v1/orders", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestCreatePartner(t *testing.T) {
	p, err := partner.New("P010", "Contoso Ltd", decimal.RequireFromString("500.00"))
	require.NoError(t, err)
	partners := &stubPartnerService{partner: p}

	rec := serve(t, &stubOrderService{}, partners, http.MethodPost, "/api/v1/partners", createPartnerRequest{
		ID:          "P010",
		Name:        "Contoso Ltd",
		CreditLimit: decimal.RequireFromString("500.00"),
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "P010", partners.gotParams.ID)

	var resp partnerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Contoso Ltd", resp.Name)
	assert.InDelta(t, 500.0, resp.CreditLimit, 1e-9)
	assert.InDelta(t, 500.0, resp.AvailableCredit, 1e-9)
}

func TestCreatePartner_Duplicate(t *testing.T) {
	partners := &stubPartnerService{err: &partner.DuplicateError{Field: "id", Value: "P010"}}

	rec := serve(t, &stubOrderService{}, partners, http.MethodPost, "/api/v1/partners", createPartnerRequest{
		ID:          "P010",
		Name:        "Contoso Ltd",
		CreditLimit: decimal.RequireFromString("500.00"),
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "P010")
}

func TestGetPartner_NotFound(t *testing.T) {
	partners := &stubPartnerService{err: partner.ErrNotFound}

	rec := serve(t, &stubOrderService{}, partners, http.MethodGet, "/api/v1/partners/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPartners(t *testing.T) {
	p, err := partner.New("P001", "Acme Wholesale", decimal.RequireFromString("1000.00"))
	require.NoError(t, err)
	partners := &stubPartnerService{list: []partner.Partner{*p}}

	rec := serve(t, &stubOrderService{}, partners, http.MethodGet, "/api/v1/partners", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []partnerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Acme Wholesale", resp[0].Name)
}
