package postgres

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/b2b-orders/internal/domain/listing"
	"github.com/xenking/b2b-orders/internal/domain/order"
	"github.com/xenking/b2b-orders/internal/domain/partner"
)

var (
	testFrom = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	testTo   = time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

func orderFilter(partnerID bool, status bool, dates bool) order.Filter {
	var f order.Filter
	if partnerID {
		f.PartnerID = "P001"
	}
	if status {
		st := order.StatusApproved
		f.Status = &st
	}
	if dates {
		from, to := testFrom, testTo
		f.From, f.To = &from, &to
	}
	return f
}

// Every combination of the three optional filters maps to its own WHERE
// clause; present filters combine as AND predicates.
func TestBuildOrderListQuery_AllCombinations(t *testing.T) {
	tests := []struct {
		name                    string
		partnerID, status, date bool
		wantWhere               string
		wantArgs                int
	}{
		{"none", false, false, false, "", 2},
		{"partner only", true, false, false, " WHERE partner_id = $1", 3},
		{"status only", false, true, false, " WHERE status = $1", 3},
		{"date only", false, false, true, " WHERE created_at BETWEEN $1 AND $2", 4},
		{"partner and status", true, true, false, " WHERE partner_id = $1 AND status = $2", 4},
		{"partner and date", true, false, true, " WHERE partner_id = $1 AND created_at BETWEEN $2 AND $3", 5},
		{"status and date", false, true, true, " WHERE status = $1 AND created_at BETWEEN $2 AND $3", 5},
		{"all three", true, true, true, " WHERE partner_id = $1 AND status = $2 AND created_at BETWEEN $3 AND $4", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := orderFilter(tt.partnerID, tt.status, tt.date)

			query, args, err := buildOrderListQuery(f, listing.Page{Size: 20}.Normalize(), listing.Sort{})

			require.NoError(t, err)
			want := "SELECT " + orderColumns + " FROM orders" + tt.wantWhere +
				" ORDER BY created_at DESC"
			assert.Contains(t, query, want)
			assert.Len(t, args, tt.wantArgs, "filter args plus limit and offset")
		})
	}
}

// All three filters present must produce the triple-predicate query, never a
// two-filter fallback that silently drops one.
func TestBuildOrderListQuery_TripleFilterPrecedence(t *testing.T) {
	f := orderFilter(true, true, true)

	query, args, err := buildOrderListQuery(f, listing.Page{}.Normalize(), listing.Sort{})

	require.NoError(t, err)
	assert.Contains(t, query, "partner_id = $1")
	assert.Contains(t, query, "status = $2")
	assert.Contains(t, query, "created_at BETWEEN $3 AND $4")
	assert.Equal(t, "P001", args[0])
	assert.Equal(t, "APPROVED", args[1])
}

func TestBuildOrderListQuery_BlankPartnerIgnored(t *testing.T) {
	f := order.Filter{PartnerID: "   "}

	query, _, err := buildOrderListQuery(f, listing.Page{}.Normalize(), listing.Sort{})

	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
}

func TestBuildOrderListQuery_HalfOpenRangeIgnored(t *testing.T) {
	from := testFrom
	f := order.Filter{From: &from}

	query, _, err := buildOrderListQuery(f, listing.Page{}.Normalize(), listing.Sort{})

	require.NoError(t, err)
	assert.NotContains(t, query, "BETWEEN")
}

func TestBuildOrderListQuery_ExplicitSort(t *testing.T) {
	query, _, err := buildOrderListQuery(order.Filter{}, listing.Page{}.Normalize(),
		listing.Sort{Field: "total_amount", Desc: true})

	require.NoError(t, err)
	assert.Contains(t, query, " ORDER BY total_amount DESC")
}

func TestBuildOrderListQuery_SortFieldAlias(t *testing.T) {
	query, _, err := buildOrderListQuery(order.Filter{}, listing.Page{}.Normalize(),
		listing.Sort{Field: "totalAmount", Desc: true})

	require.NoError(t, err)
	assert.Contains(t, query, " ORDER BY total_amount DESC")
}

func TestBuildOrderListQuery_UnknownSortRejected(t *testing.T) {
	_, _, err := buildOrderListQuery(order.Filter{}, listing.Page{}.Normalize(),
		listing.Sort{Field: "partner_id; DROP TABLE orders"})

	require.Error(t, err)
}

func TestBuildOrderListQuery_Pagination(t *testing.T) {
	_, args, err := buildOrderListQuery(order.Filter{}, listing.Page{Number: 3, Size: 25}, listing.Sort{})

	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, 25, args[0], "limit")
	assert.Equal(t, 75, args[1], "offset")
}

func TestBuildPartnerListQuery(t *testing.T) {
	from, to := testFrom, testTo

	query, args, err := buildPartnerListQuery(
		partner.Filter{From: &from, To: &to},
		listing.Page{}.Normalize(),
		listing.Sort{},
	)

	require.NoError(t, err)
	assert.Contains(t, query, " WHERE created_at BETWEEN $1 AND $2")
	assert.Contains(t, query, " ORDER BY created_at DESC")
	assert.Len(t, args, 4)
}

func TestBuildPartnerListQuery_NoFilter(t *testing.T) {
	query, args, err := buildPartnerListQuery(partner.Filter{}, listing.Page{}.Normalize(), listing.Sort{Field: "name"})

	require.NoError(t, err)
	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, " ORDER BY name ASC")
	assert.Len(t, args, 2)
}

func TestMarshalItemsRoundTrip(t *testing.T) {
	items := []order.Item{
		{ID: "i1", ProductID: "prod-1", Quantity: 2, UnitPrice: mustDecimal(t, "19.99")},
		{ID: "i2", ProductID: "prod-2", Quantity: 1, UnitPrice: mustDecimal(t, "0.50")},
	}

	data, err := marshalItems(items)
	require.NoError(t, err)

	got, err := unmarshalItems(data)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, items[0].ID, got[0].ID)
	assert.Equal(t, items[1].Quantity, got[1].Quantity)
	assert.True(t, items[0].UnitPrice.Equal(got[0].UnitPrice))
}
