package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustItem(t *testing.T, productID string, qty int, price string) Item {
	t.Helper()
	item, err := NewItem(productID, qty, decimal.RequireFromString(price))
	require.NoError(t, err)
	return item
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("APPROVED")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, st)

	_, err = ParseStatus("approved")
	require.Error(t, err)

	_, err = ParseStatus("REFUNDED")
	require.Error(t, err)
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusShipped.Terminal())
}

func TestNewItem_Validation(t *testing.T) {
	_, err := NewItem("prod-1", 0, decimal.NewFromInt(10))
	var iqErr *InvalidQuantityError
	require.ErrorAs(t, err, &iqErr)
	assert.Equal(t, "prod-1", iqErr.ProductID)

	_, err = NewItem("prod-1", 1, decimal.Zero)
	var upErr *InvalidUnitPriceError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "prod-1", upErr.ProductID)
}

func TestItemTotalPrice(t *testing.T) {
	item := mustItem(t, "prod-1", 3, "19.99")
	assert.True(t, item.TotalPrice().Equal(decimal.RequireFromString("59.97")))
}

func TestNew(t *testing.T) {
	o := New("P001", []Item{
		mustItem(t, "prod-1", 2, "100.00"),
		mustItem(t, "prod-2", 1, "15.50"),
	})

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, "P001", o.PartnerID)
	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("215.50")))
	assert.False(t, o.CreatedAt.IsZero())
}

func TestNew_EmptyItemsTolerated(t *testing.T) {
	// Current behavior: an order without items is built with a zero total
	// rather than rejected.
	o := New("P001", nil)
	assert.True(t, o.TotalAmount.IsZero())
	assert.Empty(t, o.Items)
}

func TestAddItem_RecomputesTotal(t *testing.T) {
	o := New("P001", []Item{mustItem(t, "prod-1", 2, "100.00")})
	require.True(t, o.TotalAmount.Equal(decimal.NewFromInt(200)))

	o.AddItem(mustItem(t, "prod-2", 4, "2.25"))

	assert.Len(t, o.Items, 2)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("209.00")))
}

func TestTotalAlwaysSumOfLines(t *testing.T) {
	o := New("P001", []Item{
		mustItem(t, "prod-1", 7, "3.33"),
		mustItem(t, "prod-2", 2, "0.01"),
	})
	o.AddItem(mustItem(t, "prod-3", 1, "1000.00"))

	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.TotalPrice())
	}
	assert.True(t, o.TotalAmount.Equal(sum))
}

func TestCanBeApproved(t *testing.T) {
	o := New("P001", nil)
	assert.True(t, o.CanBeApproved())

	for _, st := range []Status{StatusApproved, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		o.UpdateStatus(st)
		assert.False(t, o.CanBeApproved(), "status %s", st)
	}
}

func TestCanBeCancelled(t *testing.T) {
	o := New("P001", nil)

	for _, st := range []Status{StatusPending, StatusApproved, StatusProcessing, StatusShipped} {
		o.UpdateStatus(st)
		assert.True(t, o.CanBeCancelled(), "status %s", st)
	}
	for _, st := range []Status{StatusDelivered, StatusCancelled} {
		o.UpdateStatus(st)
		assert.False(t, o.CanBeCancelled(), "status %s", st)
	}
}

func TestUpdateStatus_Unconditional(t *testing.T) {
	// The aggregate records any transition; legality lives with the caller.
	o := New("P001", nil)
	o.UpdateStatus(StatusCancelled)
	o.UpdateStatus(StatusDelivered)
	assert.Equal(t, StatusDelivered, o.Status)
}

func TestFilterPresence(t *testing.T) {
	var f Filter
	assert.False(t, f.HasFilters())

	f.PartnerID = "  "
	assert.False(t, f.HasPartnerID(), "blank partner id is absent")

	f.PartnerID = "P001"
	assert.True(t, f.HasPartnerID())

	st := StatusApproved
	f.Status = &st
	assert.True(t, f.HasStatus())

	from := New("P001", nil).CreatedAt
	f.From = &from
	assert.False(t, f.HasDateRange(), "half-open range is absent")

	to := from.Add(1)
	f.To = &to
	assert.True(t, f.HasDateRange())
	assert.True(t, f.HasFilters())
}
