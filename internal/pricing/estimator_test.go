package pricing_test

import (
	"testing"

	appErrors "github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/pricing"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/zones"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEstimate(t *testing.T) {
	catalog := zones.Default()
	core := catalog.Resolve("520010")
	secondary := catalog.Resolve("520003")

	t.Run("Success - end to end example", func(t *testing.T) {
		// Arrange
		server := pricing.ServerFields{
			FoodGST:        decimal.NewNullDecimal(d("6.50")),
			PlatformFee:    d("5.00"),
			CouponDiscount: d("20.00"),
		}

		// Act
		bill, err := pricing.Estimate(d("150.00"), core, server)

		// Assert
		require.NoError(t, err)
		rounded := bill.Rounded()
		assert.Equal(t, "0.00", rounded.DeliveryFeeBase.Display())
		assert.Equal(t, "0.00", rounded.DeliveryGST.Display())
		assert.Equal(t, "141.50", rounded.GrandTotal.Display())
		assert.Equal(t, "20.00", rounded.OriginalDeliveryFee.Display())
		assert.True(t, bill.FreeDeliveryApplied)
		assert.True(t, bill.IsDeliverable)
	})

	t.Run("Success - free delivery exactly at threshold", func(t *testing.T) {
		bill, err := pricing.Estimate(d("99"), secondary, pricing.ServerFields{})

		require.NoError(t, err)
		assert.True(t, bill.DeliveryFeeBase.IsZero())
		assert.True(t, bill.FreeDeliveryApplied)
		assert.Equal(t, "100.00", bill.FreeDeliveryProgress.Display())
		assert.Equal(t, "0.00", bill.AmountToFreeDelivery.Display())
	})

	t.Run("Success - below threshold charges zone fee", func(t *testing.T) {
		bill, err := pricing.Estimate(d("98.99"), secondary, pricing.ServerFields{})

		require.NoError(t, err)
		assert.Equal(t, "40.00", bill.DeliveryFeeBase.Display())
		assert.Equal(t, "7.20", bill.DeliveryGST.Display())
		assert.False(t, bill.FreeDeliveryApplied)
		assert.Equal(t, "0.01", bill.AmountToFreeDelivery.Display())
	})

	t.Run("Success - food GST derived from discounted subtotal", func(t *testing.T) {
		bill, err := pricing.Estimate(d("80"), core, pricing.ServerFields{CouponDiscount: d("10")})

		require.NoError(t, err)
		assert.Equal(t, "3.50", bill.FoodGST.Display())
		// 80 + 3.5 + 20 + 3.6 + 0 - 10
		assert.Equal(t, "97.10", bill.Rounded().GrandTotal.Display())
	})

	t.Run("Success - discount larger than subtotal clamps GST base", func(t *testing.T) {
		bill, err := pricing.Estimate(d("10"), core, pricing.ServerFields{CouponDiscount: d("15")})

		require.NoError(t, err)
		assert.True(t, bill.FoodGST.IsZero())
	})

	t.Run("Undeliverable zone uses fallback fee", func(t *testing.T) {
		// Act
		bill, err := pricing.Estimate(d("80.00"), catalog.Resolve("400001"), pricing.ServerFields{})

		// Assert
		require.NoError(t, err)
		assert.False(t, bill.IsDeliverable)
		assert.Equal(t, "20.00", bill.DeliveryFeeBase.Display())
		assert.Equal(t, "107.60", bill.Rounded().GrandTotal.Display())
	})

	t.Run("Progress below threshold", func(t *testing.T) {
		assert.Equal(t, "50.00", pricing.FreeDeliveryProgress(d("49.5")).StringFixed(2))
	})

	t.Run("Failure - negative subtotal", func(t *testing.T) {
		_, err := pricing.Estimate(d("-1"), core, pricing.ServerFields{})

		assert.True(t, appErrors.HasCode(err, appErrors.ErrCodeInvalidInput))
	})

	t.Run("Deterministic", func(t *testing.T) {
		server := pricing.ServerFields{PlatformFee: d("5")}
		first, _ := pricing.Estimate(d("42.42"), core, server)
		second, _ := pricing.Estimate(d("42.42"), core, server)

		assert.Equal(t, first.Rounded(), second.Rounded())
	})
}

func TestEstimateCart(t *testing.T) {
	cart := &models.CartSnapshot{
		Totals: models.CartTotals{
			Subtotal:       models.MustAmount("60"),
			FoodGST:        models.MustAmount("3"),
			PlatformFee:    models.MustAmount("5"),
			CouponDiscount: models.MustAmount("0"),
		},
	}

	bill, err := pricing.EstimateCart(cart, zones.Default().Resolve("520010"))

	require.NoError(t, err)
	// 60 + 3 + 20 + 3.6 + 5
	assert.Equal(t, "91.60", bill.Rounded().GrandTotal.Display())

	empty, err := pricing.EstimateCart(nil, models.ZoneResolution{})
	require.NoError(t, err)
	assert.False(t, empty.IsDeliverable)
}
