// Package pricing derives bill breakdowns for pre-checkout previews. Estimates are
// deterministic: the cart screen and the checkout screen agree for the same inputs.
package pricing

import (
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/shopspring/decimal"
)

// Rates and thresholds are fixed for every call site.
var (
	FoodGSTRate           = decimal.RequireFromString("0.05")
	DeliveryGSTRate       = decimal.RequireFromString("0.18")
	FreeDeliveryThreshold = decimal.NewFromInt(99)
	FallbackDeliveryFee   = decimal.NewFromInt(20)

	hundred = decimal.NewFromInt(100)
)

// ServerFields are values the backend owns. When FoodGST is not valid the estimator
// falls back to FoodGSTRate applied to the discounted subtotal.
type ServerFields struct {
	FoodGST        decimal.NullDecimal
	PlatformFee    decimal.Decimal
	CouponDiscount decimal.Decimal
}

// Estimate builds a bill for subtotal delivered to zone. An undeliverable zone is not
// an error: the fallback fee is used and IsDeliverable is false.
func Estimate(subtotal decimal.Decimal, zone models.ZoneResolution, server ServerFields) (models.BillBreakdown, error) {

	if subtotal.IsNegative() {
		return models.BillBreakdown{}, errors.InvalidInputError("Subtotal cannot be negative")
	}

	if server.CouponDiscount.IsNegative() || server.PlatformFee.IsNegative() {
		return models.BillBreakdown{}, errors.InvalidInputError("Server supplied amounts cannot be negative")
	}

	nominalFee := FallbackDeliveryFee
	if zone.Valid {
		nominalFee = zone.DeliveryFee.Decimal
	}

	freeDelivery := subtotal.GreaterThanOrEqual(FreeDeliveryThreshold)

	deliveryFee := nominalFee
	if freeDelivery {
		deliveryFee = decimal.Zero
	}

	foodGST := FoodGSTRate.Mul(decimal.Max(subtotal.Sub(server.CouponDiscount), decimal.Zero))
	if server.FoodGST.Valid {
		foodGST = server.FoodGST.Decimal
	}

	deliveryGST := deliveryFee.Mul(DeliveryGSTRate)

	total := subtotal.
		Add(foodGST).
		Add(deliveryFee).
		Add(deliveryGST).
		Add(server.PlatformFee).
		Sub(server.CouponDiscount)

	return models.BillBreakdown{
		FoodSubtotal:         models.NewAmount(subtotal),
		CouponDiscount:       models.NewAmount(server.CouponDiscount),
		FoodGST:              models.NewAmount(foodGST),
		DeliveryFeeBase:      models.NewAmount(deliveryFee),
		DeliveryGST:          models.NewAmount(deliveryGST),
		PlatformFee:          models.NewAmount(server.PlatformFee),
		GrandTotal:           models.NewAmount(total),
		FreeDeliveryApplied:  freeDelivery,
		OriginalDeliveryFee:  models.NewAmount(nominalFee),
		IsDeliverable:        zone.Valid,
		AmountToFreeDelivery: models.NewAmount(AmountToFreeDelivery(subtotal)),
		FreeDeliveryProgress: models.NewAmount(FreeDeliveryProgress(subtotal)),
	}, nil
}

// EstimateCart previews the bill for an authoritative cart using its server totals.
func EstimateCart(cart *models.CartSnapshot, zone models.ZoneResolution) (models.BillBreakdown, error) {

	if cart == nil {
		cart = models.EmptyCart()
	}

	return Estimate(cart.Totals.Subtotal.Decimal, zone, ServerFields{
		FoodGST:        decimal.NewNullDecimal(cart.Totals.FoodGST.Decimal),
		PlatformFee:    cart.Totals.PlatformFee.Decimal,
		CouponDiscount: cart.Totals.CouponDiscount.Decimal,
	})
}

// AmountToFreeDelivery is how much more food is needed to reach the threshold.
func AmountToFreeDelivery(subtotal decimal.Decimal) decimal.Decimal {
	return decimal.Max(FreeDeliveryThreshold.Sub(subtotal), decimal.Zero)
}

// FreeDeliveryProgress is the percentage of the threshold reached, capped at 100.
func FreeDeliveryProgress(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsNegative() {
		return decimal.Zero
	}

	return decimal.Min(subtotal.Div(FreeDeliveryThreshold).Mul(hundred), hundred)
}
