package models

// BillBreakdown is a derived, never persisted, bill. Values are full precision;
// call Rounded before display.
type BillBreakdown struct {
	FoodSubtotal         Amount `json:"food_subtotal"`
	CouponDiscount       Amount `json:"coupon_discount"`
	FoodGST              Amount `json:"food_gst"`
	DeliveryFeeBase      Amount `json:"delivery_fee_base"`
	DeliveryGST          Amount `json:"delivery_gst"`
	PlatformFee          Amount `json:"platform_fee"`
	GrandTotal           Amount `json:"grand_total"`
	FreeDeliveryApplied  bool   `json:"free_delivery_applied"`
	OriginalDeliveryFee  Amount `json:"original_delivery_fee"`
	IsDeliverable        bool   `json:"is_deliverable"`
	AmountToFreeDelivery Amount `json:"amount_to_free_delivery"`
	FreeDeliveryProgress Amount `json:"free_delivery_progress"`
}

func (b BillBreakdown) Rounded() BillBreakdown {
	b.FoodSubtotal = b.FoodSubtotal.Rounded()
	b.CouponDiscount = b.CouponDiscount.Rounded()
	b.FoodGST = b.FoodGST.Rounded()
	b.DeliveryFeeBase = b.DeliveryFeeBase.Rounded()
	b.DeliveryGST = b.DeliveryGST.Rounded()
	b.PlatformFee = b.PlatformFee.Rounded()
	b.GrandTotal = b.GrandTotal.Rounded()
	b.OriginalDeliveryFee = b.OriginalDeliveryFee.Rounded()
	b.AmountToFreeDelivery = b.AmountToFreeDelivery.Rounded()
	b.FreeDeliveryProgress = b.FreeDeliveryProgress.Rounded()

	return b
}

type EstimateRequest struct {
	Subtotal       Amount  `json:"subtotal"`
	PostalCode     string  `json:"postal_code"`
	FoodGST        *Amount `json:"food_gst,omitempty"`
	PlatformFee    Amount  `json:"platform_fee"`
	CouponDiscount Amount  `json:"coupon_discount"`
}

type EstimateResponse struct {
	Zone ZoneResolution `json:"zone"`
	Bill BillBreakdown  `json:"bill"`
}
