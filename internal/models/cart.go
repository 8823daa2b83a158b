package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

type CartState string

const (
	CartStateUnloaded CartState = "UNLOADED"
	CartStateLoading  CartState = "LOADING"
	CartStateReady    CartState = "READY"
	CartStateMutating CartState = "MUTATING"
)

type QuantityAction string

const (
	QuantityIncrement QuantityAction = "increment"
	QuantityDecrement QuantityAction = "decrement"
)

type Coupon struct {
	Code           string `json:"code"`
	DiscountAmount Amount `json:"discount_amount"`
}

type CartLine struct {
	ProductID           ID     `json:"product_id"`
	ProductName         string `json:"product_name,omitempty"`
	ProductImage        string `json:"product_image,omitempty"`
	Quantity            int    `json:"quantity"`
	UnitPriceAtAdd      Amount `json:"unit_price_at_add"`
	CookingInstructions string `json:"cooking_instructions,omitempty"`
	// Set on lines appended optimistically before the backend has priced them.
	Pending bool `json:"pending,omitempty"`
}

func (l CartLine) LineSubtotal() Amount {
	return NewAmount(l.UnitPriceAtAdd.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

type CartTotals struct {
	Subtotal            Amount `json:"subtotal"`
	CouponDiscount      Amount `json:"coupon_discount"`
	FoodGST             Amount `json:"food_gst"`
	DeliveryFeeBase     Amount `json:"delivery_fee_base"`
	DeliveryGST         Amount `json:"delivery_gst"`
	PlatformFee         Amount `json:"platform_fee"`
	GrandTotal          Amount `json:"grand_total"`
	FreeDeliveryApplied bool   `json:"free_delivery_applied"`
	OriginalDeliveryFee Amount `json:"original_delivery_fee"`
}

// CartSnapshot is one authoritative view of the cart. Items keep display order.
type CartSnapshot struct {
	Items         []CartLine `json:"items"`
	AppliedCoupon *Coupon    `json:"applied_coupon,omitempty"`
	Totals        CartTotals `json:"totals"`
}

func (c *CartSnapshot) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// ItemCount is the number of distinct lines, not the sum of quantities.
func (c *CartSnapshot) ItemCount() int {
	if c == nil {
		return 0
	}

	return len(c.Items)
}

func (c *CartSnapshot) LineIndex(productID ID) int {
	if c == nil {
		return -1
	}

	return slices.IndexFunc(c.Items, func(l CartLine) bool { return l.ProductID == productID })
}

func (c *CartSnapshot) Line(productID ID) (CartLine, bool) {
	i := c.LineIndex(productID)
	if i < 0 {
		return CartLine{}, false
	}

	return c.Items[i], true
}

// HasOrphanCoupon reports the one state a fetched cart must never settle in.
func (c *CartSnapshot) HasOrphanCoupon() bool {
	return c != nil && len(c.Items) == 0 && c.AppliedCoupon != nil
}

// Clone returns a deep copy safe to hand to callers.
func (c *CartSnapshot) Clone() *CartSnapshot {
	if c == nil {
		return nil
	}

	out := &CartSnapshot{
		Items:  slices.Clone(c.Items),
		Totals: c.Totals,
	}

	if out.Items == nil {
		out.Items = []CartLine{}
	}

	if c.AppliedCoupon != nil {
		coupon := *c.AppliedCoupon
		out.AppliedCoupon = &coupon
	}

	return out
}

func EmptyCart() *CartSnapshot {
	return &CartSnapshot{Items: []CartLine{}}
}

// AddItemRequest adds one unit when Quantity is omitted.
type AddItemRequest struct {
	ProductID ID   `json:"product_id" validate:"required"`
	Quantity  *int `json:"quantity"`
}

type ChangeQuantityRequest struct {
	Action QuantityAction `json:"action" validate:"required,oneof=increment decrement"`
}

type UpdateInstructionsRequest struct {
	Instructions string `json:"instructions" validate:"maxwords=500"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"max=64"`
}

// CartSummary pairs the cart with a bill preview for one postal code.
type CartSummary struct {
	Cart CartView       `json:"cart"`
	Zone ZoneResolution `json:"zone"`
	Bill BillBreakdown  `json:"bill"`
}

// CartView is what the UI layer renders for the cart screen.
type CartView struct {
	State     CartState     `json:"state"`
	Cart      *CartSnapshot `json:"cart"`
	ItemCount int           `json:"item_count"`
	Total     Amount        `json:"total"`
}
