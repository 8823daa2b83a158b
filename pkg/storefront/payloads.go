package storefront

import (
	"encoding/json"
	"strings"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
)

// Wire shapes of the backend. They are converted to models at this boundary so no
// other package depends on backend field names.

type cartItemPayload struct {
	ID                  models.ID     `json:"id"`
	Juice               models.ID     `json:"juice"`
	JuiceName           string        `json:"juice_name"`
	JuiceImage          string        `json:"juice_image"`
	Quantity            int           `json:"quantity"`
	PriceAtAdded        models.Amount `json:"price_at_added"`
	CookingInstructions *string       `json:"cooking_instructions"`
}

type couponPayload struct {
	Code string `json:"code"`
}

type cartPayload struct {
	Items               []cartItemPayload `json:"items"`
	AppliedCoupon       *couponPayload    `json:"applied_coupon"`
	TotalAmount         models.Amount     `json:"total_amount"`
	CouponDiscount      models.Amount     `json:"coupon_discount"`
	FoodGST             models.Amount     `json:"food_gst"`
	DeliveryFeeBase     models.Amount     `json:"delivery_fee_base"`
	DeliveryGST         models.Amount     `json:"delivery_gst"`
	PlatformFee         models.Amount     `json:"platform_fee"`
	GrandTotal          models.Amount     `json:"grand_total"`
	FreeDelivery        bool              `json:"free_delivery"`
	OriginalDeliveryFee models.Amount     `json:"original_delivery_fee"`
}

func (p *cartPayload) toSnapshot() *models.CartSnapshot {

	snap := &models.CartSnapshot{
		Items: make([]models.CartLine, 0, len(p.Items)),
		Totals: models.CartTotals{
			Subtotal:            p.TotalAmount,
			CouponDiscount:      p.CouponDiscount,
			FoodGST:             p.FoodGST,
			DeliveryFeeBase:     p.DeliveryFeeBase,
			DeliveryGST:         p.DeliveryGST,
			PlatformFee:         p.PlatformFee,
			GrandTotal:          p.GrandTotal,
			FreeDeliveryApplied: p.FreeDelivery,
			OriginalDeliveryFee: p.OriginalDeliveryFee,
		},
	}

	for _, item := range p.Items {
		line := models.CartLine{
			ProductID:      item.Juice,
			ProductName:    item.JuiceName,
			ProductImage:   item.JuiceImage,
			Quantity:       item.Quantity,
			UnitPriceAtAdd: item.PriceAtAdded,
		}
		if item.CookingInstructions != nil {
			line.CookingInstructions = *item.CookingInstructions
		}

		snap.Items = append(snap.Items, line)
	}

	if p.AppliedCoupon != nil && strings.TrimSpace(p.AppliedCoupon.Code) != "" {
		snap.AppliedCoupon = &models.Coupon{
			Code:           p.AppliedCoupon.Code,
			DiscountAmount: p.CouponDiscount,
		}
	}

	return snap
}

type cartItemRequest struct {
	JuiceID      models.ID `json:"juice_id"`
	Quantity     int       `json:"quantity,omitempty"`
	Action       string    `json:"action,omitempty"`
	Instructions *string   `json:"instructions,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type orderItemPayload struct {
	ID           models.ID     `json:"id"`
	JuiceName    string        `json:"juice_name"`
	Quantity     int           `json:"quantity"`
	PricePerItem models.Amount `json:"price_per_item"`
	Subtotal     models.Amount `json:"subtotal"`
}

type orderPayload struct {
	ID              models.ID          `json:"id"`
	OrderNumber     string             `json:"order_number"`
	Status          string             `json:"status"`
	StatusDisplay   string             `json:"status_display"`
	PaymentMethod   string             `json:"payment_method"`
	PaymentStatus   string             `json:"payment_status"`
	FoodSubtotal    models.Amount      `json:"food_subtotal"`
	Discount        models.Amount      `json:"discount"`
	FoodGST         models.Amount      `json:"food_gst"`
	DeliveryFeeBase models.Amount      `json:"delivery_fee_base"`
	DeliveryGST     models.Amount      `json:"delivery_gst"`
	PlatformFee     models.Amount      `json:"platform_fee"`
	TotalAmount     models.Amount      `json:"total_amount"`
	CanCancel       bool               `json:"can_cancel"`
	CreatedAt       string             `json:"created_at"`
	Items           []orderItemPayload `json:"items"`
}

func (p *orderPayload) toOrder() *models.Order {

	order := &models.Order{
		ID:              p.ID,
		OrderNumber:     p.OrderNumber,
		Status:          p.Status,
		StatusDisplay:   p.StatusDisplay,
		PaymentMethod:   p.PaymentMethod,
		PaymentStatus:   p.PaymentStatus,
		FoodSubtotal:    p.FoodSubtotal,
		Discount:        p.Discount,
		FoodGST:         p.FoodGST,
		DeliveryFeeBase: p.DeliveryFeeBase,
		DeliveryGST:     p.DeliveryGST,
		PlatformFee:     p.PlatformFee,
		TotalAmount:     p.TotalAmount,
		CanCancel:       p.CanCancel,
		CreatedAt:       p.CreatedAt,
	}

	for _, item := range p.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:           item.ID,
			ProductName:  item.JuiceName,
			Quantity:     item.Quantity,
			PricePerItem: item.PricePerItem,
			Subtotal:     item.Subtotal,
		})
	}

	return order
}

// listOf accepts either a bare JSON array or a paginated {"results": [...]} object.
type listOf[T any] struct {
	Items []T
	Count int
	Next  *string
}

func (l *listOf[T]) UnmarshalJSON(data []byte) error {

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &l.Items); err != nil {
			return err
		}
		l.Count = len(l.Items)
		return nil
	}

	var page struct {
		Count   int     `json:"count"`
		Next    *string `json:"next"`
		Results []T     `json:"results"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return err
	}

	l.Items = page.Results
	l.Count = page.Count
	l.Next = page.Next

	if l.Count == 0 {
		l.Count = len(l.Items)
	}

	return nil
}
