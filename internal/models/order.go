package models

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

type Address struct {
	ID           ID     `json:"id"`
	Label        string `json:"label,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	Landmark     string `json:"landmark,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	Pincode      string `json:"pincode"`
	IsDefault    bool   `json:"is_default"`
}

type OrderItem struct {
	ID           ID     `json:"id"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	PricePerItem Amount `json:"price_per_item"`
	Subtotal     Amount `json:"subtotal"`
}

type Order struct {
	ID              ID          `json:"id"`
	OrderNumber     string      `json:"order_number,omitempty"`
	Status          string      `json:"status"`
	StatusDisplay   string      `json:"status_display,omitempty"`
	PaymentMethod   string      `json:"payment_method,omitempty"`
	PaymentStatus   string      `json:"payment_status,omitempty"`
	FoodSubtotal    Amount      `json:"food_subtotal"`
	Discount        Amount      `json:"discount"`
	FoodGST         Amount      `json:"food_gst"`
	DeliveryFeeBase Amount      `json:"delivery_fee_base"`
	DeliveryGST     Amount      `json:"delivery_gst"`
	PlatformFee     Amount      `json:"platform_fee"`
	TotalAmount     Amount      `json:"total_amount"`
	CanCancel       bool        `json:"can_cancel"`
	CreatedAt       string      `json:"created_at,omitempty"`
	Items           []OrderItem `json:"items,omitempty"`
}

type PlaceOrderRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=cod online"`
	AddressID     ID            `json:"address_id"`
}

type CheckoutPreview struct {
	Address  *Address       `json:"address,omitempty"`
	Zone     ZoneResolution `json:"zone"`
	Bill     BillBreakdown  `json:"bill"`
	Cart     *CartSnapshot  `json:"cart"`
	Branch   *Branch        `json:"branch,omitempty"`
	CanPlace bool           `json:"can_place"`
	Blocker  string         `json:"blocker,omitempty"`
}
