package models

type ProductQuery struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	CategoryID ID  `json:"category_id,omitempty"`
}

type ProductPage struct {
	Results  []Product `json:"results"`
	Count    int       `json:"count"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
	HasNext  bool      `json:"has_next"`
}
