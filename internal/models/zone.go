package models

const (
	ZoneReasonInvalidInput  = "INVALID_INPUT"
	ZoneReasonUnserviceable = "UNSERVICEABLE_AREA"
)

type DeliveryZone struct {
	ZoneID        string   `json:"zone_id"        yaml:"id"`
	Name          string   `json:"name"           yaml:"name"`
	PostalCodes   []string `json:"postal_codes"   yaml:"postal_codes"`
	DeliveryFee   Amount   `json:"delivery_fee"   yaml:"-"`
	ETARange      string   `json:"eta_range"      yaml:"eta"`
	DistanceRange string   `json:"distance_range" yaml:"distance"`
	Color         string   `json:"color"          yaml:"color"`
}

// ZoneResolution is the outcome of a postal-code lookup. An unmatched code is a
// normal result with Valid=false, never an error.
type ZoneResolution struct {
	Valid                bool     `json:"valid"`
	PostalCode           string   `json:"postal_code,omitempty"`
	ZoneID               string   `json:"zone_id,omitempty"`
	ZoneName             string   `json:"zone_name,omitempty"`
	DeliveryFee          Amount   `json:"delivery_fee"`
	ETARange             string   `json:"eta_range,omitempty"`
	DistanceRange        string   `json:"distance_range,omitempty"`
	Reason               string   `json:"reason,omitempty"`
	Message              string   `json:"message,omitempty"`
	SuggestedPostalCodes []string `json:"suggested_postal_codes,omitempty"`
}
