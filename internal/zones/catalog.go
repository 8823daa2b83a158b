package zones

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

const (
	invalidInputMessage = "Please enter a valid pincode"
	defaultZoneColor    = "#999"
)

type catalogFile struct {
	ServiceArea  string      `yaml:"service_area"`
	DefaultColor string      `yaml:"default_color"`
	Zones        []zoneEntry `yaml:"zones"`
}

type zoneEntry struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	DeliveryFee string   `yaml:"delivery_fee"`
	ETA         string   `yaml:"eta"`
	Distance    string   `yaml:"distance"`
	Color       string   `yaml:"color"`
	PostalCodes []string `yaml:"postal_codes"`
}

// Catalog maps postal codes to delivery zones. It is immutable after construction
// and safe for concurrent use.
type Catalog struct {
	zones        []models.DeliveryZone
	byCode       map[string]int
	serviceArea  string
	defaultColor string
}

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded zone catalog is invalid: %v", err))
	}

	return c
}

// LoadFile reads a catalog from path; an empty path yields the embedded catalog.
func LoadFile(path string) (*Catalog, error) {

	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zone catalog %s: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse zone catalog: %w", err)
	}

	zones := make([]models.DeliveryZone, 0, len(file.Zones))
	for _, z := range file.Zones {

		fee := decimal.Zero
		if z.DeliveryFee != "" {
			parsed, err := decimal.NewFromString(z.DeliveryFee)
			if err != nil {
				return nil, fmt.Errorf("zone %s has an invalid delivery fee %q: %w", z.ID, z.DeliveryFee, err)
			}
			fee = parsed
		}

		zones = append(zones, models.DeliveryZone{
			ZoneID:        z.ID,
			Name:          z.Name,
			PostalCodes:   z.PostalCodes,
			DeliveryFee:   models.NewAmount(fee),
			ETARange:      z.ETA,
			DistanceRange: z.Distance,
			Color:         z.Color,
		})
	}

	c, err := NewCatalog(zones)
	if err != nil {
		return nil, err
	}

	c.serviceArea = file.ServiceArea
	if file.DefaultColor != "" {
		c.defaultColor = file.DefaultColor
	}

	return c, nil
}

func NewCatalog(zones []models.DeliveryZone) (*Catalog, error) {

	c := &Catalog{
		byCode:       make(map[string]int),
		defaultColor: defaultZoneColor,
	}

	for i, z := range zones {

		if z.ZoneID == "" {
			return nil, fmt.Errorf("zone %d has no id", i)
		}

		if z.DeliveryFee.IsNegative() {
			return nil, fmt.Errorf("zone %s has a negative delivery fee", z.ZoneID)
		}

		z.PostalCodes = slices.Clone(z.PostalCodes)

		for j, code := range z.PostalCodes {
			code = strings.TrimSpace(code)
			if code == "" {
				return nil, fmt.Errorf("zone %s has an empty postal code", z.ZoneID)
			}

			if other, exists := c.byCode[code]; exists {
				return nil, fmt.Errorf("postal code %s is listed in both %s and %s", code, c.zones[other].ZoneID, z.ZoneID)
			}

			z.PostalCodes[j] = code
			c.byCode[code] = i
		}

		c.zones = append(c.zones, z)
	}

	return c, nil
}

// Resolve looks up a postal code by exact match after trimming surrounding whitespace.
func (c *Catalog) Resolve(postalCode string) models.ZoneResolution {

	code := strings.TrimSpace(postalCode)

	if code == "" {
		return models.ZoneResolution{
			Valid:   false,
			Reason:  models.ZoneReasonInvalidInput,
			Message: invalidInputMessage,
		}
	}

	i, ok := c.byCode[code]
	if !ok {
		return models.ZoneResolution{
			Valid:                false,
			PostalCode:           code,
			Reason:               models.ZoneReasonUnserviceable,
			Message:              c.unserviceableMessage(),
			SuggestedPostalCodes: c.AllPostalCodes(),
		}
	}

	z := c.zones[i]

	return models.ZoneResolution{
		Valid:         true,
		PostalCode:    code,
		ZoneID:        z.ZoneID,
		ZoneName:      z.Name,
		DeliveryFee:   z.DeliveryFee,
		ETARange:      z.ETARange,
		DistanceRange: z.DistanceRange,
	}
}

func (c *Catalog) unserviceableMessage() string {
	if c.serviceArea == "" {
		return "Sorry, we don't deliver to this pincode yet."
	}

	return fmt.Sprintf("Sorry, we don't deliver to this pincode yet. We currently serve %s areas only.", c.serviceArea)
}

func (c *Catalog) Zones() []models.DeliveryZone {
	out := make([]models.DeliveryZone, len(c.zones))
	for i, z := range c.zones {
		z.PostalCodes = slices.Clone(z.PostalCodes)
		out[i] = z
	}

	return out
}

// AllPostalCodes lists every serviceable code in catalog order.
func (c *Catalog) AllPostalCodes() []string {
	var codes []string
	for _, z := range c.zones {
		codes = append(codes, z.PostalCodes...)
	}

	return codes
}

func (c *Catalog) Color(zoneID string) string {
	for _, z := range c.zones {
		if z.ZoneID == zoneID && z.Color != "" {
			return z.Color
		}
	}

	return c.defaultColor
}

// FormatFee renders a delivery fee for display.
func FormatFee(fee models.Amount) string {
	if fee.IsZero() {
		return "FREE"
	}

	return "₹" + fee.Decimal.String()
}
