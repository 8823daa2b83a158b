package service

import (
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/pricing"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/zones"
	"github.com/shopspring/decimal"
)

// ZoneService exposes the zone catalog and the estimator to the API layer.
type ZoneService struct {
	catalog *zones.Catalog
}

func NewZoneService(catalog *zones.Catalog) *ZoneService {
	return &ZoneService{catalog: catalog}
}

func (s *ZoneService) Zones() []models.DeliveryZone {
	return s.catalog.Zones()
}

func (s *ZoneService) Resolve(postalCode string) models.ZoneResolution {

	res := s.catalog.Resolve(postalCode)

	if res.Valid {
		metrics.ObserveZoneLookup(res.ZoneID)
	} else {
		metrics.ObserveZoneLookup(res.Reason)
	}

	return res
}

// Estimate resolves the postal code and prices the bill, rounded for display.
func (s *ZoneService) Estimate(req models.EstimateRequest) (*models.EstimateResponse, error) {

	zone := s.Resolve(req.PostalCode)

	server := pricing.ServerFields{
		PlatformFee:    req.PlatformFee.Decimal,
		CouponDiscount: req.CouponDiscount.Decimal,
	}
	if req.FoodGST != nil {
		server.FoodGST = decimal.NewNullDecimal(req.FoodGST.Decimal)
	}

	bill, err := pricing.Estimate(req.Subtotal.Decimal, zone, server)
	if err != nil {
		return nil, err
	}

	return &models.EstimateResponse{Zone: zone, Bill: bill.Rounded()}, nil
}

// EstimateCart prices cart for delivery to postalCode using the cart's server totals.
func (s *ZoneService) EstimateCart(cart *models.CartSnapshot, postalCode string) (*models.EstimateResponse, error) {

	zone := s.Resolve(postalCode)

	bill, err := pricing.EstimateCart(cart, zone)
	if err != nil {
		return nil, err
	}

	return &models.EstimateResponse{Zone: zone, Bill: bill.Rounded()}, nil
}
