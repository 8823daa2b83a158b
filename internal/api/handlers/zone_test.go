package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/api/handlers"
	appErrors "github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func TestZoneHandler(t *testing.T) {
	a := newApp(t)
	h := handlers.NewZoneHandler(a.zones)

	t.Run("Success - lists zones", func(t *testing.T) {
		// Arrange
		rr := httptest.NewRecorder()

		// Act
		h.ListZones()(rr, testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/zones", nil, nil))

		// Assert
		var zones []models.DeliveryZone
		decodeData(t, decodeResponse(t, rr), &zones)
		assert.Len(t, zones, 2)
	})

	t.Run("Success - unserviceable code is a normal answer", func(t *testing.T) {
		// Arrange
		rr := httptest.NewRecorder()
		req := testutils.CreateTestRequestWithoutContext(http.MethodGet, "/api/v1/zones/110001", nil, map[string]string{"postalCode": "110001"})

		// Act
		h.ResolveZone()(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var zone models.ZoneResolution
		decodeData(t, decodeResponse(t, rr), &zone)
		assert.False(t, zone.Valid)
		assert.Equal(t, models.ZoneReasonUnserviceable, zone.Reason)
		assert.NotEmpty(t, zone.SuggestedPostalCodes)
	})

	t.Run("Success - estimate accepts string and number amounts", func(t *testing.T) {
		// Arrange
		rr := httptest.NewRecorder()
		body := `{"subtotal":"98.00","postal_code":"521137","food_gst":4.9,"platform_fee":0,"coupon_discount":""}`
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/pricing/estimate", strings.NewReader(body), nil)

		// Act
		h.Estimate()(rr, req)

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var resp models.EstimateResponse
		decodeData(t, decodeResponse(t, rr), &resp)
		assert.Equal(t, "150.10", resp.Bill.GrandTotal.Display())
	})

	t.Run("Failure - negative subtotal", func(t *testing.T) {
		// Arrange
		rr := httptest.NewRecorder()
		req := testutils.CreateTestRequestWithoutContext(http.MethodPost, "/api/v1/pricing/estimate", strings.NewReader(`{"subtotal":-5,"postal_code":"520010"}`), nil)

		// Act
		h.Estimate()(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, appErrors.ErrCodeInvalidInput, decodeResponse(t, rr).Error.Code)
	})
}
