package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	service "github.com/aaravmahajanofficial/juicebar-storefront/internal/services"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type ZoneHandler struct {
	zones     *service.ZoneService
	validator *validator.Validate
}

func NewZoneHandler(zones *service.ZoneService) *ZoneHandler {
	return &ZoneHandler{zones: zones, validator: utils.NewValidator()}
}

func (h *ZoneHandler) ListZones() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.zones.Zones())
	}
}

// ResolveZone answers 200 for every postal code; an unserviceable code is a valid=false body.
func (h *ZoneHandler) ResolveZone() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, h.zones.Resolve(r.PathValue("postalCode")))
	}
}

func (h *ZoneHandler) Estimate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		var req models.EstimateRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		resp, err := h.zones.Estimate(req)
		if err != nil {
			logger.Warn("Estimate rejected", slog.Any("error", err))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, resp)
	}
}
