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
	"github.com/aaravmahajanofficial/juicebar-storefront/pkg/storefront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCheckoutHandler(t *testing.T) {
	t.Run("Success - preview names the blocker", func(t *testing.T) {
		// Arrange
		a := newApp(t)
		cart := cartOf(juice("1", 1, 50))
		a.withCart(t, cart)
		a.orders.On("Addresses", mock.Anything).Return([]models.Address{{ID: "5", Pincode: "520010", IsDefault: true}}, nil).Once()
		a.cartAPI.On("GetCart", mock.Anything).Return(cart, nil).Once()

		h := handlers.NewCheckoutHandler(a.checkout)
		rr := httptest.NewRecorder()

		// Act
		h.Preview()(rr, testutils.CreateTestRequestWithContext(http.MethodGet, "/api/v1/checkout/preview", nil, nil, nil))

		// Assert
		assert.Equal(t, http.StatusOK, rr.Code)

		var preview models.CheckoutPreview
		decodeData(t, decodeResponse(t, rr), &preview)
		assert.False(t, preview.CanPlace)
		assert.Equal(t, "Please select a branch from the menu", preview.Blocker)
	})

	t.Run("Success - places a cash order", func(t *testing.T) {
		// Arrange
		a := newApp(t)
		cart := cartOf(juice("1", 2, 60))
		a.withCart(t, cart)
		require.NoError(t, a.branches.Select(t.Context(), models.Branch{ID: "1", Name: "Benz Circle"}))
		a.orders.On("Addresses", mock.Anything).Return([]models.Address{{ID: "5", Pincode: "520010"}}, nil).Once()
		a.cartAPI.On("GetCart", mock.Anything).Return(cart, nil).Once()
		a.orders.On("Checkout", mock.Anything, storefront.CheckoutRequest{PaymentMethod: models.PaymentMethodCOD, AddressID: "5", BranchID: "1"}).
			Return(&models.Order{ID: "77", Status: "pending"}, nil).Once()
		a.cartAPI.On("RemoveCoupon", mock.Anything).Return(nil).Once()
		a.cartAPI.On("GetCart", mock.Anything).Return(cartOf(), nil).Once()

		h := handlers.NewCheckoutHandler(a.checkout)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"payment_method":"cod"}`), nil, nil)
		rr := httptest.NewRecorder()

		// Act
		h.PlaceOrder()(rr, req)

		// Assert
		assert.Equal(t, http.StatusCreated, rr.Code)

		var order models.Order
		decodeData(t, decodeResponse(t, rr), &order)
		assert.Equal(t, models.ID("77"), order.ID)
	})

	t.Run("Failure - unsupported payment method", func(t *testing.T) {
		// Arrange
		a := newApp(t)
		h := handlers.NewCheckoutHandler(a.checkout)
		req := testutils.CreateTestRequestWithContext(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"payment_method":"card"}`), nil, nil)
		rr := httptest.NewRecorder()

		// Act
		h.PlaceOrder()(rr, req)

		// Assert
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, appErrors.ErrCodeInvalidInput, decodeResponse(t, rr).Error.Code)
	})
}
