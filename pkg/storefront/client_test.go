package storefront

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appErrors "github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	expired int
}

func (f *fakeTokens) AccessToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access, nil
}

func (f *fakeTokens) RefreshToken(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh, nil
}

func (f *fakeTokens) UpdateAccessToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = token
	return nil
}

func (f *fakeTokens) ExpireSession(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access, f.refresh = "", ""
	f.expired++
	return nil
}

func newTestClient(t *testing.T, handler http.Handler, tokens *fakeTokens) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(Config{
		BaseURL:            server.URL + "/api/",
		RequestTimeout:     2 * time.Second,
		RefreshTimeout:     time.Second,
		BreakerMaxFailures: 100,
		BreakerOpenTimeout: time.Second,
	}, tokens, nil)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requireCode(t *testing.T, err error, code string) *appErrors.AppError {
	t.Helper()

	appErr, ok := appErrors.IsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)

	return appErr
}

func TestGetCart(t *testing.T) {
	t.Run("Success - coerces numeric strings and maps wire fields", func(t *testing.T) {
		// Arrange
		tokens := &fakeTokens{access: "access-1", refresh: "refresh-1"}
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/cart/", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"items": [{"id": 9, "juice": 5, "juice_name": "Mango Blast", "quantity": 2, "price_at_added": "60.00", "cooking_instructions": null}],
				"applied_coupon": {"code": "SAVE10"},
				"total_amount": "120.00",
				"coupon_discount": "10.00",
				"food_gst": "5.50",
				"delivery_fee_base": 0,
				"delivery_gst": "0.00",
				"platform_fee": "5.00",
				"grand_total": "120.50",
				"free_delivery": true,
				"original_delivery_fee": "20.00"
			}`))
		})
		client := newTestClient(t, mux, tokens)

		// Act
		cart, err := client.GetCart(t.Context())

		// Assert
		require.NoError(t, err)
		require.Len(t, cart.Items, 1)
		assert.Equal(t, models.ID("5"), cart.Items[0].ProductID)
		assert.Equal(t, "Mango Blast", cart.Items[0].ProductName)
		assert.Equal(t, "60.00", cart.Items[0].UnitPriceAtAdd.Display())
		assert.Empty(t, cart.Items[0].CookingInstructions)
		require.NotNil(t, cart.AppliedCoupon)
		assert.Equal(t, "SAVE10", cart.AppliedCoupon.Code)
		assert.Equal(t, "10.00", cart.AppliedCoupon.DiscountAmount.Display())
		assert.Equal(t, "120.50", cart.Totals.GrandTotal.Display())
		assert.True(t, cart.Totals.FreeDeliveryApplied)
	})

	t.Run("Failure - no token means not authenticated without a request", func(t *testing.T) {
		// Arrange
		var hits atomic.Int32
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}), &fakeTokens{})

		// Act
		_, err := client.GetCart(t.Context())

		// Assert
		requireCode(t, err, appErrors.ErrCodeNotAuthenticated)
		assert.Equal(t, int32(0), hits.Load())
	})
}

func TestTokenRefresh(t *testing.T) {
	t.Run("Success - 401 refreshes once and retries", func(t *testing.T) {
		// Arrange
		tokens := &fakeTokens{access: "stale", refresh: "refresh-1"}
		var refreshes atomic.Int32

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
			refreshes.Add(1)
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "refresh-1", body["refresh"])
			writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
		})
		mux.HandleFunc("DELETE /api/cart/clear/", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
		client := newTestClient(t, mux, tokens)

		// Act
		err := client.ClearCart(t.Context())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int32(1), refreshes.Load())
		assert.Equal(t, "fresh", tokens.access)
		assert.Equal(t, 0, tokens.expired)
	})

	t.Run("Success - expired JWT is refreshed before sending", func(t *testing.T) {
		// Arrange
		expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		tokens := &fakeTokens{access: expired, refresh: "refresh-1"}
		var cartCalls atomic.Int32

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"access_token": "fresh"})
		})
		mux.HandleFunc("POST /api/cart/remove-coupon/", func(w http.ResponseWriter, r *http.Request) {
			cartCalls.Add(1)
			assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]string{})
		})
		client := newTestClient(t, mux, tokens)

		// Act
		err = client.RemoveCoupon(t.Context())

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int32(1), cartCalls.Load())
	})

	t.Run("Failure - rejected refresh expires the session", func(t *testing.T) {
		// Arrange
		tokens := &fakeTokens{access: "stale", refresh: "revoked"}

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		})
		mux.HandleFunc("GET /api/cart/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "expired"})
		})
		client := newTestClient(t, mux, tokens)

		// Act
		_, err := client.GetCart(t.Context())

		// Assert
		appErr := requireCode(t, err, appErrors.ErrCodeSessionExpired)
		assert.Equal(t, MsgSessionExpired, appErr.Message)
		assert.Equal(t, 1, tokens.expired)
		assert.Empty(t, tokens.access)
	})

	t.Run("Failure - second 401 after refresh expires the session", func(t *testing.T) {
		// Arrange
		tokens := &fakeTokens{access: "stale", refresh: "refresh-1"}

		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/users/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"access": "fresh"})
		})
		mux.HandleFunc("GET /api/cart/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "nope"})
		})
		client := newTestClient(t, mux, tokens)

		// Act
		_, err := client.GetCart(t.Context())

		// Assert
		requireCode(t, err, appErrors.ErrCodeSessionExpired)
		assert.Equal(t, 1, tokens.expired)
	})

	t.Run("Failure - missing refresh token expires the session", func(t *testing.T) {
		// Arrange
		tokens := &fakeTokens{access: "stale"}
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{})
		}), tokens)

		// Act
		err := client.AddToCart(t.Context(), "5", 1)

		// Assert
		requireCode(t, err, appErrors.ErrCodeSessionExpired)
		assert.Equal(t, 1, tokens.expired)
	})
}

func TestErrorNormalisation(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantServer  bool
	}{
		{"error string", http.StatusBadRequest, `{"error": "Invalid coupon code"}`, "Invalid coupon code", true},
		{"nested error message", http.StatusBadRequest, `{"error": {"message": "Coupon expired"}}`, "Coupon expired", true},
		{"detail", http.StatusBadRequest, `{"detail": "Juice not found"}`, "Juice not found", true},
		{"message", http.StatusConflict, `{"message": "Branch closed"}`, "Branch closed", true},
		{"empty body", http.StatusInternalServerError, ``, MsgServerError, false},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, MsgServerError, false},
	}

	for _, tc := range tests {
		t.Run("Failure - "+tc.name, func(t *testing.T) {
			// Arrange
			tokens := &fakeTokens{access: "access-1", refresh: "refresh-1"}
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}), tokens)

			// Act
			_, err := client.ApplyCoupon(t.Context(), "SAVE10")

			// Assert
			appErr := requireCode(t, err, appErrors.ErrCodeServerRejected)
			assert.Equal(t, tc.wantMessage, appErr.Message)
			assert.Equal(t, tc.status, appErr.StatusCode)
			assert.Equal(t, tc.wantServer, HasServerMessage(err))
		})
	}

	t.Run("Failure - slow backend is a timeout", func(t *testing.T) {
		// Arrange
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			server.Close()
		})

		client := New(Config{BaseURL: server.URL, RequestTimeout: 50 * time.Millisecond, RefreshTimeout: time.Second}, &fakeTokens{}, nil)

		// Act
		_, err := client.Branches(t.Context())

		// Assert
		appErr := requireCode(t, err, appErrors.ErrCodeTimeout)
		assert.Equal(t, MsgTimeout, appErr.Message)
	})

	t.Run("Failure - unreachable backend is a network error", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client := New(Config{BaseURL: url, RequestTimeout: time.Second, RefreshTimeout: time.Second}, &fakeTokens{}, nil)

		// Act
		_, err := client.Categories(t.Context())

		// Assert
		appErr := requireCode(t, err, appErrors.ErrCodeNetwork)
		assert.Equal(t, MsgNetwork, appErr.Message)
	})

	t.Run("Failure - open breaker short-circuits", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client := New(Config{
			BaseURL:            url,
			RequestTimeout:     time.Second,
			RefreshTimeout:     time.Second,
			BreakerMaxFailures: 1,
			BreakerOpenTimeout: time.Minute,
		}, &fakeTokens{}, nil)

		_, _ = client.Categories(t.Context())

		// Act
		_, err := client.Categories(t.Context())

		// Assert
		appErr := requireCode(t, err, appErrors.ErrCodeNetwork)
		assert.Equal(t, "backend circuit open", appErr.Detail)
	})
}

func TestCatalogEndpoints(t *testing.T) {
	t.Run("Success - paginated products with category filter", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/products/branches/{id}/products/", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "3", r.PathValue("id"))
			assert.Equal(t, "2", r.URL.Query().Get("page"))
			assert.Equal(t, "10", r.URL.Query().Get("page_size"))
			assert.Equal(t, "7", r.URL.Query().Get("category_id"))
			assert.Empty(t, r.Header.Get("Authorization"))

			_, _ = w.Write([]byte(`{"count": 12, "next": "http://x/?page=3", "previous": null,
				"results": [{"id": 1, "name": "Watermelon", "price": "49.00", "is_available": true}]}`))
		})
		client := newTestClient(t, mux, &fakeTokens{})

		// Act
		page, err := client.BranchProducts(t.Context(), "3", models.ProductQuery{Page: 2, PageSize: 10, CategoryID: "7"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 12, page.Count)
		assert.True(t, page.HasNext)
		require.Len(t, page.Results, 1)
		assert.Equal(t, "49.00", page.Results[0].Price.Display())
	})

	t.Run("Success - bare array of branches", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/products/branches/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`[{"id": 1, "name": "Benz Circle", "pincode": "520010"}, {"id": "2", "name": "MG Road"}]`))
		})
		client := newTestClient(t, mux, &fakeTokens{})

		// Act
		branches, err := client.Branches(t.Context())

		// Assert
		require.NoError(t, err)
		require.Len(t, branches, 2)
		assert.Equal(t, models.ID("1"), branches[0].ID)
		assert.Equal(t, models.ID("2"), branches[1].ID)
	})
}

func TestOrderEndpoints(t *testing.T) {
	t.Run("Success - checkout unwraps the order", func(t *testing.T) {
		// Arrange
		tokens := &fakeTokens{access: "access-1", refresh: "refresh-1"}
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/orders/checkout/", func(w http.ResponseWriter, r *http.Request) {
			var body CheckoutRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, models.PaymentMethodCOD, body.PaymentMethod)
			assert.Equal(t, models.ID("4"), body.AddressID)
			assert.Equal(t, models.ID("1"), body.BranchID)

			writeJSON(w, http.StatusCreated, map[string]any{"order": map[string]any{
				"id": 77, "status": "pending", "total_amount": "141.50", "can_cancel": true,
				"items": []map[string]any{{"id": 1, "juice_name": "Mango Blast", "quantity": 2, "price_per_item": "60", "subtotal": "120"}},
			}})
		})
		client := newTestClient(t, mux, tokens)

		// Act
		order, err := client.Checkout(t.Context(), CheckoutRequest{PaymentMethod: models.PaymentMethodCOD, AddressID: "4", BranchID: "1"})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, models.ID("77"), order.ID)
		assert.Equal(t, "141.50", order.TotalAmount.Display())
		require.Len(t, order.Items, 1)
		assert.Equal(t, "Mango Blast", order.Items[0].ProductName)
	})

	t.Run("Success - my orders accepts paginated results", func(t *testing.T) {
		// Arrange
		tokens := &fakeTokens{access: "access-1", refresh: "refresh-1"}
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/orders/my-orders/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"count": 1, "results": [{"id": 5, "status": "delivered", "total_amount": 99}]}`))
		})
		client := newTestClient(t, mux, tokens)

		// Act
		orders, err := client.MyOrders(t.Context())

		// Assert
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "delivered", orders[0].Status)
	})

	t.Run("Success - login returns the token bundle", func(t *testing.T) {
		// Arrange
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/users/login/", func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "a", "refresh_token": "r",
				"user": map[string]any{"id": 3, "email": "asha@example.com"},
			})
		})
		client := newTestClient(t, mux, &fakeTokens{})

		// Act
		session, err := client.Login(t.Context(), "asha@example.com", "secret")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "a", session.AccessToken)
		assert.Equal(t, "r", session.RefreshToken)
		require.NotNil(t, session.User)
		assert.Equal(t, models.ID("3"), session.User.ID)
	})
}
