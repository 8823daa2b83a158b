package handlers_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/cache"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/config"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/events"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/juicebar-storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/juicebar-storefront/internal/services"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/services/mocks"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/utils/response"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/zones"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// app is the service graph the handlers run against, with the backend mocked out.
type app struct {
	store    repository.KeyValueStore
	limiter  repository.LoginLimiter
	bus      *events.Bus
	cartAPI  *mocks.CartBackend
	catalog  *mocks.CatalogBackend
	auth     *mocks.AuthBackend
	orders   *mocks.OrderBackend
	cart     *service.CartStore
	zones    *service.ZoneService
	catalogs *service.CatalogService
	branches *service.BranchService
	sessions *service.SessionService
	checkout *service.CheckoutService
	orderSvc *service.OrderService
}

func newApp(t *testing.T) *app {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a := &app{
		store:   repository.NewMemoryStore(),
		limiter: repository.NewMemoryLoginLimiter(2, time.Minute),
		bus:     events.NewBus(logger),
		cartAPI: mocks.NewCartBackend(t),
		catalog: mocks.NewCatalogBackend(t),
		auth:    mocks.NewAuthBackend(t),
		orders:  mocks.NewOrderBackend(t),
	}

	a.cart = service.NewCartStore(a.cartAPI, a.bus, config.Cart{InstructionsMaxWords: 30, LoadTimeout: time.Second}, logger)
	a.zones = service.NewZoneService(zones.Default())
	a.catalogs = service.NewCatalogService(a.catalog, cache.NewLRUCache(&config.CacheConfig{DefaultTTL: time.Minute, Size: 16}), time.Minute, logger)
	a.branches = service.NewBranchService(a.store, a.catalogs, a.cart, a.bus, logger)
	a.sessions = service.NewSessionService(a.auth, service.NewTokenVault(a.store, a.bus, logger), logger)
	a.checkout = service.NewCheckoutService(a.orders, a.cart, a.branches, a.zones, logger)
	a.orderSvc = service.NewOrderService(a.orders, logger)

	return a
}

// withCart activates the cart store on snap.
func (a *app) withCart(t *testing.T, snap *models.CartSnapshot) {
	t.Helper()

	a.cartAPI.On("GetCart", mock.Anything).Return(snap, nil).Once()
	require.True(t, a.cart.Activate(t.Context()).Success)
}

func cartOf(lines ...models.CartLine) *models.CartSnapshot {
	snap := models.EmptyCart()
	total := models.AmountFromInt(0)

	for _, l := range lines {
		snap.Items = append(snap.Items, l)
		total = models.NewAmount(total.Add(l.LineSubtotal().Decimal))
	}

	snap.Totals = models.CartTotals{Subtotal: total, GrandTotal: total}

	return snap
}

func juice(id string, quantity int, price int64) models.CartLine {
	return models.CartLine{ProductID: models.ID(id), ProductName: "Juice " + id, Quantity: quantity, UnitPriceAtAdd: models.AmountFromInt(price)}
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()

	var resp response.APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	return resp
}

// decodeData re-shapes the generic Data field into out.
func decodeData(t *testing.T, resp response.APIResponse, out any) {
	t.Helper()

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}
