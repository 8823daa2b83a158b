package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/config"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/events"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/metrics"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	"github.com/aaravmahajanofficial/juicebar-storefront/pkg/storefront"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/singleflight"
)

const (
	msgLoginRequired      = "Please login first"
	msgCartLoading        = "Your cart is still loading. Please try again."
	msgFetchFailed        = "Failed to load cart"
	msgAddFailed          = "Failed to add to cart"
	msgUpdateFailed       = "Failed to update cart"
	msgInstructionsFailed = "Failed to update instructions"
	msgRemoveFailed       = "Failed to remove item"
	msgCouponFailed       = "Failed to apply coupon"
	msgRemoveCouponFailed = "Failed to remove coupon"
	msgClearFailed        = "Failed to clear cart"
	msgItemNotInCart      = "Item not found in cart"
)

// CartStore owns the cart of the current session. Every mutation follows the same
// path: optional optimistic change, backend call, then an authoritative re-fetch that
// replaces the local view wholesale. Mutations are not serialised; the last re-fetch
// to finish wins.
//
// Results of calls that started before the session ended are discarded.
type CartStore struct {
	backend     CartBackend
	bus         *events.Bus
	logger      *slog.Logger
	sanitizer   *bluemonday.Policy
	maxWords    int
	loadTimeout time.Duration
	loads       singleflight.Group

	mu        sync.Mutex
	state     models.CartState
	loading   bool
	inflight  int
	epoch     uint64
	confirmed *models.CartSnapshot
	view      *models.CartSnapshot
}

func NewCartStore(backend CartBackend, bus *events.Bus, cfg config.Cart, logger *slog.Logger) *CartStore {

	if logger == nil {
		logger = slog.Default()
	}

	maxWords := cfg.InstructionsMaxWords
	if maxWords <= 0 {
		maxWords = 30
	}

	loadTimeout := cfg.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = 20 * time.Second
	}

	return &CartStore{
		backend:     backend,
		bus:         bus,
		logger:      logger,
		sanitizer:   bluemonday.StrictPolicy(),
		maxWords:    maxWords,
		loadTimeout: loadTimeout,
		state:       models.CartStateUnloaded,
	}
}

// Subscribe ties the store's lifecycle to session events. The returned func detaches it.
func (s *CartStore) Subscribe() func() {

	// LOADING is entered before the publisher returns; only the fetch is detached.
	stopStarted := events.Subscribe(s.bus, func(ctx context.Context, _ events.SessionStarted) {
		epoch := s.start(ctx)
		go s.load(context.WithoutCancel(ctx), epoch)
	})

	stopEnded := events.Subscribe(s.bus, func(ctx context.Context, e events.SessionEnded) {
		s.logger.Info("🛒 Session ended, tearing down cart", slog.String("reason", string(e.Reason)))
		s.Deactivate(ctx)
	})

	return func() {
		stopStarted()
		stopEnded()
	}
}

// Activate starts a new cart lifecycle and performs the initial fetch.
func (s *CartStore) Activate(ctx context.Context) models.Result {
	return s.load(ctx, s.start(ctx))
}

// start opens a new lifecycle in LOADING and returns its epoch.
func (s *CartStore) start(ctx context.Context) uint64 {

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.state = models.CartStateLoading
	s.loading = true
	s.inflight = 0
	s.confirmed, s.view = nil, nil
	s.mu.Unlock()

	s.publish(ctx)

	return epoch
}

// Deactivate drops the cart and invalidates every in-flight continuation.
func (s *CartStore) Deactivate(ctx context.Context) {

	s.mu.Lock()
	s.epoch++
	s.state = models.CartStateUnloaded
	s.loading = false
	s.inflight = 0
	s.confirmed, s.view = nil, nil
	s.mu.Unlock()

	s.publish(ctx)
}

func (s *CartStore) load(ctx context.Context, epoch uint64) models.Result {

	v, _, _ := s.loads.Do(strconv.FormatUint(epoch, 10), func() (any, error) {

		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		snap, err := s.fetch(lctx)

		s.mu.Lock()
		if epoch != s.epoch {
			s.mu.Unlock()
			s.logger.Debug("Discarding cart load from an ended session")
			return models.Failed(errors.ErrCodeNotAuthenticated, msgLoginRequired), nil
		}

		s.loading = false
		if err == nil {
			s.replace(snap)
		}
		s.settle()
		s.mu.Unlock()

		s.publish(ctx)

		if err != nil {
			s.logger.Warn("⚠️ Failed to load cart", slog.Any("error", err))
			return cartFailure(err, msgFetchFailed), nil
		}

		s.logger.Info("🛒 Cart loaded", slog.Int("item_count", snap.ItemCount()))

		return models.Succeeded(""), nil
	})

	return v.(models.Result)
}

// Refresh replaces the local view with the backend's cart.
func (s *CartStore) Refresh(ctx context.Context) models.Result {

	epoch, res, ok := s.begin(ctx)
	if !ok {
		return res
	}
	defer s.end(ctx, epoch)

	if err := s.reconcile(ctx, epoch); err != nil {
		s.revert(epoch)
		return cartFailure(err, msgFetchFailed)
	}

	return models.Succeeded("")
}

func (s *CartStore) AddItem(ctx context.Context, productID models.ID, quantity int) models.Result {
	return s.run(ctx, mutation{
		name:     "add_item",
		success:  "Item added to cart",
		fallback: msgAddFailed,
		check: func(*models.CartSnapshot) *errors.AppError {
			if productID.IsZero() {
				return errors.InvalidInputError("Please choose an item to add")
			}

			if quantity < 1 {
				return errors.InvalidQuantityError("Quantity must be at least 1")
			}

			return nil
		},
		optimistic: func(cart *models.CartSnapshot) {
			if i := cart.LineIndex(productID); i >= 0 {
				cart.Items[i].Quantity += quantity
				return
			}

			cart.Items = append(cart.Items, models.CartLine{
				ProductID: productID,
				Quantity:  quantity,
				Pending:   true,
			})
		},
		call: func(ctx context.Context) (string, error) {
			return "", s.backend.AddToCart(ctx, productID, quantity)
		},
	})
}

// ChangeQuantity moves a line up or down by one. Decrementing a line at quantity 1 is
// rejected; removal is a separate action.
func (s *CartStore) ChangeQuantity(ctx context.Context, productID models.ID, action models.QuantityAction) models.Result {

	delta := 1
	if action == models.QuantityDecrement {
		delta = -1
	}

	return s.run(ctx, mutation{
		name:     "change_quantity",
		success:  "Cart updated",
		fallback: msgUpdateFailed,
		check: func(cart *models.CartSnapshot) *errors.AppError {
			if action != models.QuantityIncrement && action != models.QuantityDecrement {
				return errors.InvalidInputError("Action must be increment or decrement")
			}

			line, ok := cart.Line(productID)
			if !ok {
				return errors.NotFoundError(msgItemNotInCart)
			}

			if action == models.QuantityDecrement && line.Quantity <= 1 {
				return errors.InvalidQuantityError("Quantity cannot go below 1. Remove the item instead.")
			}

			return nil
		},
		optimistic: func(cart *models.CartSnapshot) {
			if i := cart.LineIndex(productID); i >= 0 {
				cart.Items[i].Quantity += delta
			}
		},
		call: func(ctx context.Context) (string, error) {
			return "", s.backend.UpdateCartItem(ctx, productID, action)
		},
	})
}

// UpdateInstructions shows the new text immediately. Markup is stripped before it is
// sent.
func (s *CartStore) UpdateInstructions(ctx context.Context, productID models.ID, text string) models.Result {

	clean := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))

	return s.run(ctx, mutation{
		name:     "update_instructions",
		success:  "Instructions updated",
		fallback: msgInstructionsFailed,
		check: func(cart *models.CartSnapshot) *errors.AppError {
			if words := len(strings.Fields(text)); words > s.maxWords {
				return errors.InvalidInputError(fmt.Sprintf("Instructions cannot exceed %d words", s.maxWords))
			}

			if cart.LineIndex(productID) < 0 {
				return errors.NotFoundError(msgItemNotInCart)
			}
			return nil
		},
		optimistic: func(cart *models.CartSnapshot) {
			if i := cart.LineIndex(productID); i >= 0 {
				cart.Items[i].CookingInstructions = clean
			}
		},
		call: func(ctx context.Context) (string, error) {
			return "", s.backend.UpdateInstructions(ctx, productID, clean)
		},
	})
}

// RemoveItem waits for the backend before the line disappears.
func (s *CartStore) RemoveItem(ctx context.Context, productID models.ID) models.Result {
	return s.run(ctx, mutation{
		name:     "remove_item",
		success:  "Item removed from cart",
		fallback: msgRemoveFailed,
		check: func(*models.CartSnapshot) *errors.AppError {
			if productID.IsZero() {
				return errors.InvalidInputError("Please choose an item to remove")
			}
			return nil
		},
		call: func(ctx context.Context) (string, error) {
			return "", s.backend.RemoveFromCart(ctx, productID)
		},
		settled: func(cart *models.CartSnapshot) {
			if i := cart.LineIndex(productID); i >= 0 {
				cart.Items = slices.Delete(cart.Items, i, i+1)
			}
		},
	})
}

// ApplyCoupon normalises the code to upper case. Eligibility is the backend's call.
func (s *CartStore) ApplyCoupon(ctx context.Context, code string) models.Result {

	code = strings.ToUpper(strings.TrimSpace(code))

	return s.run(ctx, mutation{
		name:     "apply_coupon",
		success:  "Coupon applied successfully",
		fallback: msgCouponFailed,
		check: func(*models.CartSnapshot) *errors.AppError {
			if code == "" {
				return errors.InvalidInputError("Please enter a coupon code")
			}
			return nil
		},
		call: func(ctx context.Context) (string, error) {
			return s.backend.ApplyCoupon(ctx, code)
		},
	})
}

// RemoveCoupon is idempotent: a rejection is a success when the cart has no coupon
// afterwards.
func (s *CartStore) RemoveCoupon(ctx context.Context) models.Result {
	return s.run(ctx, mutation{
		name:     "remove_coupon",
		success:  "Coupon removed",
		fallback: msgRemoveCouponFailed,
		call: func(ctx context.Context) (string, error) {
			return "", s.backend.RemoveCoupon(ctx)
		},
		settled: func(cart *models.CartSnapshot) {
			cart.AppliedCoupon = nil
		},
		satisfied: func(cart *models.CartSnapshot) bool {
			return cart == nil || cart.AppliedCoupon == nil
		},
	})
}

// Clear empties the cart on the backend. Used before a confirmed branch switch.
func (s *CartStore) Clear(ctx context.Context) models.Result {
	return s.run(ctx, mutation{
		name:     "clear_cart",
		success:  "Cart cleared",
		fallback: msgClearFailed,
		call: func(ctx context.Context) (string, error) {
			return "", s.backend.ClearCart(ctx)
		},
		settled: func(cart *models.CartSnapshot) {
			*cart = *models.EmptyCart()
		},
		satisfied: func(cart *models.CartSnapshot) bool {
			return cart.IsEmpty()
		},
	})
}

// ResetAfterOrder drops any leftover coupon and re-reads the cart after checkout.
func (s *CartStore) ResetAfterOrder(ctx context.Context) models.Result {

	epoch, res, ok := s.begin(ctx)
	if !ok {
		return res
	}
	defer s.end(ctx, epoch)

	if err := s.backend.RemoveCoupon(ctx); err != nil {
		s.logger.Info("Coupon removal after order failed, continuing", slog.Any("error", err))
	}

	if err := s.reconcile(ctx, epoch); err != nil {
		s.revert(epoch)
		return cartFailure(err, msgFetchFailed)
	}

	return models.Succeeded("")
}

func (s *CartStore) State() models.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Snapshot returns a copy of the current view, or nil when no cart is held.
func (s *CartStore) Snapshot() *models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.view.Clone()
}

// ItemCount is the number of distinct lines.
func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.view.ItemCount()
}

// Total is the backend's grand total, never recomputed locally.
func (s *CartStore) Total() models.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view == nil {
		return models.Amount{}
	}

	return s.view.Totals.GrandTotal
}

func (s *CartStore) View() models.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.viewLocked()
}

func (s *CartStore) viewLocked() models.CartView {

	view := models.CartView{
		State:     s.state,
		Cart:      s.view.Clone(),
		ItemCount: s.view.ItemCount(),
	}

	if s.view != nil {
		view.Total = s.view.Totals.GrandTotal
	}

	return view
}

type mutation struct {
	name     string
	success  string
	fallback string
	// check rejects the mutation against the current view before any call is made.
	check      func(*models.CartSnapshot) *errors.AppError
	optimistic func(*models.CartSnapshot)
	call       func(context.Context) (string, error)
	// settled applies what an accepted call is known to have done. It stands in for
	// the re-fetch when that fails.
	settled func(*models.CartSnapshot)
	// satisfied turns a failed call into a success when the re-fetched cart already
	// has the intended shape.
	satisfied func(*models.CartSnapshot) bool
}

func (s *CartStore) run(ctx context.Context, m mutation) models.Result {

	epoch, res, ok := s.begin(ctx)
	if !ok {
		return res
	}
	defer s.end(ctx, epoch)

	if m.check != nil {
		if appErr := m.check(s.Snapshot()); appErr != nil {
			return models.Failed(appErr.Code, appErr.Message)
		}
	}

	if m.optimistic != nil {
		s.applyOptimistic(ctx, epoch, m.optimistic)
	}

	msg, err := m.call(ctx)
	if err != nil {
		s.logger.Warn("⚠️ Cart mutation failed",
			slog.String("mutation", m.name),
			slog.Any("error", err),
		)

		refetched := s.recover(ctx, epoch, err)

		if refetched && m.satisfied != nil && m.satisfied(s.Snapshot()) {
			metrics.ObserveCartMutation(m.name, true)
			return models.Succeeded(m.success)
		}

		metrics.ObserveCartMutation(m.name, false)
		return cartFailure(err, m.fallback)
	}

	if err := s.reconcile(ctx, epoch); err != nil {
		s.logger.Warn("⚠️ Cart re-fetch after mutation failed, keeping the accepted change",
			slog.String("mutation", m.name),
			slog.Any("error", err),
		)
		s.assume(epoch, m.settled)
	}

	metrics.ObserveCartMutation(m.name, true)

	if msg == "" {
		msg = m.success
	}

	return models.Succeeded(msg)
}

// begin admits an operation. A call while the first load is in flight triggers a
// fetch and is turned away with a retryable result.
func (s *CartStore) begin(ctx context.Context) (uint64, models.Result, bool) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.CartStateUnloaded {
		return 0, models.Failed(errors.ErrCodeNotAuthenticated, msgLoginRequired), false
	}

	if s.loading {
		epoch := s.epoch
		go s.load(context.WithoutCancel(ctx), epoch)
		return 0, models.Failed(errors.ErrCodeCartLoading, msgCartLoading), false
	}

	s.inflight++
	s.state = models.CartStateMutating

	return s.epoch, models.Result{}, true
}

func (s *CartStore) end(ctx context.Context, epoch uint64) {

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}

	s.inflight--
	s.settle()
	s.mu.Unlock()

	s.publish(ctx)
}

// settle derives the state from the counters. Callers hold mu.
func (s *CartStore) settle() {
	switch {
	case s.state == models.CartStateUnloaded:
	case s.loading:
		s.state = models.CartStateLoading
	case s.inflight > 0:
		s.state = models.CartStateMutating
	default:
		s.state = models.CartStateReady
	}
}

func (s *CartStore) applyOptimistic(ctx context.Context, epoch uint64, fn func(*models.CartSnapshot)) {

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}

	next := s.view.Clone()
	if next == nil {
		next = models.EmptyCart()
	}

	fn(next)
	s.view = next
	s.mu.Unlock()

	s.publish(ctx)
}

// recover restores a trustworthy view after a failed call: a fresh fetch, or the last
// confirmed cart when that fails too. It reports whether a fresh fetch was installed.
func (s *CartStore) recover(ctx context.Context, epoch uint64, cause error) bool {

	if errors.HasCode(cause, errors.ErrCodeSessionExpired) || errors.HasCode(cause, errors.ErrCodeNotAuthenticated) {
		s.revert(epoch)
		return false
	}

	if err := s.reconcile(ctx, epoch); err != nil {
		s.logger.Warn("⚠️ Cart re-fetch after failure failed, reverting to last confirmed cart", slog.Any("error", err))
		s.revert(epoch)
		return false
	}

	return true
}

func (s *CartStore) reconcile(ctx context.Context, epoch uint64) error {

	snap, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return nil
	}

	s.replace(snap)
	metrics.ObserveCartReconciliation("replaced")

	return nil
}

func (s *CartStore) revert(epoch uint64) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return
	}

	s.view = s.confirmed.Clone()
	metrics.ObserveCartReconciliation("reverted")
}

// assume confirms the current view, with settled applied, after the backend accepted
// a call whose re-fetch failed.
func (s *CartStore) assume(epoch uint64, settled func(*models.CartSnapshot)) {

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return
	}

	next := s.view.Clone()
	if next == nil {
		next = models.EmptyCart()
	}

	if settled != nil {
		settled(next)
	}

	s.confirmed = next
	s.view = next.Clone()
	metrics.ObserveCartReconciliation("assumed")
}

// replace installs an authoritative snapshot. Callers hold mu.
func (s *CartStore) replace(snap *models.CartSnapshot) {
	s.confirmed = snap
	s.view = snap.Clone()
}

// fetch reads the cart and enforces that an empty cart never carries a coupon. The
// cleanup is attempted once; on failure the cart is kept as returned, minus the coupon.
func (s *CartStore) fetch(ctx context.Context) (*models.CartSnapshot, error) {

	snap, err := s.backend.GetCart(ctx)
	if err != nil {
		return nil, err
	}

	if snap == nil {
		snap = models.EmptyCart()
	}

	if !snap.HasOrphanCoupon() {
		return snap, nil
	}

	s.logger.Info("🧹 Removing coupon from empty cart", slog.String("coupon", snap.AppliedCoupon.Code))

	if err := s.backend.RemoveCoupon(ctx); err != nil {
		s.logger.Info("Coupon cleanup failed, keeping cart as returned", slog.Any("error", err))
		metrics.ObserveOrphanCouponCleanup(false)
		return withoutCoupon(snap), nil
	}

	metrics.ObserveOrphanCouponCleanup(true)

	refetched, err := s.backend.GetCart(ctx)
	if err != nil || refetched == nil {
		return withoutCoupon(snap), nil
	}

	return withoutCoupon(refetched), nil
}

func withoutCoupon(snap *models.CartSnapshot) *models.CartSnapshot {

	if !snap.HasOrphanCoupon() {
		return snap
	}

	out := snap.Clone()
	out.AppliedCoupon = nil

	return out
}

func (s *CartStore) publish(ctx context.Context) {

	if s.bus == nil {
		return
	}

	s.mu.Lock()
	view := s.viewLocked()
	s.mu.Unlock()

	s.bus.Publish(ctx, events.CartUpdated{
		State:      view.State,
		ItemCount:  view.ItemCount,
		GrandTotal: view.Total,
	})
}

// cartFailure turns an error into the result shown to the user. Backend explanations
// pass through verbatim; anything without one gets the operation's own message.
func cartFailure(err error, fallback string) models.Result {

	appErr, ok := errors.IsAppError(err)
	if !ok {
		return models.Failed(errors.ErrCodeInternal, fallback)
	}

	switch appErr.Code {
	case errors.ErrCodeServerRejected:
		if storefront.HasServerMessage(err) {
			return models.Failed(appErr.Code, appErr.Message)
		}
		return models.Failed(appErr.Code, fallback)
	case errors.ErrCodeNotAuthenticated,
		errors.ErrCodeSessionExpired,
		errors.ErrCodeTimeout,
		errors.ErrCodeNetwork,
		errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidQuantity,
		errors.ErrCodeCartLoading,
		errors.ErrCodeNotFound:
		return models.Failed(appErr.Code, appErr.Message)
	default:
		return models.Failed(appErr.Code, fallback)
	}
}
