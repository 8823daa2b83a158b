package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/errors"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/events"
	"github.com/aaravmahajanofficial/juicebar-storefront/internal/models"
	repository "github.com/aaravmahajanofficial/juicebar-storefront/internal/repositories"
)

// BranchService holds the selected branch and persists it across restarts.
type BranchService struct {
	store   repository.KeyValueStore
	catalog *CatalogService
	cart    *CartStore
	bus     *events.Bus
	logger  *slog.Logger

	mu       sync.RWMutex
	selected *models.Branch
}

func NewBranchService(store repository.KeyValueStore, catalog *CatalogService, cart *CartStore, bus *events.Bus, logger *slog.Logger) *BranchService {

	if logger == nil {
		logger = slog.Default()
	}

	return &BranchService{store: store, catalog: catalog, cart: cart, bus: bus, logger: logger}
}

// Restore loads the persisted selection. A corrupt value is dropped, not fatal.
func (s *BranchService) Restore(ctx context.Context) error {

	raw, ok, err := s.store.Get(ctx, repository.KeySelectedBranch)
	if err != nil {
		return errors.StorageError("Failed to read selected branch").WithError(err)
	}

	if !ok {
		return nil
	}

	var branch models.Branch
	if err := json.Unmarshal([]byte(raw), &branch); err != nil {
		s.logger.Warn("⚠️ Discarding unreadable selected branch", slog.Any("error", err))
		return s.ClearSelection(ctx)
	}

	s.mu.Lock()
	s.selected = &branch
	s.mu.Unlock()

	s.logger.Info("🏪 Selected branch restored", slog.String("branch_id", branch.ID.String()))

	return nil
}

func (s *BranchService) Selected() *models.Branch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == nil {
		return nil
	}

	branch := *s.selected

	return &branch
}

// CartBranch is the branch the current cart is locked to, if any.
func (s *BranchService) CartBranch() *models.Branch {
	return ResolveCartBranch(s.cart.Snapshot(), s.Selected())
}

// Select persists branch as the selection. It does not consult the cart; use Switch
// for user-initiated changes.
func (s *BranchService) Select(ctx context.Context, branch models.Branch) error {

	data, err := json.Marshal(branch)
	if err != nil {
		return errors.InternalError("Failed to encode branch").WithError(err)
	}

	if err := s.store.Set(ctx, repository.KeySelectedBranch, string(data)); err != nil {
		return errors.StorageError("Failed to save selected branch").WithError(err)
	}

	s.mu.Lock()
	s.selected = &branch
	s.mu.Unlock()

	s.logger.Info("🏪 Branch selected", slog.String("branch_id", branch.ID.String()), slog.String("branch_name", branch.Name))

	if s.bus != nil {
		s.bus.Publish(ctx, events.BranchChanged{Branch: &branch})
	}

	return nil
}

func (s *BranchService) ClearSelection(ctx context.Context) error {

	if err := s.store.Remove(ctx, repository.KeySelectedBranch); err != nil {
		return errors.StorageError("Failed to clear selected branch").WithError(err)
	}

	s.mu.Lock()
	s.selected = nil
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(ctx, events.BranchChanged{})
	}

	return nil
}

// Switch changes branch on behalf of the user. With items in the cart the first call
// only reports that confirmation is needed; a confirmed call clears the cart first.
func (s *BranchService) Switch(ctx context.Context, req models.SwitchBranchRequest) (*models.SwitchBranchResponse, error) {

	target, err := s.catalog.Branch(ctx, req.BranchID)
	if err != nil {
		return nil, err
	}

	if current := s.Selected(); current != nil && current.ID == target.ID {
		return &models.SwitchBranchResponse{
			Outcome:  models.SwitchOutcome{Allowed: true},
			Switched: true,
			Branch:   current,
		}, nil
	}

	outcome := RequestSwitch(target, s.cart.Snapshot())

	if !outcome.Allowed {
		if !req.Confirmed {
			return &models.SwitchBranchResponse{
				Outcome: outcome,
				Branch:  s.Selected(),
				Message: "Switching branch will clear your cart",
			}, nil
		}

		if res := s.cart.Clear(ctx); !res.Success {
			s.logger.Warn("⚠️ Branch switch aborted, cart could not be cleared", slog.String("code", res.Code))
			return &models.SwitchBranchResponse{
				Outcome: outcome,
				Branch:  s.Selected(),
				Message: res.Message,
			}, nil
		}
	}

	if err := s.Select(ctx, *target); err != nil {
		return nil, err
	}

	return &models.SwitchBranchResponse{
		Outcome:  outcome,
		Switched: true,
		Branch:   target,
	}, nil
}
