package service

import "github.com/aaravmahajanofficial/juicebar-storefront/internal/models"

// A non-empty cart locks the active branch. These are pure decisions: callers own
// every side effect, including clearing the cart after a confirmed switch.

// CanSwitchBranch is true when there is no cart or the cart has no lines.
func CanSwitchBranch(cart *models.CartSnapshot) bool {
	return cart.IsEmpty()
}

// ResolveCartBranch returns the branch a non-empty cart belongs to. The backend keeps
// carts single-branch, so that is always the current selection.
func ResolveCartBranch(cart *models.CartSnapshot, current *models.Branch) *models.Branch {
	if cart.IsEmpty() {
		return nil
	}

	return current
}

func RequestSwitch(target *models.Branch, cart *models.CartSnapshot) models.SwitchOutcome {
	if CanSwitchBranch(cart) {
		return models.SwitchOutcome{Allowed: true}
	}

	return models.SwitchOutcome{Allowed: false, RequiresConfirmation: true}
}
