package repository

import (
	"context"
	"errors"
	"slices"
	"strings"
)

// Keys persisted by the storefront core.
const (
	KeyAccessToken    = "accessToken"
	KeyRefreshToken   = "refreshToken"
	KeyUser           = "user"
	KeySelectedBranch = "selectedBranch"
)

var ErrEmptyKey = errors.New("key cannot be empty")

// KeyValueStore is the local persistence collaborator for session and branch data.
// MultiSet and MultiRemove are atomic: either every key changes or none does.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	MultiGet(ctx context.Context, keys []string) (map[string]string, error)
	MultiSet(ctx context.Context, pairs map[string]string) error
	MultiRemove(ctx context.Context, keys []string) error
}

func namespaced(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + ":" + key
}

// sortedKeys gives bundle writes a stable order.
func sortedKeys(pairs map[string]string) []string {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

func validateKeys(keys []string) error {
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			return ErrEmptyKey
		}
	}

	return nil
}
