package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache stores JSON-encoded values. A ttl <= 0 means the configured default.
type Cache interface {
	Get(ctx context.Context, key string, value any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func Key(prefix string, id string) string {
	return prefix + ":" + id
}

const (
	BranchesKeyPrefix       = "branches"
	BranchProductsKeyPrefix = "branch_products"
)

// ProductPageKey identifies one page of a branch catalog.
func ProductPageKey(branchID string, page, pageSize int, categoryID string) string {
	return Key(BranchProductsKeyPrefix, fmt.Sprintf("%s:%d:%d:%s", branchID, page, pageSize, categoryID))
}
