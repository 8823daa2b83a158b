package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aaravmahajanofficial/juicebar-storefront/internal/config"
	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
)

type Endpoints struct {
	// BackendURL is probed with a GET; any answer below 500 counts as up.
	BackendURL string
	HTTPClient *http.Client
}

// NewHealthHandler checks the stores the configuration actually uses, plus the
// storefront backend.
func NewHealthHandler(cfg *config.Config, endpoints *Endpoints) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "storefront-backend",
			Timeout:   5 * time.Second,
			SkipOnErr: true,
			Check:     backendCheck(endpoints),
		},
	}

	if cfg.Storage.Driver == config.StorageDriverPostgres {
		checks = append(checks, health.Config{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		})
	}

	if cfg.Storage.Driver == config.StorageDriverRedis {
		checks = append(checks, health.Config{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "juicebar-storefront",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}

func backendCheck(endpoints *Endpoints) func(ctx context.Context) error {
	return func(ctx context.Context) error {

		if endpoints == nil || endpoints.BackendURL == "" {
			return fmt.Errorf("storefront backend is not configured")
		}

		client := endpoints.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoints.BackendURL, nil)
		if err != nil {
			return fmt.Errorf("invalid backend url: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to reach storefront backend: %w", err)
		}
		resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("storefront backend answered %d", resp.StatusCode)
		}

		return nil
	}
}
