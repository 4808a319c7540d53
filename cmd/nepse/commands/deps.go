package commands

import (
	"context"
	"fmt"

	"github.com/pawanpaudel93/nepse-analysis/internal/external/nepse"
	"github.com/pawanpaudel93/nepse-analysis/internal/reports"
	"github.com/pawanpaudel93/nepse-analysis/internal/store"
	"github.com/pawanpaudel93/nepse-analysis/pkg/config"
	"github.com/pawanpaudel93/nepse-analysis/pkg/httputil"
	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

// runtime bundles the wired application pieces a command needs.
type runtime struct {
	cfg     *config.Config
	logger  *logger.Logger
	service *reports.Service
	store   *store.SectorStore
}

// close releases resources held by the runtime.
func (rt *runtime) close() {
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			rt.logger.WithError(err).Warn("Failed to close sector store")
		}
	}
}

// initRuntime wires config, logger, the exchange client and the report
// service, authenticates against the exchange and loads reference data.
func initRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	httpClient := httputil.New(log, cfg.NEPSE.Timeout, cfg.NEPSE.RequestInterval).
		WithRetry(cfg.NEPSE.MaxRetries, httputil.DefaultRetryStatuses(cfg.NEPSE.RetryAuthStatus))

	client := nepse.NewClient(cfg.NEPSE, httpClient, log)
	if err := client.Authenticate(ctx); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	sectorStore, err := store.Open(cfg.DataDir, log)
	if err != nil {
		log.WithError(err).Warn("Sector snapshot store unavailable, continuing without it")
		sectorStore = nil
	}

	service := reports.New(client, storeOrNil(sectorStore), log)
	if err := service.Load(ctx); err != nil {
		return nil, fmt.Errorf("load reference data: %w", err)
	}

	return &runtime{
		cfg:     cfg,
		logger:  log,
		service: service,
		store:   sectorStore,
	}, nil
}

// storeOrNil avoids handing the service a typed nil interface.
func storeOrNil(s *store.SectorStore) reports.SectorStore {
	if s == nil {
		return nil
	}
	return s
}
