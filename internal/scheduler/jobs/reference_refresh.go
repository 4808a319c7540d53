package jobs

import (
	"context"
	"fmt"

	"github.com/pawanpaudel93/nepse-analysis/internal/reports"
	"github.com/pawanpaudel93/nepse-analysis/pkg/logger"
)

// ReferenceRefreshJob reloads the security catalog, sector list and
// holiday calendar from the exchange once a day, before the trading
// session opens.
type ReferenceRefreshJob struct {
	service *reports.Service
	logger  *logger.Logger
}

// NewReferenceRefreshJob creates a new reference refresh job.
func NewReferenceRefreshJob(service *reports.Service, log *logger.Logger) *ReferenceRefreshJob {
	return &ReferenceRefreshJob{
		service: service,
		logger:  log,
	}
}

// Name returns the job name.
func (j *ReferenceRefreshJob) Name() string {
	return "reference_refresh"
}

// Schedule returns the cron schedule. NEPSE opens at 11 AM NPT, so the
// catalog is refreshed half an hour earlier on trading days.
func (j *ReferenceRefreshJob) Schedule() string {
	return "0 30 10 * * SUN-THU"
}

// Run executes the refresh.
func (j *ReferenceRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled reference refresh")

	if err := j.service.RefreshReference(ctx); err != nil {
		return fmt.Errorf("refresh reference data: %w", err)
	}

	j.logger.Info("Scheduled reference refresh completed")
	return nil
}
