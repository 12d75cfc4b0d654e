package services

import (
	"context"
	"time"

	"bid-coordinator/internal/domain"
	"bid-coordinator/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Janitor periodically sweeps stale handler state and closes auctions
// whose end time has passed.
type Janitor struct {
	cron     *cron.Cron
	schedule string
	handler  *ConcurrentBidHandler
	catalog  domain.AuctionCatalog
	manager  *BiddingManager
	now      func() time.Time
	log      logger.Logger
}

func NewJanitor(schedule string, handler *ConcurrentBidHandler, catalog domain.AuctionCatalog,
	manager *BiddingManager, log logger.Logger) *Janitor {
	if schedule == "" {
		schedule = "@every 1m"
	}
	return &Janitor{
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		handler:  handler,
		catalog:  catalog,
		manager:  manager,
		now:      time.Now,
		log:      log,
	}
}

func (j *Janitor) Start(ctx context.Context) error {
	j.log.Info("Starting bid janitor", "schedule", j.schedule)

	_, err := j.cron.AddFunc(j.schedule, func() {
		j.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (j *Janitor) Stop() error {
	j.log.Info("Stopping bid janitor")
	<-j.cron.Stop().Done()
	return nil
}

// RunOnce performs a single sweep.
func (j *Janitor) RunOnce(ctx context.Context) domain.CleanupStats {
	now := j.now()
	stats := j.handler.Cleanup(now)

	if j.catalog == nil || j.manager == nil {
		return stats
	}

	expired, err := j.catalog.GetExpiredAuctions(ctx, now)
	if err != nil {
		j.log.Error("Failed to list expired auctions", "error", err)
		return stats
	}
	for _, auction := range expired {
		if err := j.manager.EndAuction(ctx, auction.ID, string(domain.OutcomeTimeExpired)); err != nil {
			j.log.Error("Failed to end expired auction", "auction_id", auction.ID, "error", err)
		}
	}
	return stats
}
