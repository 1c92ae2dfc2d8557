package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/operantis/backoffice-api/internal/repository"
)

// RetentionWorker periodically purges read notifications older than the
// retention window.
type RetentionWorker struct {
	notificationRepo *repository.NotificationRepository
	interval         time.Duration
	retention        time.Duration
}

// NewRetentionWorker constructs a RetentionWorker.
func NewRetentionWorker(
	notificationRepo *repository.NotificationRepository,
	interval time.Duration,
	retention time.Duration,
) *RetentionWorker {
	return &RetentionWorker{
		notificationRepo: notificationRepo,
		interval:         interval,
		retention:        retention,
	}
}

// Start begins the periodic sweep loop until context is canceled.
func (w *RetentionWorker) Start(ctx context.Context) {
	log.Info().
		Dur("interval", w.interval).
		Dur("retention", w.retention).
		Msg("Starting notification retention worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Notification retention worker stopped")
			return
		}
	}
}

func (w *RetentionWorker) run() {
	cutoff := time.Now().Add(-w.retention)
	deleted, err := w.notificationRepo.DeleteReadOlderThan(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Notification retention sweep failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Purged read notifications")
	}
}
