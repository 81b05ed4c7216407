package backup

import (
	"context"
	"errors"
	"time"

	"github.com/adhocore/gronx"

	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
)

// DefaultSchedule runs every Sunday at 03:00.
const DefaultSchedule = "0 3 * * 0"

// Scheduler triggers the backup service on a cron expression.
type Scheduler struct {
	svc  *Service
	expr string
	gron *gronx.Gronx
}

func NewScheduler(svc *Service, expr string) *Scheduler {
	if expr == "" {
		expr = DefaultSchedule
	}
	return &Scheduler{svc: svc, expr: expr, gron: gronx.New()}
}

// Start runs the schedule loop until ctx is cancelled. Ticks are aligned to
// the minute since cron has minute granularity.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		logger.InfoCF("backup", "Backup scheduler started", map[string]interface{}{
			"schedule": s.expr,
		})

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				due, err := s.gron.IsDue(s.expr, now)
				if err != nil {
					logger.ErrorCF("backup", "Invalid backup schedule", map[string]interface{}{
						"schedule": s.expr,
						"error":    err.Error(),
					})
					return
				}
				if !due {
					continue
				}
				if path, err := s.svc.Run(); err != nil {
					// A manual backup may already be in flight.
					if !errors.Is(err, ErrBusy) {
						logger.ErrorCF("backup", "Scheduled backup failed", map[string]interface{}{
							"error": err.Error(),
						})
					}
				} else {
					logger.InfoCF("backup", "Scheduled backup complete", map[string]interface{}{
						"path": path,
					})
				}
			}
		}
	}()
}
