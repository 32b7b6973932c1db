package jobs

import (
	"context"
	"errors"
	"time"

	"rentdesk-backend/internal/domain"
	"rentdesk-backend/internal/logger"
)

// MarkReturnDue flags deals whose rental ends within the configured window
// as RETURN_SCHEDULED so the back office can plan pickups.
func (jr *JobRunner) MarkReturnDue() {
	jr.runWithRecovery("MarkReturnDue", func() {
		ctx := context.Background()

		horizon := jr.clock.Now().AddDate(0, 0, jr.config.Scheduler.ReturnDueSoonDays)
		rentals, err := jr.store.Rentals().ListReturnDue(ctx, domain.DateOnly(horizon).Add(24*time.Hour))
		if err != nil {
			logger.Error("Failed to list return-due rentals", "error", err)
			return
		}

		scheduled := 0
		seen := map[int64]bool{}
		for _, rt := range rentals {
			if seen[rt.DealID] {
				continue
			}
			seen[rt.DealID] = true

			if err := jr.deals.ScheduleReturn(ctx, rt.DealID); err != nil {
				// A deal can have moved on between the listing and the
				// transition; skip it and keep going.
				var invalid *domain.InvalidTransitionError
				if errors.As(err, &invalid) {
					logger.Debug("Skipping deal not eligible for return scheduling", "deal_id", rt.DealID, "error", err)
					continue
				}
				logger.Error("Failed to schedule return", "deal_id", rt.DealID, "error", err)
				continue
			}
			scheduled++
		}

		logger.Info("Marked deals as return scheduled", "count", scheduled, "horizon", domain.DateOnly(horizon).Format("2006-01-02"))
	})
}
