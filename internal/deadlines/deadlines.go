// Package deadlines keeps the compliance calendar current. A periodic
// scan recomputes DueTS from each item's cron schedule and flags items
// whose deadline has passed.
package deadlines

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"ledgerdesk/pkg/config"
	"ledgerdesk/pkg/logger"
	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/store"
)

// NextDue returns the next deadline after ref for a cron schedule.
func NextDue(cronExpr string, ref time.Time) (time.Time, error) {
	if !gronx.IsValid(cronExpr) {
		return time.Time{}, fmt.Errorf("invalid schedule: %s", cronExpr)
	}
	return gronx.NextTickAfter(cronExpr, ref, false)
}

// Start launches the scan loop if enabled. Returns a cancel func.
func Start(ctx context.Context, eff config.EffectiveConfigResult) (context.CancelFunc, error) {
	dl := eff.Config.Deadlines
	if !dl.Enabled {
		logger.Info("deadlines_disabled")
		return func() {}, nil
	}

	interval := time.Duration(dl.ScanIntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	logger.Info("deadlines_enabled", "interval", interval.String())
	ctx2, cancel := context.WithCancel(ctx)
	go runLoop(ctx2, interval)
	return cancel, nil
}

func runLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := ScanOnce(time.Now().UTC()); err != nil {
			logger.Error("deadlines_scan_error", "error", err)
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			logger.Info("deadlines_scanner_stopping")
			return
		}
	}
}

// ScanOnce refreshes every compliance item once against now. Items
// with a schedule get DueTS rolled forward when the old deadline has
// passed; items past their deadline and not done are marked overdue.
func ScanOnce(now time.Time) error {
	raws, err := store.ListRecords(models.CollectionCompliance)
	if err != nil {
		return err
	}
	var updated, overdue int
	for _, raw := range raws {
		var item models.ComplianceItem
		if err := json.Unmarshal(raw, &item); err != nil {
			logger.Warn("deadlines_bad_record", "error", err)
			continue
		}
		changed := refresh(&item, now)
		if !changed {
			continue
		}
		b, err := json.Marshal(&item)
		if err != nil {
			continue
		}
		if err := store.SaveRecord(models.CollectionCompliance, item.ID, b); err != nil {
			logger.Error("deadlines_save_failed", "id", item.ID, "error", err)
			continue
		}
		updated++
		if item.Overdue {
			overdue++
		}
	}
	if updated > 0 {
		logger.Info("deadlines_scan_done", "updated", updated, "overdue", overdue)
	}
	return nil
}

// refresh applies the scan rules to a single item and reports whether
// it was modified.
func refresh(item *models.ComplianceItem, now time.Time) bool {
	changed := false

	// Roll a recurring deadline forward once the current one is behind us
	// and the filing was completed.
	if item.Schedule != "" && item.Status == "done" {
		due := time.Unix(0, item.DueTS)
		if item.DueTS == 0 || !due.After(now) {
			if next, err := NextDue(item.Schedule, now); err == nil {
				item.DueTS = next.UnixNano()
				item.Status = "upcoming"
				item.Overdue = false
				return true
			}
			logger.Warn("deadlines_invalid_schedule", "id", item.ID, "schedule", item.Schedule)
		}
	}

	// Seed DueTS for scheduled items that never had one.
	if item.Schedule != "" && item.DueTS == 0 {
		if next, err := NextDue(item.Schedule, now); err == nil {
			item.DueTS = next.UnixNano()
			changed = true
		}
	}

	wantOverdue := item.DueTS != 0 && item.Status != "done" &&
		time.Unix(0, item.DueTS).Before(now)
	if item.Overdue != wantOverdue {
		item.Overdue = wantOverdue
		changed = true
	}
	return changed
}
