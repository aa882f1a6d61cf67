package usecase

import (
	"context"
	"time"

	"fieldtrack/internal/attendance/domain"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/tracking"
)

// runSyncLoop throttles persistence of the live position: at most one write
// per sync interval, against the open checkin row. Runs until the session's
// tracking is stopped.
func (s *AttendanceService) runSyncLoop(ctx context.Context, sess *session, tracker *tracking.Tracker, checkinID string) {
	ticker := time.NewTicker(s.syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.syncOnce(ctx, sess, tracker, checkinID)
		}
	}
}

func (s *AttendanceService) syncOnce(ctx context.Context, sess *session, tracker *tracking.Tracker, checkinID string) {
	fix := tracker.CurrentFix()
	if fix == nil {
		return
	}

	sess.mu.Lock()
	unchanged := sess.lastSyncedFixAt.Equal(fix.ResolvedAt)
	sess.mu.Unlock()
	if unchanged {
		return
	}

	if err := s.events.UpdateLocation(ctx, checkinID, fix.Latitude, fix.Longitude, fix.AccuracyMeters, fix.Address); err != nil {
		// next tick retries with whatever fix is current then
		s.log.Warn(logger.Entry{
			Action:   "location_sync_failed",
			Message:  err.Error(),
			WorkerID: sess.workerID,
			Additional: map[string]any{
				"checkin_id": checkinID,
			},
		})
		return
	}

	sess.mu.Lock()
	sess.lastSyncedFixAt = fix.ResolvedAt
	sess.mu.Unlock()

	s.log.Debug(logger.Entry{
		Action:   "location_synced",
		Message:  fix.Address,
		WorkerID: sess.workerID,
		Additional: map[string]any{
			"checkin_id": checkinID,
			"latitude":   fix.Latitude,
			"longitude":  fix.Longitude,
		},
	})
	s.publishChanged(ctx, sess.workerID, checkinID, domain.KindCheckIn)
}
