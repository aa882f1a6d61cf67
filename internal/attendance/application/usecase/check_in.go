package usecase

import (
	"context"
	"fmt"
	"time"

	"fieldtrack/internal/attendance/application/ports/in"
	"fieldtrack/internal/attendance/domain"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/shared/utils"
)

// noteLiveGPS marks events recorded from the live tracked position.
const noteLiveGPS = "Live GPS"

// CheckIn records a checkin event at a fresh, accuracy-accepted fix and
// starts continuous tracking with the periodic sync. The fresh fix is
// mandatory: without an acceptable reading no event is written and the
// worker stays idle.
func (s *AttendanceService) CheckIn(ctx context.Context, input in.CheckInInput) (*in.CheckInOutput, error) {
	if _, err := s.workers.FindByID(ctx, input.WorkerID); err != nil {
		return nil, err
	}

	sess := s.sessionFor(input.WorkerID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, err
	}
	if sess.phase == domain.PhaseCheckedIn {
		return nil, domain.ErrAlreadyCheckedIn
	}

	if sess.tracker == nil {
		sess.tracker = s.newTracker(input.WorkerID)
	}

	fix, err := sess.tracker.FreshFix(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
	}

	now := time.Now().UTC()
	event := &domain.AttendanceEvent{
		ID:             utils.NewUUID(),
		WorkerID:       input.WorkerID,
		Kind:           domain.KindCheckIn,
		Latitude:       ptr(fix.Latitude),
		Longitude:      ptr(fix.Longitude),
		AccuracyMeters: ptr(fix.AccuracyMeters),
		Address:        ptr(fix.Address),
		Note:           ptr(noteLiveGPS),
		OccurredAt:     now,
		UpdatedAt:      now,
	}
	if err := s.events.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("append checkin event: %w", err)
	}

	sess.phase = domain.PhaseCheckedIn
	sess.openCheckInID = event.ID
	sess.lastSyncedFixAt = fix.ResolvedAt

	if err := s.startTrackingLocked(sess); err != nil {
		// checkin stands; the status endpoint surfaces the sensor problem
		s.log.Warn(logger.Entry{
			Action:   "tracking_start_failed",
			Message:  err.Error(),
			WorkerID: input.WorkerID,
		})
	}

	s.log.Info(logger.Entry{
		Action:   "checked_in",
		Message:  fix.Address,
		WorkerID: input.WorkerID,
		Additional: map[string]any{
			"event_id":   event.ID,
			"latitude":   fix.Latitude,
			"longitude":  fix.Longitude,
			"accuracy_m": fix.AccuracyMeters,
		},
	})
	s.publishChanged(ctx, input.WorkerID, event.ID, domain.KindCheckIn)

	return &in.CheckInOutput{
		EventID:    event.ID,
		Latitude:   fix.Latitude,
		Longitude:  fix.Longitude,
		Address:    fix.Address,
		OccurredAt: event.OccurredAt,
	}, nil
}

func ptr[T any](v T) *T {
	return &v
}
