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

// checkoutPlaceholder labels a checkout recorded without a usable fix.
const checkoutPlaceholder = "Final location"

// CheckOut ends the open session. It stops tracking first, then records the
// checkout at the last known fix; a checkout is never blocked on sensor
// availability. If the event cannot be stored, tracking restarts and the
// worker stays checked in.
func (s *AttendanceService) CheckOut(ctx context.Context, input in.CheckOutInput) (*in.CheckOutOutput, error) {
	sess := s.sessionFor(input.WorkerID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, err
	}
	if sess.phase != domain.PhaseCheckedIn {
		return nil, domain.ErrNotCheckedIn
	}

	var fix *trackedFix
	if sess.tracker != nil {
		if f := sess.tracker.CurrentFix(); f != nil {
			fix = &trackedFix{lat: f.Latitude, lon: f.Longitude, accuracy: f.AccuracyMeters, address: f.Address}
		}
	}
	s.stopTrackingLocked(sess)

	now := time.Now().UTC()
	event := &domain.AttendanceEvent{
		ID:              utils.NewUUID(),
		WorkerID:        input.WorkerID,
		Kind:            domain.KindCheckOut,
		Address:         ptr(checkoutPlaceholder),
		Note:            ptr(noteLiveGPS),
		LinkedCheckInID: ptr(sess.openCheckInID),
		OccurredAt:      now,
		UpdatedAt:       now,
	}
	if fix != nil {
		event.Latitude = ptr(fix.lat)
		event.Longitude = ptr(fix.lon)
		event.AccuracyMeters = ptr(fix.accuracy)
		event.Address = ptr(fix.address)
	}

	if err := s.events.Append(ctx, event); err != nil {
		// the session must survive a storage failure: resume tracking and
		// keep the worker checked in
		if restartErr := s.startTrackingLocked(sess); restartErr != nil {
			s.log.Warn(logger.Entry{
				Action:   "tracking_resume_failed",
				Message:  restartErr.Error(),
				WorkerID: input.WorkerID,
			})
		}
		return nil, fmt.Errorf("append checkout event: %w", err)
	}

	sess.phase = domain.PhaseIdle
	sess.openCheckInID = ""
	sess.lastSyncedFixAt = time.Time{}

	s.log.Info(logger.Entry{
		Action:   "checked_out",
		Message:  *event.Address,
		WorkerID: input.WorkerID,
		Additional: map[string]any{
			"event_id": event.ID,
			"has_fix":  fix != nil,
		},
	})
	s.publishChanged(ctx, input.WorkerID, event.ID, domain.KindCheckOut)

	return &in.CheckOutOutput{
		EventID:    event.ID,
		Latitude:   event.Latitude,
		Longitude:  event.Longitude,
		Address:    event.Address,
		OccurredAt: event.OccurredAt,
	}, nil
}

type trackedFix struct {
	lat, lon, accuracy float64
	address            string
}
