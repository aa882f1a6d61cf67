package usecase

import (
	"context"
	"fmt"

	"fieldtrack/internal/attendance/application/ports/in"
	"fieldtrack/internal/attendance/domain"
)

const defaultActivityLimit = 50

// TrackingStatus reports the worker's derived phase and the latest tracked
// fix without touching the sensor.
func (s *AttendanceService) TrackingStatus(ctx context.Context, input in.TrackingStatusInput) (*in.TrackingStatusOutput, error) {
	sess := s.sessionFor(input.WorkerID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.ensureLoaded(ctx, sess); err != nil {
		return nil, err
	}

	output := &in.TrackingStatusOutput{
		Phase: string(sess.phase),
	}
	if sess.openCheckInID != "" {
		output.OpenCheckInID = ptr(sess.openCheckInID)
	}
	if sess.tracker != nil {
		output.Tracking = sess.tracker.IsTracking()
		if fix := sess.tracker.CurrentFix(); fix != nil {
			output.Latitude = ptr(fix.Latitude)
			output.Longitude = ptr(fix.Longitude)
			output.Address = ptr(fix.Address)
			output.FixAt = ptr(fix.ResolvedAt)
		}
		if err := sess.tracker.LastError(); err != nil {
			output.LastError = err.Error()
		}
	}
	return output, nil
}

// ListActivities returns the worker's recent attendance events, newest
// first.
func (s *AttendanceService) ListActivities(ctx context.Context, input in.ListActivitiesInput) (*in.ListActivitiesOutput, error) {
	if _, err := s.workers.FindByID(ctx, input.WorkerID); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	events, err := s.events.ListByWorker(ctx, input.WorkerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attendance events: %w", err)
	}
	if events == nil {
		events = []domain.AttendanceEvent{}
	}
	return &in.ListActivitiesOutput{Events: events}, nil
}
