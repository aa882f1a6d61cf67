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

// locationUnknown is the visit location of last resort.
const locationUnknown = "N/A"

// LogVisit records a client visit inside an open session and creates its
// follow-up reminder. Location precedence: explicit override, then the
// current tracked fix, then locationUnknown. If the follow-up cannot be
// stored the visit event stands and the partial result is returned together
// with domain.ErrFollowUpNotRecorded.
func (s *AttendanceService) LogVisit(ctx context.Context, input in.LogVisitInput) (*in.LogVisitOutput, error) {
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

	location := input.LocationOverride
	if location == "" && fix != nil {
		location = fix.address
	}
	if location == "" {
		location = locationUnknown
	}

	now := time.Now().UTC()
	note := fmt.Sprintf("%s - %s", input.ClientName, input.Purpose)
	event := &domain.AttendanceEvent{
		ID:              utils.NewUUID(),
		WorkerID:        input.WorkerID,
		Kind:            domain.KindVisit,
		Address:         ptr(location),
		Note:            ptr(note),
		LinkedCheckInID: ptr(sess.openCheckInID),
		OccurredAt:      now,
		UpdatedAt:       now,
	}
	if fix != nil {
		event.Latitude = ptr(fix.lat)
		event.Longitude = ptr(fix.lon)
		event.AccuracyMeters = ptr(fix.accuracy)
	}

	if err := s.events.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("append visit event: %w", err)
	}

	output := &in.LogVisitOutput{
		EventID:    event.ID,
		Location:   location,
		OccurredAt: event.OccurredAt,
	}

	followUp := &domain.FollowUp{
		ID:           utils.NewUUID(),
		WorkerID:     input.WorkerID,
		Subject:      fmt.Sprintf("Visit: %s", input.ClientName),
		Notes:        fmt.Sprintf("Location: %s\nPurpose: %s", location, input.Purpose),
		FollowUpDate: input.FollowUpDate,
		Status:       domain.FollowUpOpen,
		CreatedAt:    now,
	}
	if err := s.followUps.Create(ctx, followUp); err != nil {
		s.log.Warn(logger.Entry{
			Action:   "followup_create_failed",
			Message:  err.Error(),
			WorkerID: input.WorkerID,
			Additional: map[string]any{
				"event_id": event.ID,
			},
		})
		// the visit stands; the caller is told the reminder is missing
		return output, fmt.Errorf("%w: %v", domain.ErrFollowUpNotRecorded, err)
	}
	output.FollowUpID = followUp.ID

	s.log.Info(logger.Entry{
		Action:   "visit_logged",
		Message:  note,
		WorkerID: input.WorkerID,
		Additional: map[string]any{
			"event_id":    event.ID,
			"followup_id": followUp.ID,
			"location":    location,
		},
	})
	s.publishChanged(ctx, input.WorkerID, event.ID, domain.KindVisit)

	return output, nil
}
