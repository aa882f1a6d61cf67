package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fieldtrack/internal/attendance/application/ports/out"
	"fieldtrack/internal/attendance/domain"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/tracking"
)

// TrackerFactory builds a location tracker bound to one worker. The serve
// path wires a WebSocket-backed sensor; the simulator wires a synthetic one.
type TrackerFactory func(workerID string) *tracking.Tracker

// session is the in-memory attendance state for one worker. All transitions
// for a worker are serialized on its mutex, so concurrent check-in attempts
// resolve to exactly one winner.
type session struct {
	mu sync.Mutex

	workerID      string
	phase         domain.Phase
	openCheckInID string
	tracker       *tracking.Tracker
	syncCancel    context.CancelFunc

	// lastSyncedFixAt dedupes the periodic sync: a fix already written is
	// not written again.
	lastSyncedFixAt time.Time

	loaded bool
}

// AttendanceService implements the worker-facing attendance operations on
// top of the event log. It owns one session per worker and the periodic
// location sync for open checkins.
type AttendanceService struct {
	events     out.EventRepository
	followUps  out.FollowUpRepository
	workers    out.WorkerDirectory
	publisher  out.ChangePublisher
	newTracker TrackerFactory

	syncInterval time.Duration
	log          *logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewAttendanceService(
	events out.EventRepository,
	followUps out.FollowUpRepository,
	workers out.WorkerDirectory,
	publisher out.ChangePublisher,
	newTracker TrackerFactory,
	syncInterval time.Duration,
	log *logger.Logger,
) *AttendanceService {
	if syncInterval <= 0 {
		syncInterval = 30 * time.Second
	}
	return &AttendanceService{
		events:       events,
		followUps:    followUps,
		workers:      workers,
		publisher:    publisher,
		newTracker:   newTracker,
		syncInterval: syncInterval,
		log:          log,
		sessions:     make(map[string]*session),
	}
}

// sessionFor returns the worker's session, creating an unloaded one if
// needed. Callers lock the session and call ensureLoaded before use.
func (s *AttendanceService) sessionFor(workerID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[workerID]
	if !ok {
		sess = &session{workerID: workerID, phase: domain.PhaseIdle}
		s.sessions[workerID] = sess
	}
	return sess
}

// ensureLoaded reconstructs the session from the latest persisted event.
// A service restart therefore resumes an open checkin, tracking included.
// Must be called with sess.mu held.
func (s *AttendanceService) ensureLoaded(ctx context.Context, sess *session) error {
	if sess.loaded {
		return nil
	}

	latest, err := s.events.LatestByWorker(ctx, sess.workerID)
	if err != nil {
		return fmt.Errorf("load latest attendance event: %w", err)
	}

	sess.phase = domain.PhaseOf(latest)
	if sess.phase == domain.PhaseCheckedIn {
		sess.openCheckInID = latest.ID
		sess.tracker = s.newTracker(sess.workerID)
		if err := s.startTrackingLocked(sess); err != nil {
			s.log.Warn(logger.Entry{
				Action:   "tracking_resume_failed",
				Message:  err.Error(),
				WorkerID: sess.workerID,
			})
		} else {
			s.log.Info(logger.Entry{
				Action:   "session_resumed",
				Message:  "open checkin restored from event log",
				WorkerID: sess.workerID,
				Additional: map[string]any{
					"checkin_id": sess.openCheckInID,
				},
			})
		}
	}

	sess.loaded = true
	return nil
}

// startTrackingLocked starts continuous sampling and the periodic sync loop
// for the open checkin. Must be called with sess.mu held.
func (s *AttendanceService) startTrackingLocked(sess *session) error {
	runCtx, cancel := context.WithCancel(context.Background())
	if err := sess.tracker.StartContinuous(runCtx); err != nil {
		cancel()
		return err
	}
	sess.syncCancel = cancel
	go s.runSyncLoop(runCtx, sess, sess.tracker, sess.openCheckInID)
	return nil
}

// stopTrackingLocked halts sampling and the sync loop. The tracker keeps its
// last fix readable. Must be called with sess.mu held.
func (s *AttendanceService) stopTrackingLocked(sess *session) {
	if sess.syncCancel != nil {
		sess.syncCancel()
		sess.syncCancel = nil
	}
	if sess.tracker != nil {
		sess.tracker.StopContinuous()
	}
}

// publishChanged is best effort; a broker outage never fails the operation.
func (s *AttendanceService) publishChanged(ctx context.Context, workerID, eventID string, kind domain.EventKind) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEventChanged(ctx, workerID, eventID, string(kind)); err != nil {
		s.log.Warn(logger.Entry{
			Action:   "change_publish_failed",
			Message:  err.Error(),
			WorkerID: workerID,
		})
	}
}

// Close stops tracking and sync for every live session. Used on shutdown;
// sessions are reconstructed from the event log on the next start.
func (s *AttendanceService) Close() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		s.stopTrackingLocked(sess)
		sess.mu.Unlock()
	}
}
