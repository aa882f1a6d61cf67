package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldtrack/internal/attendance/application/ports/in"
	"fieldtrack/internal/attendance/application/usecase"
	"fieldtrack/internal/attendance/domain"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/tracking"
)

const workerID = "11111111-1111-1111-1111-111111111111"

type stubSource struct {
	mu     sync.Mutex
	sample tracking.Sample
	err    error
	feed   chan tracking.Sample
}

func newStubSource(lat, lon, accuracy float64) *stubSource {
	return &stubSource{
		sample: tracking.Sample{Latitude: lat, Longitude: lon, AccuracyMeters: accuracy, CapturedAt: time.Now()},
		feed:   make(chan tracking.Sample),
	}
}

func (s *stubSource) set(sample tracking.Sample, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sample, s.err = sample, err
}

func (s *stubSource) Current(ctx context.Context, _ time.Duration) (tracking.Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return tracking.Sample{}, s.err
	}
	sample := s.sample
	sample.CapturedAt = time.Now()
	return sample, nil
}

func (s *stubSource) Watch(ctx context.Context) (<-chan tracking.Sample, error) {
	out := make(chan tracking.Sample)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case sample := <-s.feed:
				select {
				case out <- sample:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

type stubResolver struct{ addr string }

func (r stubResolver) Resolve(context.Context, float64, float64) (string, error) {
	return r.addr, nil
}

type updateCall struct {
	eventID  string
	lat, lon float64
	address  string
}

type fakeEvents struct {
	mu        sync.Mutex
	rows      []domain.AttendanceEvent
	appendErr error
	updates   []updateCall
	updateErr error
}

func (f *fakeEvents) Append(_ context.Context, e *domain.AttendanceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rows = append(f.rows, *e)
	return nil
}

func (f *fakeEvents) LatestByWorker(_ context.Context, workerID string) (*domain.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.rows) - 1; i >= 0; i-- {
		if f.rows[i].WorkerID == workerID {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (f *fakeEvents) UpdateLocation(_ context.Context, eventID string, lat, lon, _ float64, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, updateCall{eventID: eventID, lat: lat, lon: lon, address: address})
	return nil
}

func (f *fakeEvents) ListByWorker(_ context.Context, workerID string, limit int) ([]domain.AttendanceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.AttendanceEvent
	for i := len(f.rows) - 1; i >= 0 && len(result) < limit; i-- {
		if f.rows[i].WorkerID == workerID {
			result = append(result, f.rows[i])
		}
	}
	return result, nil
}

func (f *fakeEvents) setAppendErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appendErr = err
}

func (f *fakeEvents) byKind(kind domain.EventKind) []domain.AttendanceEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.AttendanceEvent
	for _, row := range f.rows {
		if row.Kind == kind {
			result = append(result, row)
		}
	}
	return result
}

func (f *fakeEvents) updateCalls() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.updates...)
}

type fakeFollowUps struct {
	mu        sync.Mutex
	rows      []domain.FollowUp
	createErr error
}

func (f *fakeFollowUps) Create(_ context.Context, fu *domain.FollowUp) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.rows = append(f.rows, *fu)
	return nil
}

func (f *fakeFollowUps) ListByWorker(_ context.Context, workerID string, limit int) ([]domain.FollowUp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []domain.FollowUp
	for i := len(f.rows) - 1; i >= 0 && len(result) < limit; i-- {
		if f.rows[i].WorkerID == workerID {
			result = append(result, f.rows[i])
		}
	}
	return result, nil
}

type fakeWorkers struct{}

func (fakeWorkers) FindByID(_ context.Context, id string) (*domain.Worker, error) {
	if id != workerID {
		return nil, domain.ErrWorkerNotFound
	}
	return &domain.Worker{ID: id, Name: "Asha Verma", Role: "employee"}, nil
}

type fakePublisher struct {
	mu    sync.Mutex
	count int
}

func (f *fakePublisher) PublishEventChanged(context.Context, string, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return nil
}

type fixture struct {
	svc       *usecase.AttendanceService
	source    *stubSource
	events    *fakeEvents
	followUps *fakeFollowUps
	publisher *fakePublisher
}

func newFixture(t *testing.T, syncInterval time.Duration) *fixture {
	t.Helper()
	source := newStubSource(12.9716, 77.5946, 12)
	events := &fakeEvents{}
	followUps := &fakeFollowUps{}
	publisher := &fakePublisher{}

	factory := func(id string) *tracking.Tracker {
		return tracking.NewTracker(
			id, source, tracking.NewAccuracyFilter(50),
			stubResolver{addr: "1 Main St, Springfield"},
			tracking.Options{FreshFixTimeout: 200 * time.Millisecond},
			logger.NewLogger("test"),
		)
	}

	svc := usecase.NewAttendanceService(events, followUps, fakeWorkers{}, publisher, factory, syncInterval, logger.NewLogger("test"))
	t.Cleanup(svc.Close)
	return &fixture{svc: svc, source: source, events: events, followUps: followUps, publisher: publisher}
}

func TestCheckInRecordsEventAndStartsTracking(t *testing.T) {
	fx := newFixture(t, time.Hour)
	ctx := context.Background()

	out, err := fx.svc.CheckIn(ctx, in.CheckInInput{WorkerID: workerID})
	require.NoError(t, err)
	assert.Equal(t, 12.9716, out.Latitude)
	assert.Equal(t, "1 Main St, Springfield", out.Address)

	checkins := fx.events.byKind(domain.KindCheckIn)
	require.Len(t, checkins, 1)
	assert.Equal(t, "Live GPS", *checkins[0].Note)
	assert.Equal(t, 12.9716, *checkins[0].Latitude)

	status, err := fx.svc.TrackingStatus(ctx, in.TrackingStatusInput{WorkerID: workerID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.PhaseCheckedIn), status.Phase)
	assert.True(t, status.Tracking)

	_, err = fx.svc.CheckIn(ctx, in.CheckInInput{WorkerID: workerID})
	assert.ErrorIs(t, err, domain.ErrAlreadyCheckedIn)
}

func TestCheckInRejectedOnLowAccuracy(t *testing.T) {
	fx := newFixture(t, time.Hour)
	fx.source.set(tracking.Sample{Latitude: 1, Longitude: 2, AccuracyMeters: 51}, nil)

	_, err := fx.svc.CheckIn(context.Background(), in.CheckInInput{WorkerID: workerID})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLocationUnavailable)
	assert.ErrorIs(t, err, tracking.ErrLowAccuracy)
	assert.Contains(t, err.Error(), "Accuracy is low (51m)")

	assert.Empty(t, fx.events.byKind(domain.KindCheckIn), "no event without an acceptable fix")
}

func TestCheckInUnknownWorker(t *testing.T) {
	fx := newFixture(t, time.Hour)
	_, err := fx.svc.CheckIn(context.Background(), in.CheckInInput{WorkerID: "nope"})
	assert.ErrorIs(t, err, domain.ErrWorkerNotFound)
}

func TestOperationsRequireOpenCheckin(t *testing.T) {
	fx := newFixture(t, time.Hour)
	ctx := context.Background()

	_, err := fx.svc.CheckOut(ctx, in.CheckOutInput{WorkerID: workerID})
	assert.ErrorIs(t, err, domain.ErrNotCheckedIn)

	_, err = fx.svc.LogVisit(ctx, in.LogVisitInput{WorkerID: workerID, ClientName: "Acme", Purpose: "demo"})
	assert.ErrorIs(t, err, domain.ErrNotCheckedIn)
}

func TestVisitAndCheckOutScenario(t *testing.T) {
	fx := newFixture(t, time.Hour)
	ctx := context.Background()

	checkin, err := fx.svc.CheckIn(ctx, in.CheckInInput{WorkerID: workerID})
	require.NoError(t, err)

	followUpDate := time.Now().AddDate(0, 0, 3)
	visit, err := fx.svc.LogVisit(ctx, in.LogVisitInput{
		WorkerID:     workerID,
		ClientName:   "Acme Corp",
		Purpose:      "quarterly review",
		FollowUpDate: followUpDate,
	})
	require.NoError(t, err)
	assert.Equal(t, "1 Main St, Springfield", visit.Location)

	visits := fx.events.byKind(domain.KindVisit)
	require.Len(t, visits, 1)
	assert.Equal(t, "Acme Corp - quarterly review", *visits[0].Note)
	assert.Equal(t, checkin.EventID, *visits[0].LinkedCheckInID)

	require.Len(t, fx.followUps.rows, 1)
	fu := fx.followUps.rows[0]
	assert.Equal(t, "Visit: Acme Corp", fu.Subject)
	assert.Equal(t, "Location: 1 Main St, Springfield\nPurpose: quarterly review", fu.Notes)
	assert.Equal(t, domain.FollowUpOpen, fu.Status)

	out, err := fx.svc.CheckOut(ctx, in.CheckOutInput{WorkerID: workerID})
	require.NoError(t, err)
	require.NotNil(t, out.Address)
	assert.Equal(t, "1 Main St, Springfield", *out.Address)

	checkouts := fx.events.byKind(domain.KindCheckOut)
	require.Len(t, checkouts, 1)
	assert.Equal(t, checkin.EventID, *checkouts[0].LinkedCheckInID)

	status, err := fx.svc.TrackingStatus(ctx, in.TrackingStatusInput{WorkerID: workerID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.PhaseIdle), status.Phase)
	assert.False(t, status.Tracking)
}

func TestVisitLocationOverrideWins(t *testing.T) {
	fx := newFixture(t, time.Hour)
	ctx := context.Background()

	_, err := fx.svc.CheckIn(ctx, in.CheckInInput{WorkerID: workerID})
	require.NoError(t, err)

	visit, err := fx.svc.LogVisit(ctx, in.LogVisitInput{
		WorkerID:         workerID,
		ClientName:       "Acme Corp",
		Purpose:          "demo",
		LocationOverride: "Client HQ, 5th floor",
	})
	require.NoError(t, err)
	assert.Equal(t, "Client HQ, 5th floor", visit.Location)
}

func TestVisitSurvivesFollowUpFailure(t *testing.T) {
	fx := newFixture(t, time.Hour)
	ctx := context.Background()

	_, err := fx.svc.CheckIn(ctx, in.CheckInInput{WorkerID: workerID})
	require.NoError(t, err)

	fx.followUps.createErr = errors.New("db down")
	visit, err := fx.svc.LogVisit(ctx, in.LogVisitInput{WorkerID: workerID, ClientName: "Acme", Purpose: "demo"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFollowUpNotRecorded)
	require.NotNil(t, visit, "partial result carries the stored event id")
	assert.NotEmpty(t, visit.EventID)
	assert.Empty(t, visit.FollowUpID)

	assert.Len(t, fx.events.byKind(domain.KindVisit), 1, "visit event must survive")
}

func TestCheckOutStorageFailureKeepsSessionOpen(t *testing.T) {
	fx := newFixture(t, time.Hour)
	ctx := context.Background()

	_, err := fx.svc.CheckIn(ctx, in.CheckInInput{WorkerID: workerID})
	require.NoError(t, err)

	fx.events.setAppendErr(errors.New("db down"))
	_, err = fx.svc.CheckOut(ctx, in.CheckOutInput{WorkerID: workerID})
	require.Error(t, err)

	status, err := fx.svc.TrackingStatus(ctx, in.TrackingStatusInput{WorkerID: workerID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.PhaseCheckedIn), status.Phase, "failed checkout must not end the session")
	assert.True(t, status.Tracking, "tracking resumes after a failed checkout")

	fx.events.setAppendErr(nil)
	_, err = fx.svc.CheckOut(ctx, in.CheckOutInput{WorkerID: workerID})
	require.NoError(t, err)
}

func TestSessionReconstructedFromEventLog(t *testing.T) {
	fx := newFixture(t, time.Hour)
	ctx := context.Background()

	checkin, err := fx.svc.CheckIn(ctx, in.CheckInInput{WorkerID: workerID})
	require.NoError(t, err)
	fx.svc.Close()

	// a fresh service over the same log resumes the open session
	factory := func(id string) *tracking.Tracker {
		return tracking.NewTracker(
			id, fx.source, tracking.NewAccuracyFilter(50),
			stubResolver{addr: "1 Main St, Springfield"},
			tracking.Options{FreshFixTimeout: 200 * time.Millisecond},
			logger.NewLogger("test"),
		)
	}
	svc := usecase.NewAttendanceService(fx.events, fx.followUps, fakeWorkers{}, fx.publisher, factory, time.Hour, logger.NewLogger("test"))
	defer svc.Close()

	status, err := svc.TrackingStatus(ctx, in.TrackingStatusInput{WorkerID: workerID})
	require.NoError(t, err)
	assert.Equal(t, string(domain.PhaseCheckedIn), status.Phase)
	require.NotNil(t, status.OpenCheckInID)
	assert.Equal(t, checkin.EventID, *status.OpenCheckInID)
	assert.True(t, status.Tracking)

	out, err := svc.CheckOut(ctx, in.CheckOutInput{WorkerID: workerID})
	require.NoError(t, err)
	checkouts := fx.events.byKind(domain.KindCheckOut)
	require.Len(t, checkouts, 1)
	assert.Equal(t, checkin.EventID, *checkouts[0].LinkedCheckInID)
	assert.Equal(t, out.EventID, checkouts[0].ID)
}

func TestSyncWritesNewFixesAndSkipsUnchanged(t *testing.T) {
	fx := newFixture(t, 25*time.Millisecond)
	ctx := context.Background()

	checkin, err := fx.svc.CheckIn(ctx, in.CheckInInput{WorkerID: workerID})
	require.NoError(t, err)

	// no new sample arrived: several intervals must pass with zero writes
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, fx.events.updateCalls(), "unchanged fix must not be re-persisted")

	fx.source.feed <- tracking.Sample{Latitude: 12.98, Longitude: 77.60, AccuracyMeters: 8, CapturedAt: time.Now()}
	require.Eventually(t, func() bool {
		return len(fx.events.updateCalls()) == 1
	}, time.Second, 5*time.Millisecond)

	call := fx.events.updateCalls()[0]
	assert.Equal(t, checkin.EventID, call.eventID)
	assert.Equal(t, 12.98, call.lat)

	// same fix again on later ticks: still exactly one write
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, fx.events.updateCalls(), 1)
}

func TestListActivitiesNewestFirst(t *testing.T) {
	fx := newFixture(t, time.Hour)
	ctx := context.Background()

	_, err := fx.svc.CheckIn(ctx, in.CheckInInput{WorkerID: workerID})
	require.NoError(t, err)
	_, err = fx.svc.LogVisit(ctx, in.LogVisitInput{WorkerID: workerID, ClientName: "Acme", Purpose: "demo"})
	require.NoError(t, err)

	out, err := fx.svc.ListActivities(ctx, in.ListActivitiesInput{WorkerID: workerID})
	require.NoError(t, err)
	require.Len(t, out.Events, 2)
	assert.Equal(t, domain.KindVisit, out.Events[0].Kind)
	assert.Equal(t, domain.KindCheckIn, out.Events[1].Kind)
}
