// Package simulator drives synthetic field workers through full attendance
// cycles against the real service stack. Useful for demos and for feeding
// the live service realistic movement without devices.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldtrack/internal/attendance/adapters/out/repo"
	in "fieldtrack/internal/attendance/application/ports/in"
	"fieldtrack/internal/attendance/domain"
	"fieldtrack/internal/shared/logger"
)

// Bengaluru CBD, the default simulation area.
const (
	baseLat = 12.9716
	baseLon = 77.5946
)

var simClients = []string{"Acme Corp", "Globex", "Initech", "Umbrella Traders", "Stark Supplies"}
var simPurposes = []string{"delivery", "sales call", "maintenance", "site survey", "collection"}

type Options struct {
	Workers int
	// CycleDuration is roughly how long one checkin-to-checkout cycle lasts.
	CycleDuration time.Duration
	Seed          int64
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 5
	}
	if o.CycleDuration <= 0 {
		o.CycleDuration = 2 * time.Minute
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}

// Simulator runs attendance cycles for a set of synthetic workers.
type Simulator struct {
	attendance in.AttendanceUseCase
	workers    *repo.WorkerRepository
	opts       Options
	log        *logger.Logger
}

func New(attendance in.AttendanceUseCase, workers *repo.WorkerRepository, opts Options, log *logger.Logger) *Simulator {
	return &Simulator{
		attendance: attendance,
		workers:    workers,
		opts:       opts.withDefaults(),
		log:        log,
	}
}

// WorkerID returns the deterministic id of the n-th synthetic worker, so
// repeated runs reuse the same rows.
func WorkerID(n int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("fieldtrack-sim-worker-%d", n))).String()
}

// Run seeds the workers and drives their cycles until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < s.opts.Workers; i++ {
		worker := &domain.Worker{
			ID:       WorkerID(i),
			Name:     fmt.Sprintf("Sim Worker %02d", i+1),
			Email:    fmt.Sprintf("sim%02d@fieldtrack.local", i+1),
			MobileNo: fmt.Sprintf("+91900000%04d", i+1),
			Role:     "employee",
		}
		if err := s.workers.Ensure(ctx, worker); err != nil {
			return fmt.Errorf("seed worker %s: %w", worker.ID, err)
		}

		wg.Add(1)
		go func(workerID string, seed int64) {
			defer wg.Done()
			s.runWorker(ctx, workerID, rand.New(rand.NewSource(seed)))
		}(worker.ID, s.opts.Seed+int64(i))
	}

	s.log.Info(logger.Entry{
		Action:  "simulation_started",
		Message: fmt.Sprintf("%d synthetic workers running", s.opts.Workers),
	})

	wg.Wait()
	return nil
}

func (s *Simulator) runWorker(ctx context.Context, workerID string, rng *rand.Rand) {
	for ctx.Err() == nil {
		if err := s.runCycle(ctx, workerID, rng); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn(logger.Entry{
				Action:   "simulation_cycle_failed",
				Message:  err.Error(),
				WorkerID: workerID,
			})
		}
		if !sleep(ctx, jitter(rng, s.opts.CycleDuration/4)) {
			return
		}
	}
}

func (s *Simulator) runCycle(ctx context.Context, workerID string, rng *rand.Rand) error {
	// low-accuracy samples from the simulated sensor make this fail
	// occasionally, which is the point: retry like a real device would
	if _, err := s.attendance.CheckIn(ctx, in.CheckInInput{WorkerID: workerID}); err != nil {
		if errors.Is(err, domain.ErrAlreadyCheckedIn) {
			// left over from a previous run; close it out and retry later
			_, _ = s.attendance.CheckOut(ctx, in.CheckOutInput{WorkerID: workerID})
		}
		return err
	}

	visits := 1 + rng.Intn(2)
	for i := 0; i < visits; i++ {
		if !sleep(ctx, jitter(rng, s.opts.CycleDuration/time.Duration(visits+1))) {
			return ctx.Err()
		}
		_, err := s.attendance.LogVisit(ctx, in.LogVisitInput{
			WorkerID:     workerID,
			ClientName:   simClients[rng.Intn(len(simClients))],
			Purpose:      simPurposes[rng.Intn(len(simPurposes))],
			FollowUpDate: time.Now().AddDate(0, 0, 1+rng.Intn(7)),
		})
		if err != nil && !errors.Is(err, domain.ErrFollowUpNotRecorded) {
			s.log.Warn(logger.Entry{
				Action:   "simulation_visit_failed",
				Message:  err.Error(),
				WorkerID: workerID,
			})
		}
	}

	if !sleep(ctx, jitter(rng, s.opts.CycleDuration/4)) {
		return ctx.Err()
	}
	_, err := s.attendance.CheckOut(ctx, in.CheckOutInput{WorkerID: workerID})
	return err
}

func jitter(rng *rand.Rand, base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	return base/2 + time.Duration(rng.Int63n(int64(base)))
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
