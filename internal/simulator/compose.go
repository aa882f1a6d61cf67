package simulator

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"fieldtrack/internal/attendance/adapters/out/messaging"
	"fieldtrack/internal/attendance/adapters/out/repo"
	"fieldtrack/internal/attendance/application/usecase"
	"fieldtrack/internal/shared/config"
	"fieldtrack/internal/shared/db"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/shared/mq"
	"fieldtrack/internal/tracking"
	"fieldtrack/internal/tracking/simsensor"
)

// gridResolver fabricates addresses from coordinates so the simulation does
// not hit a real geocoder.
type gridResolver struct{}

func (gridResolver) Resolve(_ context.Context, lat, lon float64) (string, error) {
	return fmt.Sprintf("Block %d-%d, Bengaluru",
		int(math.Abs(lat*1000))%1000, int(math.Abs(lon*1000))%1000), nil
}

// Run wires the attendance stack with simulated sensors and drives the
// synthetic workers until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, opts Options, log *logger.Logger) error {
	dbPool, err := db.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close(dbPool, log)

	if err := db.Migrate(ctx, dbPool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	broker, err := mq.NewRabbitMQ(ctx, cfg.RabbitMQ, log)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer broker.Close()

	if err := mq.SetupTopology(broker); err != nil {
		return fmt.Errorf("setup topology: %w", err)
	}

	opts = opts.withDefaults()
	filter := tracking.NewAccuracyFilter(cfg.Tracking.AccuracyThresholdMeters)
	trackerOpts := tracking.Options{
		FreshFixTimeout: cfg.Tracking.FreshFixTimeout(),
		MaxSampleAge:    cfg.Tracking.MaxSampleAge(),
	}
	trackerFactory := func(workerID string) *tracking.Tracker {
		h := fnv.New64a()
		_, _ = h.Write([]byte(workerID))
		seed := int64(h.Sum64())

		// scatter start positions a few hundred meters apart
		startLat := baseLat + float64(seed%100)*0.0005
		startLon := baseLon + float64((seed/100)%100)*0.0005
		sensor := simsensor.New(startLat, startLon, 2*time.Second, 0.1, seed)
		return tracking.NewTracker(workerID, sensor, filter, gridResolver{}, trackerOpts, log)
	}

	eventRepo := repo.NewEventRepository(dbPool)
	followUpRepo := repo.NewFollowUpRepository(dbPool)
	workerRepo := repo.NewWorkerRepository(dbPool)
	publisher := messaging.NewChangePublisher(broker)

	attendanceSvc := usecase.NewAttendanceService(
		eventRepo, followUpRepo, workerRepo, publisher,
		trackerFactory, cfg.Tracking.SyncInterval(), log,
	)
	defer attendanceSvc.Close()

	sim := New(attendanceSvc, workerRepo, opts, log)
	return sim.Run(ctx)
}
