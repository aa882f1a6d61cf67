package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fieldtrack/internal/attendance/adapters/in/in_ws"
	"fieldtrack/internal/attendance/adapters/in/transport"
	"fieldtrack/internal/attendance/adapters/out/messaging"
	"fieldtrack/internal/attendance/adapters/out/repo"
	"fieldtrack/internal/attendance/application/usecase"
	"fieldtrack/internal/shared/auth"
	"fieldtrack/internal/shared/config"
	"fieldtrack/internal/shared/db"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/shared/mq"
	"fieldtrack/internal/shared/ws"
	"fieldtrack/internal/tracking"
	"fieldtrack/internal/tracking/geocode"
)

// Run starts the attendance service and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, log *logger.Logger) {
	log.Info(logger.Entry{Action: "attendance_service_starting", Message: "initializing attendance service"})

	dbPool, err := db.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "db_connection_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
	defer db.Close(dbPool, log)

	if err := db.Migrate(ctx, dbPool); err != nil {
		log.Fatal(logger.Entry{
			Action:  "db_migration_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	broker, err := mq.NewRabbitMQ(ctx, cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "rabbitmq_connection_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
	defer broker.Close()

	if err := mq.SetupTopology(broker); err != nil {
		log.Fatal(logger.Entry{
			Action:  "rabbitmq_topology_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	hub := ws.NewHub(jwtService.ExtractUserID, log)
	go hub.Run(ctx)

	gateway := in_ws.NewSensorGateway(hub, log)
	hub.SetMessageHandler(gateway.HandleMessage)

	resolver := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.Timeout())
	filter := tracking.NewAccuracyFilter(cfg.Tracking.AccuracyThresholdMeters)
	trackerOpts := tracking.Options{
		FreshFixTimeout: cfg.Tracking.FreshFixTimeout(),
		MaxSampleAge:    cfg.Tracking.MaxSampleAge(),
	}
	trackerFactory := func(workerID string) *tracking.Tracker {
		return tracking.NewTracker(workerID, gateway.Source(workerID), filter, resolver, trackerOpts, log)
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

	mux := http.NewServeMux()
	transport.Routes(mux, attendanceSvc, jwtService, log)
	mux.HandleFunc("GET /ws", hub.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Services.AttendancePort)
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(logger.Entry{
			Action:  "http_server_starting",
			Message: fmt.Sprintf("listening on %s", addr),
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(logger.Entry{
				Action:  "http_server_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}()

	<-ctx.Done()
	log.Info(logger.Entry{Action: "attendance_service_stopping", Message: "shutting down attendance service"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(logger.Entry{
			Action:  "http_server_shutdown_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	log.Info(logger.Entry{Action: "attendance_service_stopped", Message: "attendance service stopped"})
}
