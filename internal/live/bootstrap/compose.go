package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"fieldtrack/internal/live/adapters/in/in_amqp"
	"fieldtrack/internal/live/adapters/in/transport"
	"fieldtrack/internal/live/adapters/out/repo"
	"fieldtrack/internal/live/application/usecase"
	"fieldtrack/internal/shared/auth"
	"fieldtrack/internal/shared/config"
	"fieldtrack/internal/shared/db"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/shared/mq"
	"fieldtrack/internal/shared/ws"
)

// fallbackRefreshInterval guards against missed change notifications.
const fallbackRefreshInterval = 30 * time.Second

// Run starts the live service and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, log *logger.Logger) {
	log.Info(logger.Entry{Action: "live_service_starting", Message: "initializing live service"})

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

	reader := repo.NewFixPgReader(dbPool)
	aggregator := usecase.NewAggregator(reader, log)

	if err := aggregator.Refresh(ctx); err != nil {
		log.Warn(logger.Entry{
			Action:  "live_initial_refresh_failed",
			Message: err.Error(),
		})
	}

	consumer := in_amqp.NewChangeConsumer(broker, aggregator, log)
	if err := consumer.Start(ctx); err != nil {
		log.Fatal(logger.Entry{
			Action:  "change_consumer_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	// periodic full recompute in case a notification was lost
	go func() {
		ticker := time.NewTicker(fallbackRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := aggregator.Refresh(ctx); err != nil {
					log.Warn(logger.Entry{
						Action:  "live_refresh_failed",
						Message: err.Error(),
					})
				}
			}
		}
	}()

	pusher := transport.NewWSPusher(hub, aggregator, log)
	go pusher.Run(ctx)

	mux := http.NewServeMux()
	transport.Routes(mux, aggregator, jwtService, log)
	mux.HandleFunc("GET /ws", hub.ServeWS)

	addr := fmt.Sprintf(":%d", cfg.Services.LivePort)
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
	log.Info(logger.Entry{Action: "live_service_stopping", Message: "shutting down live service"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(logger.Entry{
			Action:  "http_server_shutdown_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	log.Info(logger.Entry{Action: "live_service_stopped", Message: "live service stopped"})
}
