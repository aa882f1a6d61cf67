package transport

import (
	"net/http"

	"fieldtrack/internal/live/application/usecase"
	"fieldtrack/internal/shared/auth"
	"fieldtrack/internal/shared/logger"
)

// Routes registers the operator-facing live surface on the router.
func Routes(router *http.ServeMux, aggregator *usecase.Aggregator, jwtService *auth.JWTService, log *logger.Logger) {
	h := NewHandler(aggregator, log)
	operatorOnly := OperatorAuthMiddleware(jwtService, log)

	router.HandleFunc("GET /health", h.Health)
	router.Handle("GET /live/fixes", operatorOnly(http.HandlerFunc(h.Fixes)))

	log.Info(logger.Entry{
		Action:  "routes_registered",
		Message: "live routes registered",
	})
}
