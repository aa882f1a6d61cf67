package transport

import (
	"net/http"

	in "fieldtrack/internal/attendance/application/ports/in"
	"fieldtrack/internal/shared/auth"
	"fieldtrack/internal/shared/logger"
)

// Routes registers the attendance HTTP surface on the router.
func Routes(router *http.ServeMux, attendance in.AttendanceUseCase, jwtService *auth.JWTService, log *logger.Logger) {
	h := NewHandler(attendance, log)
	authRequired := JWTMiddleware(jwtService, log)

	router.HandleFunc("GET /health", h.Health)
	router.Handle("POST /attendance/checkin", authRequired(http.HandlerFunc(h.CheckIn)))
	router.Handle("POST /attendance/checkout", authRequired(http.HandlerFunc(h.CheckOut)))
	router.Handle("POST /attendance/visits", authRequired(http.HandlerFunc(h.LogVisit)))
	router.Handle("GET /workers/{worker_id}/tracking", authRequired(http.HandlerFunc(h.TrackingStatus)))
	router.Handle("GET /workers/{worker_id}/activities", authRequired(http.HandlerFunc(h.ListActivities)))

	log.Info(logger.Entry{
		Action:  "routes_registered",
		Message: "attendance routes registered",
	})
}
