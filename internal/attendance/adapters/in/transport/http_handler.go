package transport

import (
	"errors"
	"net/http"
	"time"

	in "fieldtrack/internal/attendance/application/ports/in"
	"fieldtrack/internal/attendance/domain"
	"fieldtrack/internal/shared/logger"
	"fieldtrack/internal/tracking"
)

type Handler struct {
	attendance in.AttendanceUseCase
	log        *logger.Logger
}

func NewHandler(attendance in.AttendanceUseCase, log *logger.Logger) *Handler {
	return &Handler{attendance: attendance, log: log}
}

// Health — liveness probe
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// CheckIn — POST /attendance/checkin
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	workerID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "worker_id not found in context")
		return
	}

	output, err := h.attendance.CheckIn(r.Context(), in.CheckInInput{WorkerID: workerID})
	if err != nil {
		h.respondUseCaseError(w, "check_in_failed", workerID, err)
		return
	}
	respondJSON(w, http.StatusCreated, output)
}

// CheckOut — POST /attendance/checkout
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	workerID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "worker_id not found in context")
		return
	}

	output, err := h.attendance.CheckOut(r.Context(), in.CheckOutInput{WorkerID: workerID})
	if err != nil {
		h.respondUseCaseError(w, "check_out_failed", workerID, err)
		return
	}
	respondJSON(w, http.StatusCreated, output)
}

// LogVisit — POST /attendance/visits
func (h *Handler) LogVisit(w http.ResponseWriter, r *http.Request) {
	workerID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "worker_id not found in context")
		return
	}

	var req LogVisitRequest
	if err := readJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientName == "" || req.Purpose == "" {
		respondError(w, http.StatusBadRequest, "client_name and purpose are required")
		return
	}

	followUpDate, err := time.Parse("2006-01-02", req.FollowUpDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "followup_date must be YYYY-MM-DD")
		return
	}

	output, err := h.attendance.LogVisit(r.Context(), in.LogVisitInput{
		WorkerID:         workerID,
		ClientName:       req.ClientName,
		Purpose:          req.Purpose,
		FollowUpDate:     followUpDate,
		LocationOverride: req.LocationOverride,
	})
	if err != nil && !errors.Is(err, domain.ErrFollowUpNotRecorded) {
		h.respondUseCaseError(w, "log_visit_failed", workerID, err)
		return
	}

	resp := LogVisitResponse{
		EventID:    output.EventID,
		FollowUpID: output.FollowUpID,
		Location:   output.Location,
		OccurredAt: output.OccurredAt.Format(time.RFC3339),
	}
	if err != nil {
		// visit stored, reminder missing: partial success
		resp.Warning = domain.ErrFollowUpNotRecorded.Error()
	}
	respondJSON(w, http.StatusCreated, resp)
}

// TrackingStatus — GET /workers/{worker_id}/tracking
func (h *Handler) TrackingStatus(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("worker_id")
	if !canAccessWorker(r.Context(), workerID) {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}

	output, err := h.attendance.TrackingStatus(r.Context(), in.TrackingStatusInput{WorkerID: workerID})
	if err != nil {
		h.respondUseCaseError(w, "tracking_status_failed", workerID, err)
		return
	}
	respondJSON(w, http.StatusOK, output)
}

// ListActivities — GET /workers/{worker_id}/activities
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("worker_id")
	if !canAccessWorker(r.Context(), workerID) {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}

	output, err := h.attendance.ListActivities(r.Context(), in.ListActivitiesInput{WorkerID: workerID})
	if err != nil {
		h.respondUseCaseError(w, "list_activities_failed", workerID, err)
		return
	}
	respondJSON(w, http.StatusOK, output)
}

func (h *Handler) respondUseCaseError(w http.ResponseWriter, action, workerID string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrWorkerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyCheckedIn), errors.Is(err, domain.ErrNotCheckedIn):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrLocationUnavailable),
		errors.Is(err, tracking.ErrLowAccuracy),
		errors.Is(err, tracking.ErrSensorPermissionDenied):
		status = http.StatusUnprocessableEntity
	}

	logEntry := logger.Entry{
		Action:   action,
		Message:  err.Error(),
		WorkerID: workerID,
		Error:    &logger.ErrObj{Msg: err.Error()},
	}
	if status == http.StatusInternalServerError {
		h.log.Error(logEntry)
	} else {
		h.log.Warn(logEntry)
	}
	respondError(w, status, err.Error())
}
