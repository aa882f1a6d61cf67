package transport

// LogVisitRequest — record a client visit.
type LogVisitRequest struct {
	ClientName string `json:"client_name"`
	Purpose    string `json:"purpose"`
	// FollowUpDate is a calendar date, YYYY-MM-DD.
	FollowUpDate     string `json:"followup_date"`
	LocationOverride string `json:"location_override,omitempty"`
}

// LogVisitResponse mirrors the use case output plus an optional warning for
// partial success (visit stored, follow-up not).
type LogVisitResponse struct {
	EventID    string `json:"event_id"`
	FollowUpID string `json:"followup_id,omitempty"`
	Location   string `json:"location"`
	OccurredAt string `json:"occurred_at"`
	Warning    string `json:"warning,omitempty"`
}

// ErrorResponse — standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
