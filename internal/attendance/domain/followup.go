package domain

import "time"

type FollowUpStatus string

const (
	FollowUpOpen   FollowUpStatus = "open"
	FollowUpDone   FollowUpStatus = "done"
	FollowUpMissed FollowUpStatus = "missed"
)

// FollowUp is a reminder derived from a client visit.
type FollowUp struct {
	ID           string         `json:"id" db:"id"`
	WorkerID     string         `json:"worker_id" db:"worker_id"`
	Subject      string         `json:"subject" db:"subject"`
	Notes        string         `json:"notes" db:"notes"`
	FollowUpDate time.Time      `json:"followup_date" db:"followup_date"`
	Status       FollowUpStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
