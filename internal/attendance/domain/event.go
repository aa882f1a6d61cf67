package domain

import "time"

// EventKind discriminates the rows of the attendance event log.
type EventKind string

const (
	KindCheckIn  EventKind = "checkin"
	KindCheckOut EventKind = "checkout"
	KindVisit    EventKind = "visit"
)

// Phase is the worker's attendance state, derived from the latest event.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseCheckedIn Phase = "checked_in"
)

// AttendanceEvent is one immutable-identity row in the per-worker event log.
// Location fields are nullable: a checkout recorded without a usable fix
// carries no coordinates. The open checkin row is the only row whose location
// fields are updated in place, by the periodic sync.
type AttendanceEvent struct {
	ID              string    `json:"id" db:"id"`
	WorkerID        string    `json:"worker_id" db:"worker_id"`
	Kind            EventKind `json:"kind" db:"kind"`
	Latitude        *float64  `json:"latitude" db:"latitude"`
	Longitude       *float64  `json:"longitude" db:"longitude"`
	AccuracyMeters  *float64  `json:"accuracy_meters" db:"accuracy_meters"`
	Address         *string   `json:"address" db:"address"`
	Note            *string   `json:"note" db:"note"`
	LinkedCheckInID *string   `json:"linked_checkin_id" db:"linked_checkin_id"`
	OccurredAt      time.Time `json:"occurred_at" db:"occurred_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// PhaseOf derives the attendance phase from the latest event, nil meaning an
// empty log. Only an open checkin puts the worker in PhaseCheckedIn; visits
// never change phase.
func PhaseOf(latest *AttendanceEvent) Phase {
	if latest == nil {
		return PhaseIdle
	}
	if latest.Kind == KindCheckIn {
		return PhaseCheckedIn
	}
	return PhaseIdle
}
