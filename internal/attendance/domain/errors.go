package domain

import "errors"

var (
	// ErrAlreadyCheckedIn — check-in attempted while a checkin is already open
	ErrAlreadyCheckedIn = errors.New("worker is already checked in")

	// ErrNotCheckedIn — checkout or visit attempted with no open checkin
	ErrNotCheckedIn = errors.New("worker is not checked in")

	// ErrLocationUnavailable — no acceptable fix could be obtained for an
	// operation that requires one
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrFollowUpNotRecorded — the visit event was stored but its follow-up
	// reminder was not
	ErrFollowUpNotRecorded = errors.New("visit recorded but follow-up was not")

	// ErrWorkerNotFound — unknown worker id
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrEventNotFound — referenced attendance event does not exist
	ErrEventNotFound = errors.New("attendance event not found")
)
