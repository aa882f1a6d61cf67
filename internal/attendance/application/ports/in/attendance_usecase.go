package in

import "context"

// AttendanceUseCase — the full worker-facing surface of the attendance
// context.
type AttendanceUseCase interface {
	CheckIn(ctx context.Context, input CheckInInput) (*CheckInOutput, error)
	CheckOut(ctx context.Context, input CheckOutInput) (*CheckOutOutput, error)
	LogVisit(ctx context.Context, input LogVisitInput) (*LogVisitOutput, error)
	TrackingStatus(ctx context.Context, input TrackingStatusInput) (*TrackingStatusOutput, error)
	ListActivities(ctx context.Context, input ListActivitiesInput) (*ListActivitiesOutput, error)
}
