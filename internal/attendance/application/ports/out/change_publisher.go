package out

import "context"

// ChangePublisher notifies interested consumers that a worker's attendance
// state or tracked location changed. Best effort: failures are logged by the
// caller and never fail the originating operation.
type ChangePublisher interface {
	PublishEventChanged(ctx context.Context, workerID, eventID string, kind string) error
}
