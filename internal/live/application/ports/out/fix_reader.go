package out

import (
	"context"

	"fieldtrack/internal/live/domain"
)

// FixReader loads the current live set from the attendance event log.
type FixReader interface {
	LatestFixes(ctx context.Context) ([]domain.Fix, error)
}
