package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldtrack/internal/live/domain"
)

// FixPgReader implements out.FixReader against the attendance event log.
type FixPgReader struct {
	db *pgxpool.Pool
}

func NewFixPgReader(db *pgxpool.Pool) *FixPgReader {
	return &FixPgReader{db: db}
}

// LatestFixes returns one fix per worker whose latest attendance event is a
// coordinate-bearing checkin. last_seen_at reflects the periodic location
// sync, not just the original checkin time.
func (r *FixPgReader) LatestFixes(ctx context.Context) ([]domain.Fix, error) {
	query := `
		SELECT e.worker_id, w.name, e.latitude, e.longitude, e.accuracy_meters,
		       e.address, GREATEST(e.occurred_at, e.updated_at) AS last_seen_at
		FROM (
			SELECT DISTINCT ON (worker_id)
			       worker_id, kind, latitude, longitude, accuracy_meters,
			       address, occurred_at, updated_at
			FROM attendance_events
			ORDER BY worker_id, occurred_at DESC
		) e
		JOIN workers w ON w.id = e.worker_id
		WHERE e.kind = 'checkin'
		  AND e.latitude IS NOT NULL
		  AND e.longitude IS NOT NULL
		ORDER BY e.worker_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select live fixes: %w", err)
	}
	defer rows.Close()

	var fixes []domain.Fix
	for rows.Next() {
		var fix domain.Fix
		if err := rows.Scan(
			&fix.WorkerID, &fix.WorkerName, &fix.Latitude, &fix.Longitude,
			&fix.AccuracyMeters, &fix.Address, &fix.LastSeenAt,
		); err != nil {
			return nil, fmt.Errorf("scan live fix: %w", err)
		}
		fixes = append(fixes, fix)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate live fixes: %w", err)
	}
	return fixes, nil
}
