package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldtrack/internal/attendance/domain"
)

// EventRepository implements out.EventRepository for PostgreSQL.
type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `
	id, worker_id, kind, latitude, longitude, accuracy_meters,
	address, note, linked_checkin_id, occurred_at, updated_at
`

func (r *EventRepository) Append(ctx context.Context, event *domain.AttendanceEvent) error {
	query := `
		INSERT INTO attendance_events (
			id, worker_id, kind, latitude, longitude, accuracy_meters,
			address, note, linked_checkin_id, occurred_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		event.ID,
		event.WorkerID,
		string(event.Kind),
		event.Latitude,
		event.Longitude,
		event.AccuracyMeters,
		event.Address,
		event.Note,
		event.LinkedCheckInID,
		event.OccurredAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert attendance event: %w", err)
	}
	return nil
}

func (r *EventRepository) LatestByWorker(ctx context.Context, workerID string) (*domain.AttendanceEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE worker_id = $1
		ORDER BY occurred_at DESC
		LIMIT 1
	`

	event, err := scanEvent(r.db.QueryRow(ctx, query, workerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select latest attendance event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) UpdateLocation(ctx context.Context, eventID string, lat, lon, accuracy float64, address string) error {
	query := `
		UPDATE attendance_events
		SET latitude = $2, longitude = $3, accuracy_meters = $4,
		    address = $5, updated_at = now()
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, eventID, lat, lon, accuracy, address)
	if err != nil {
		return fmt.Errorf("update attendance event location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) ListByWorker(ctx context.Context, workerID string, limit int) ([]domain.AttendanceEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attendance_events
		WHERE worker_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, workerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select attendance events: %w", err)
	}
	defer rows.Close()

	var events []domain.AttendanceEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attendance event: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance events: %w", err)
	}
	return events, nil
}

func scanEvent(row pgx.Row) (*domain.AttendanceEvent, error) {
	var event domain.AttendanceEvent
	var kind string
	err := row.Scan(
		&event.ID,
		&event.WorkerID,
		&kind,
		&event.Latitude,
		&event.Longitude,
		&event.AccuracyMeters,
		&event.Address,
		&event.Note,
		&event.LinkedCheckInID,
		&event.OccurredAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	event.Kind = domain.EventKind(kind)
	return &event, nil
}
