package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"fieldtrack/internal/attendance/domain"
)

// FollowUpRepository implements out.FollowUpRepository for PostgreSQL.
type FollowUpRepository struct {
	db *pgxpool.Pool
}

func NewFollowUpRepository(db *pgxpool.Pool) *FollowUpRepository {
	return &FollowUpRepository{db: db}
}

func (r *FollowUpRepository) Create(ctx context.Context, followUp *domain.FollowUp) error {
	query := `
		INSERT INTO followups (id, worker_id, subject, notes, followup_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		followUp.ID,
		followUp.WorkerID,
		followUp.Subject,
		followUp.Notes,
		followUp.FollowUpDate,
		string(followUp.Status),
		followUp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert followup: %w", err)
	}
	return nil
}

func (r *FollowUpRepository) ListByWorker(ctx context.Context, workerID string, limit int) ([]domain.FollowUp, error) {
	query := `
		SELECT id, worker_id, subject, notes, followup_date, status, created_at
		FROM followups
		WHERE worker_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, workerID, limit)
	if err != nil {
		return nil, fmt.Errorf("select followups: %w", err)
	}
	defer rows.Close()

	var followUps []domain.FollowUp
	for rows.Next() {
		var fu domain.FollowUp
		var status string
		if err := rows.Scan(&fu.ID, &fu.WorkerID, &fu.Subject, &fu.Notes, &fu.FollowUpDate, &status, &fu.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan followup: %w", err)
		}
		fu.Status = domain.FollowUpStatus(status)
		followUps = append(followUps, fu)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate followups: %w", err)
	}
	return followUps, nil
}
