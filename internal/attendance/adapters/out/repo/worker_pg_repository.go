package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fieldtrack/internal/attendance/domain"
)

// WorkerRepository implements out.WorkerDirectory for PostgreSQL.
type WorkerRepository struct {
	db *pgxpool.Pool
}

func NewWorkerRepository(db *pgxpool.Pool) *WorkerRepository {
	return &WorkerRepository{db: db}
}

func (r *WorkerRepository) FindByID(ctx context.Context, workerID string) (*domain.Worker, error) {
	query := `
		SELECT id, name, email, mobile_no, role, created_at, updated_at
		FROM workers
		WHERE id = $1
	`

	var w domain.Worker
	err := r.db.QueryRow(ctx, query, workerID).Scan(
		&w.ID, &w.Name, &w.Email, &w.MobileNo, &w.Role, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkerNotFound
		}
		return nil, fmt.Errorf("select worker: %w", err)
	}
	return &w, nil
}

// Ensure upserts a worker record. Used by seeding and the simulator.
func (r *WorkerRepository) Ensure(ctx context.Context, worker *domain.Worker) error {
	query := `
		INSERT INTO workers (id, name, email, mobile_no, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email,
		    mobile_no = EXCLUDED.mobile_no, role = EXCLUDED.role,
		    updated_at = now()
	`

	_, err := r.db.Exec(ctx, query, worker.ID, worker.Name, worker.Email, worker.MobileNo, worker.Role)
	if err != nil {
		return fmt.Errorf("upsert worker: %w", err)
	}
	return nil
}
