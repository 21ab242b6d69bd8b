package repository

import (
	"context"
	"time"

	"casebrief-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportJobRepository handles database operations for report generation jobs
type ReportJobRepository struct {
	db *pgxpool.Pool
}

// NewReportJobRepository creates a new report job repository
func NewReportJobRepository(db *pgxpool.Pool) *ReportJobRepository {
	return &ReportJobRepository{db: db}
}

// Create creates a new report job
func (r *ReportJobRepository) Create(ctx context.Context, job *models.ReportJob) error {
	query := `
		INSERT INTO report_jobs (
			case_id, status, steps, error_message
		) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		job.CaseID,
		job.Status,
		job.Steps,
		job.ErrorMessage,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)

	return err
}

// GetByID retrieves a report job by ID
func (r *ReportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ReportJob, error) {
	job := &models.ReportJob{}
	query := `
		SELECT id, case_id, status, steps, report_id, error_message,
			created_at, updated_at, completed_at
		FROM report_jobs
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.CaseID,
		&job.Status,
		&job.Steps,
		&job.ReportID,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	if job.Steps == nil {
		job.Steps = make(models.CategorySteps, 0)
	}

	return job, nil
}

// UpdateStatus updates the status of a report job
func (r *ReportJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReportJobStatus) error {
	query := `
		UPDATE report_jobs SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// UpdateSteps replaces the per-category progress of a report job
func (r *ReportJobRepository) UpdateSteps(ctx context.Context, id uuid.UUID, steps models.CategorySteps) error {
	query := `
		UPDATE report_jobs SET
			steps = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, steps)
	return err
}

// Complete marks a report job as completed and links the produced report
func (r *ReportJobRepository) Complete(ctx context.Context, id, reportID uuid.UUID) error {
	now := time.Now()
	query := `
		UPDATE report_jobs SET
			status = $2,
			report_id = $3,
			completed_at = $4,
			updated_at = $4
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.JobStatusCompleted, reportID, now)
	return err
}

// Fail marks a report job as failed with an error message
func (r *ReportJobRepository) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE report_jobs SET
			status = $2,
			error_message = $3,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.JobStatusFailed, errorMessage)
	return err
}
