package repository

import (
	"context"

	"casebrief-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository handles database operations for reports
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create inserts a report. Reports are immutable; regeneration inserts a new
// row rather than updating an old one.
func (r *ReportRepository) Create(ctx context.Context, report *models.Report) error {
	query := `
		INSERT INTO reports (
			case_id, analyses, disclaimer
		) VALUES ($1, $2, $3)
		RETURNING id, generated_at`

	err := r.db.QueryRow(
		ctx, query,
		report.CaseID,
		report.Analyses,
		report.Disclaimer,
	).Scan(&report.ID, &report.GeneratedAt)

	return err
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	report := &models.Report{}
	query := `
		SELECT id, case_id, generated_at, analyses, disclaimer
		FROM reports
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&report.ID,
		&report.CaseID,
		&report.GeneratedAt,
		&report.Analyses,
		&report.Disclaimer,
	)

	if err != nil {
		return nil, err
	}

	return report, nil
}

// GetLatestByCaseID retrieves the newest report for a case; newer reports
// supersede visibility of older ones.
func (r *ReportRepository) GetLatestByCaseID(ctx context.Context, caseID uuid.UUID) (*models.Report, error) {
	report := &models.Report{}
	query := `
		SELECT id, case_id, generated_at, analyses, disclaimer
		FROM reports
		WHERE case_id = $1
		ORDER BY generated_at DESC
		LIMIT 1`

	err := r.db.QueryRow(ctx, query, caseID).Scan(
		&report.ID,
		&report.CaseID,
		&report.GeneratedAt,
		&report.Analyses,
		&report.Disclaimer,
	)

	if err != nil {
		return nil, err
	}

	return report, nil
}
