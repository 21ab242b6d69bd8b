package repository

import (
	"context"
	"time"

	"casebrief-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CaseRepository handles database operations for cases
type CaseRepository struct {
	db *pgxpool.Pool
}

// NewCaseRepository creates a new case repository
func NewCaseRepository(db *pgxpool.Pool) *CaseRepository {
	return &CaseRepository{db: db}
}

// Create creates a new case
func (r *CaseRepository) Create(ctx context.Context, cs *models.Case) error {
	query := `
		INSERT INTO cases (
			status, applicant_name, jurisdiction, raw_notes,
			medical_needs, family_members, documentation_gaps, social_support_needs,
			has_minor_children, education_needs, housing_situation, detention_history,
			employment_status, seeks_work_authorization, movement_restricted, stateless
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		) RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		cs.Status,
		cs.ApplicantName,
		cs.Jurisdiction,
		cs.RawNotes,
		cs.MedicalNeeds,
		cs.FamilyMembers,
		cs.DocumentationGaps,
		cs.SocialSupportNeeds,
		cs.HasMinorChildren,
		cs.EducationNeeds,
		cs.HousingSituation,
		cs.DetentionHistory,
		cs.EmploymentStatus,
		cs.SeeksWorkAuthorization,
		cs.MovementRestricted,
		cs.Stateless,
	).Scan(&cs.ID, &cs.CreatedAt, &cs.UpdatedAt)

	return err
}

// GetByID retrieves a case by ID
func (r *CaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	cs := &models.Case{}
	query := `
		SELECT id, status, applicant_name, jurisdiction, raw_notes,
			medical_needs, family_members, documentation_gaps, social_support_needs,
			has_minor_children, education_needs, housing_situation, detention_history,
			employment_status, seeks_work_authorization, movement_restricted, stateless,
			created_at, updated_at, finalized_at
		FROM cases
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&cs.ID,
		&cs.Status,
		&cs.ApplicantName,
		&cs.Jurisdiction,
		&cs.RawNotes,
		&cs.MedicalNeeds,
		&cs.FamilyMembers,
		&cs.DocumentationGaps,
		&cs.SocialSupportNeeds,
		&cs.HasMinorChildren,
		&cs.EducationNeeds,
		&cs.HousingSituation,
		&cs.DetentionHistory,
		&cs.EmploymentStatus,
		&cs.SeeksWorkAuthorization,
		&cs.MovementRestricted,
		&cs.Stateless,
		&cs.CreatedAt,
		&cs.UpdatedAt,
		&cs.FinalizedAt,
	)

	if err != nil {
		return nil, err
	}

	return cs, nil
}

// Update updates a case's editable fields
func (r *CaseRepository) Update(ctx context.Context, cs *models.Case) error {
	query := `
		UPDATE cases SET
			status = $2,
			applicant_name = $3,
			jurisdiction = $4,
			raw_notes = $5,
			medical_needs = $6,
			family_members = $7,
			documentation_gaps = $8,
			social_support_needs = $9,
			has_minor_children = $10,
			education_needs = $11,
			housing_situation = $12,
			detention_history = $13,
			employment_status = $14,
			seeks_work_authorization = $15,
			movement_restricted = $16,
			stateless = $17,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		cs.ID,
		cs.Status,
		cs.ApplicantName,
		cs.Jurisdiction,
		cs.RawNotes,
		cs.MedicalNeeds,
		cs.FamilyMembers,
		cs.DocumentationGaps,
		cs.SocialSupportNeeds,
		cs.HasMinorChildren,
		cs.EducationNeeds,
		cs.HousingSituation,
		cs.DetentionHistory,
		cs.EmploymentStatus,
		cs.SeeksWorkAuthorization,
		cs.MovementRestricted,
		cs.Stateless,
	).Scan(&cs.UpdatedAt)

	return err
}

// MarkFinalized records that a report has been generated for the case.
// Finalization is one-way; a later regeneration produces a new report rather
// than reopening the case.
func (r *CaseRepository) MarkFinalized(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	query := `
		UPDATE cases SET
			status = $2,
			finalized_at = $3,
			updated_at = $3
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, models.CaseStatusFinalized, now)
	return err
}

// List retrieves cases ordered by recency
func (r *CaseRepository) List(ctx context.Context, limit, offset int) ([]*models.Case, error) {
	query := `
		SELECT id, status, applicant_name, jurisdiction, raw_notes,
			medical_needs, family_members, documentation_gaps, social_support_needs,
			has_minor_children, education_needs, housing_situation, detention_history,
			employment_status, seeks_work_authorization, movement_restricted, stateless,
			created_at, updated_at, finalized_at
		FROM cases
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cases []*models.Case
	for rows.Next() {
		cs := &models.Case{}
		err := rows.Scan(
			&cs.ID,
			&cs.Status,
			&cs.ApplicantName,
			&cs.Jurisdiction,
			&cs.RawNotes,
			&cs.MedicalNeeds,
			&cs.FamilyMembers,
			&cs.DocumentationGaps,
			&cs.SocialSupportNeeds,
			&cs.HasMinorChildren,
			&cs.EducationNeeds,
			&cs.HousingSituation,
			&cs.DetentionHistory,
			&cs.EmploymentStatus,
			&cs.SeeksWorkAuthorization,
			&cs.MovementRestricted,
			&cs.Stateless,
			&cs.CreatedAt,
			&cs.UpdatedAt,
			&cs.FinalizedAt,
		)
		if err != nil {
			return nil, err
		}
		cases = append(cases, cs)
	}

	return cases, rows.Err()
}
