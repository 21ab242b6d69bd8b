package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"casebrief-backend/models"

	"github.com/google/uuid"
)

// CaseStore is the keyed case persistence the services depend on.
type CaseStore interface {
	Create(ctx context.Context, cs *models.Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
	Update(ctx context.Context, cs *models.Case) error
	MarkFinalized(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Case, error)
}

// Generator is the strict-JSON generation capability. A call may fail or
// return output that does not decode.
type Generator interface {
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out interface{}) error
}

var (
	ErrCaseNotFound    = errors.New("case not found")
	ErrEmptyNotes      = errors.New("intake notes are empty")
	ErrIntakeFailed    = errors.New("failed to analyze intake notes")
	ErrCaseStoreNotSet = errors.New("case store not set")
)

// CaseService handles case intake and lifecycle
type CaseService struct {
	caseStore CaseStore
	generator Generator
}

// CaseServiceOption is a functional option for CaseService
type CaseServiceOption func(*CaseService)

// WithCaseStore sets the case store
func WithCaseStore(store CaseStore) CaseServiceOption {
	return func(s *CaseService) {
		s.caseStore = store
	}
}

// WithGenerator sets the generation capability
func WithGenerator(g Generator) CaseServiceOption {
	return func(s *CaseService) {
		s.generator = g
	}
}

// NewCaseService creates a new case service
func NewCaseService(opts ...CaseServiceOption) *CaseService {
	s := &CaseService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const intakeSystemPrompt = "You are an intake analyst for a legal aid organization supporting displaced persons. " +
	"You extract only facts stated in the notes. You never invent facts. Return valid JSON only."

// intakeExtraction is the strict shape expected from intake analysis.
type intakeExtraction struct {
	ApplicantName          string   `json:"applicant_name"`
	Jurisdiction           string   `json:"jurisdiction"`
	MedicalNeeds           []string `json:"medical_needs"`
	FamilyMembers          []string `json:"family_members"`
	DocumentationGaps      []string `json:"documentation_gaps"`
	SocialSupportNeeds     []string `json:"social_support_needs"`
	HasMinorChildren       bool     `json:"has_minor_children"`
	EducationNeeds         string   `json:"education_needs"`
	HousingSituation       string   `json:"housing_situation"`
	DetentionHistory       string   `json:"detention_history"`
	EmploymentStatus       string   `json:"employment_status"`
	SeeksWorkAuthorization bool     `json:"seeks_work_authorization"`
	MovementRestricted     bool     `json:"movement_restricted"`
	Stateless              bool     `json:"stateless"`
}

// AnalyzeIntakeRequest represents a request to analyze raw intake notes
type AnalyzeIntakeRequest struct {
	RawNotes string
}

// AnalyzeIntakeResult represents the result of intake analysis
type AnalyzeIntakeResult struct {
	Case *models.Case
}

// AnalyzeIntake turns unstructured case notes into a structured Case via the
// generation capability and persists it. A decode failure rejects the whole
// request; there is no partial case to fall back to.
func (s *CaseService) AnalyzeIntake(ctx context.Context, req AnalyzeIntakeRequest) (*AnalyzeIntakeResult, error) {
	if s.caseStore == nil {
		return nil, ErrCaseStoreNotSet
	}
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}
	if strings.TrimSpace(req.RawNotes) == "" {
		return nil, ErrEmptyNotes
	}

	prompt := fmt.Sprintf(`Extract the structured case facts from these caseworker intake notes.

INTAKE NOTES:
%s

Return a JSON object with exactly these fields:
{
  "applicant_name": "",
  "jurisdiction": "",
  "medical_needs": [],
  "family_members": [],
  "documentation_gaps": [],
  "social_support_needs": [],
  "has_minor_children": false,
  "education_needs": "",
  "housing_situation": "",
  "detention_history": "",
  "employment_status": "",
  "seeks_work_authorization": false,
  "movement_restricted": false,
  "stateless": false
}

Rules:
- jurisdiction is the country the applicant is currently in, lowercase (e.g., "switzerland"), or "" if not stated
- list fields contain short phrases taken from the notes, [] when nothing applies
- string fields are "" when the notes say nothing about them
- booleans are true only when the notes state the fact

Return ONLY valid JSON, no markdown, no explanations.`, req.RawNotes)

	var extracted intakeExtraction
	if err := s.generator.GenerateJSON(ctx, intakeSystemPrompt, prompt, &extracted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntakeFailed, err)
	}

	cs := &models.Case{
		Status:                 models.CaseStatusIntake,
		ApplicantName:          extracted.ApplicantName,
		Jurisdiction:           strings.ToLower(strings.TrimSpace(extracted.Jurisdiction)),
		RawNotes:               req.RawNotes,
		MedicalNeeds:           extracted.MedicalNeeds,
		FamilyMembers:          extracted.FamilyMembers,
		DocumentationGaps:      extracted.DocumentationGaps,
		SocialSupportNeeds:     extracted.SocialSupportNeeds,
		HasMinorChildren:       extracted.HasMinorChildren,
		EducationNeeds:         extracted.EducationNeeds,
		HousingSituation:       extracted.HousingSituation,
		DetentionHistory:       extracted.DetentionHistory,
		EmploymentStatus:       extracted.EmploymentStatus,
		SeeksWorkAuthorization: extracted.SeeksWorkAuthorization,
		MovementRestricted:     extracted.MovementRestricted,
		Stateless:              extracted.Stateless,
	}

	if err := s.caseStore.Create(ctx, cs); err != nil {
		return nil, err
	}

	return &AnalyzeIntakeResult{Case: cs}, nil
}

// GetCaseRequest represents a request to get a case
type GetCaseRequest struct {
	ID uuid.UUID
}

// GetCaseResult represents the result of getting a case
type GetCaseResult struct {
	Case *models.Case
}

// GetCase retrieves a case by ID
func (s *CaseService) GetCase(ctx context.Context, req GetCaseRequest) (*GetCaseResult, error) {
	if s.caseStore == nil {
		return nil, ErrCaseStoreNotSet
	}

	cs, err := s.caseStore.GetByID(ctx, req.ID)
	if err != nil {
		return nil, ErrCaseNotFound
	}

	return &GetCaseResult{Case: cs}, nil
}

// UpdateCaseRequest represents a request to update a case
type UpdateCaseRequest struct {
	Case *models.Case
}

// UpdateCaseResult represents the result of updating a case
type UpdateCaseResult struct {
	Case *models.Case
}

// UpdateCase persists verification-form edits to a case
func (s *CaseService) UpdateCase(ctx context.Context, req UpdateCaseRequest) (*UpdateCaseResult, error) {
	if s.caseStore == nil {
		return nil, ErrCaseStoreNotSet
	}

	if err := s.caseStore.Update(ctx, req.Case); err != nil {
		return nil, err
	}

	return &UpdateCaseResult{Case: req.Case}, nil
}

// ListCasesRequest represents a request to list cases
type ListCasesRequest struct {
	Limit  int
	Offset int
}

// ListCasesResult represents the result of listing cases
type ListCasesResult struct {
	Cases []*models.Case
}

// ListCases lists cases ordered by recency
func (s *CaseService) ListCases(ctx context.Context, req ListCasesRequest) (*ListCasesResult, error) {
	if s.caseStore == nil {
		return nil, ErrCaseStoreNotSet
	}

	cases, err := s.caseStore.List(ctx, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	return &ListCasesResult{Cases: cases}, nil
}
