package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"casebrief-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// intakeGenerator returns a fixed JSON payload for every GenerateJSON call.
type intakeGenerator struct {
	payload string
	err     error
}

func (g *intakeGenerator) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out interface{}) error {
	if g.err != nil {
		return g.err
	}
	return json.Unmarshal([]byte(g.payload), out)
}

func TestAnalyzeIntake_ExtractsAndPersists(t *testing.T) {
	caseStore := newMemCaseStore()
	generator := &intakeGenerator{payload: `{
		"applicant_name": "A. Osman",
		"jurisdiction": "Switzerland",
		"medical_needs": ["diabetes treatment"],
		"family_members": [],
		"documentation_gaps": ["no passport"],
		"social_support_needs": [],
		"has_minor_children": true,
		"education_needs": "",
		"housing_situation": "emergency shelter",
		"detention_history": "",
		"employment_status": "",
		"seeks_work_authorization": true,
		"movement_restricted": false,
		"stateless": false
	}`}
	svc := NewCaseService(WithCaseStore(caseStore), WithGenerator(generator))

	result, err := svc.AnalyzeIntake(context.Background(), AnalyzeIntakeRequest{
		RawNotes: "Client arrived with diabetic condition, no passport, two children...",
	})
	require.NoError(t, err)

	cs := result.Case
	assert.NotEqual(t, uuid.Nil, cs.ID, "case is persisted")
	assert.Equal(t, models.CaseStatusIntake, cs.Status)
	assert.Equal(t, "A. Osman", cs.ApplicantName)
	assert.Equal(t, "switzerland", cs.Jurisdiction, "jurisdiction is normalized to lowercase")
	assert.Equal(t, models.StringList{"diabetes treatment"}, cs.MedicalNeeds)
	assert.Equal(t, models.StringList{"no passport"}, cs.DocumentationGaps)
	assert.True(t, cs.HasMinorChildren)
	assert.True(t, cs.SeeksWorkAuthorization)
	assert.Contains(t, cs.RawNotes, "diabetic condition", "the raw notes are kept verbatim")
}

func TestAnalyzeIntake_EmptyNotesRejected(t *testing.T) {
	svc := NewCaseService(WithCaseStore(newMemCaseStore()), WithGenerator(&intakeGenerator{}))

	_, err := svc.AnalyzeIntake(context.Background(), AnalyzeIntakeRequest{RawNotes: "  \n "})
	assert.ErrorIs(t, err, ErrEmptyNotes)
}

func TestAnalyzeIntake_DecodeFailureRejectsRequest(t *testing.T) {
	caseStore := newMemCaseStore()
	svc := NewCaseService(
		WithCaseStore(caseStore),
		WithGenerator(&intakeGenerator{err: errors.New("malformed model output")}),
	)

	_, err := svc.AnalyzeIntake(context.Background(), AnalyzeIntakeRequest{RawNotes: "notes"})
	assert.ErrorIs(t, err, ErrIntakeFailed)
	assert.Empty(t, caseStore.cases, "nothing is persisted on a failed extraction")
}

func TestGetCase_NotFound(t *testing.T) {
	svc := NewCaseService(WithCaseStore(newMemCaseStore()))

	_, err := svc.GetCase(context.Background(), GetCaseRequest{ID: uuid.New()})
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestUpdateCase_PersistsEdits(t *testing.T) {
	cs := &models.Case{Status: models.CaseStatusIntake}
	caseStore := newMemCaseStore(cs)
	svc := NewCaseService(WithCaseStore(caseStore))

	cs.Status = models.CaseStatusVerified
	cs.MedicalNeeds = models.StringList{"asthma"}
	_, err := svc.UpdateCase(context.Background(), UpdateCaseRequest{Case: cs})
	require.NoError(t, err)

	got, err := caseStore.GetByID(context.Background(), cs.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CaseStatusVerified, got.Status)
	assert.Equal(t, models.StringList{"asthma"}, got.MedicalNeeds)
}
