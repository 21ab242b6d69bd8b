package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"casebrief-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory stores ---

type memCaseStore struct {
	cases map[uuid.UUID]*models.Case
}

func newMemCaseStore(cases ...*models.Case) *memCaseStore {
	s := &memCaseStore{cases: map[uuid.UUID]*models.Case{}}
	for _, cs := range cases {
		if cs.ID == uuid.Nil {
			cs.ID = uuid.New()
		}
		s.cases[cs.ID] = cs
	}
	return s
}

func (s *memCaseStore) Create(ctx context.Context, cs *models.Case) error {
	cs.ID = uuid.New()
	cs.CreatedAt = time.Now()
	s.cases[cs.ID] = cs
	return nil
}

func (s *memCaseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	cs, ok := s.cases[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	return cs, nil
}

func (s *memCaseStore) Update(ctx context.Context, cs *models.Case) error {
	s.cases[cs.ID] = cs
	return nil
}

func (s *memCaseStore) MarkFinalized(ctx context.Context, id uuid.UUID) error {
	cs, ok := s.cases[id]
	if !ok {
		return errors.New("no rows in result set")
	}
	now := time.Now()
	cs.Status = models.CaseStatusFinalized
	cs.FinalizedAt = &now
	return nil
}

func (s *memCaseStore) List(ctx context.Context, limit, offset int) ([]*models.Case, error) {
	var out []*models.Case
	for _, cs := range s.cases {
		out = append(out, cs)
	}
	return out, nil
}

type memReportStore struct {
	reports []*models.Report
}

func (s *memReportStore) Create(ctx context.Context, report *models.Report) error {
	report.ID = uuid.New()
	report.GeneratedAt = time.Now()
	s.reports = append(s.reports, report)
	return nil
}

func (s *memReportStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	for _, r := range s.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("no rows in result set")
}

func (s *memReportStore) GetLatestByCaseID(ctx context.Context, caseID uuid.UUID) (*models.Report, error) {
	for i := len(s.reports) - 1; i >= 0; i-- {
		if s.reports[i].CaseID == caseID {
			return s.reports[i], nil
		}
	}
	return nil, errors.New("no rows in result set")
}

// memJobStore is mutex-guarded because per-category progress updates arrive
// from concurrent pipelines.
type memJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*models.ReportJob
}

func newMemJobStore() *memJobStore {
	return &memJobStore{jobs: map[uuid.UUID]*models.ReportJob{}}
}

func (s *memJobStore) Create(ctx context.Context, job *models.ReportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.ID = uuid.New()
	job.CreatedAt = time.Now()
	s.jobs[job.ID] = job
	return nil
}

func (s *memJobStore) GetByID(ctx context.Context, id uuid.UUID) (*models.ReportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.New("no rows in result set")
	}
	copied := *job
	copied.Steps = append(models.CategorySteps(nil), job.Steps...)
	return &copied, nil
}

func (s *memJobStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReportJobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id].Status = status
	return nil
}

func (s *memJobStore) UpdateSteps(ctx context.Context, id uuid.UUID, steps models.CategorySteps) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id].Steps = steps
	return nil
}

func (s *memJobStore) Complete(ctx context.Context, id, reportID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[id]
	job.Status = models.JobStatusCompleted
	job.ReportID = &reportID
	return nil
}

func (s *memJobStore) Fail(ctx context.Context, id uuid.UUID, errorMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[id]
	job.Status = models.JobStatusFailed
	job.ErrorMessage = &errorMessage
	return nil
}

// --- capability fakes ---

type staticRecords struct {
	records []models.EmbeddingRecord
}

func (s *staticRecords) Records() []models.EmbeddingRecord {
	return s.records
}

type fixedEmbedder struct {
	vector []float64
	err    error
}

func (e *fixedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vector, nil
}

// scriptedGenerator returns a canned analysis, failing for prompts that
// mention one of the failTitles.
type scriptedGenerator struct {
	failTitles []string
	confidence string
}

func (g *scriptedGenerator) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, out interface{}) error {
	for _, title := range g.failTitles {
		if strings.Contains(userPrompt, title) {
			return errors.New("simulated generation failure")
		}
	}
	confidence := g.confidence
	if confidence == "" {
		confidence = "medium"
	}
	payload := fmt.Sprintf(`{
		"summary": "Assessment of the right for this case.",
		"legal_basis": "Art. 3 of the relevant instrument.",
		"citation": {"quote": "Everyone has the right.", "source": "asylum_act.pdf"},
		"complications": ["pending appeal"],
		"risks": ["loss of status"],
		"confidence": %q
	}`, confidence)
	return json.Unmarshal([]byte(payload), out)
}

type scriptedPrecedents struct {
	precedents []string
	err        error
}

func (p *scriptedPrecedents) FindPrecedents(ctx context.Context, categoryTitle, jurisdiction, caseSummary string, max int) ([]string, error) {
	if p.err != nil {
		return nil, p.err
	}
	if len(p.precedents) > max {
		return p.precedents[:max], nil
	}
	return p.precedents, nil
}

func testRecords() *staticRecords {
	return &staticRecords{records: []models.EmbeddingRecord{
		{ChunkID: "switzerland/asylum_act.pdf#0", OriginFile: "asylum_act.pdf", CategoryTag: "switzerland", PageEstimate: 2, Vector: []float64{1, 0}, Text: "Everyone has the right."},
		{ChunkID: "germany/handbook.txt#0", OriginFile: "handbook.txt", CategoryTag: "germany", PageEstimate: 1, Vector: []float64{0.9, 0.1}, Text: "Guidance."},
	}}
}

func newTestReportService(caseStore CaseStore, opts ...ReportServiceOption) (*ReportService, *memReportStore, *memJobStore) {
	reportStore := &memReportStore{}
	jobStore := newMemJobStore()
	base := []ReportServiceOption{
		WithReportCaseStore(caseStore),
		WithReportStore(reportStore),
		WithJobStore(jobStore),
		WithRecordSource(testRecords()),
		WithQueryEmbedder(&fixedEmbedder{vector: []float64{1, 0}}),
		WithReportGenerator(&scriptedGenerator{}),
		WithPrecedentFinder(&scriptedPrecedents{precedents: []string{"X v. State, ECtHR, 2019: relevant."}}),
	}
	svc := NewReportService(append(base, opts...)...)
	return svc, reportStore, jobStore
}

// --- tests ---

func TestGenerateForCase_BaselineOnly(t *testing.T) {
	cs := &models.Case{Jurisdiction: "switzerland"}
	caseStore := newMemCaseStore(cs)
	svc, reportStore, _ := newTestReportService(caseStore)

	report, err := svc.GenerateForCase(context.Background(), cs.ID)
	require.NoError(t, err)

	require.Len(t, report.Analyses, 1)
	analysis := report.Analyses[0]
	assert.Equal(t, models.CategoryAsylum, analysis.Category)
	assert.Equal(t, models.ConfidenceMedium, analysis.Confidence)
	assert.Equal(t, []string{"X v. State, ECtHR, 2019: relevant."}, analysis.Precedents)
	assert.NotEmpty(t, report.Disclaimer)

	// Citation provenance resolved against the retrieved evidence.
	assert.Equal(t, "asylum_act.pdf", analysis.Citation.OriginFile)
	assert.Equal(t, 2, analysis.Citation.PageEstimate)

	require.Len(t, reportStore.reports, 1)
	assert.Equal(t, models.CaseStatusFinalized, cs.Status)
	require.NotNil(t, cs.FinalizedAt)
}

func TestGenerateForCase_FactsSelectCategories(t *testing.T) {
	cs := &models.Case{
		Jurisdiction: "switzerland",
		MedicalNeeds: models.StringList{"diabetes treatment"},
	}
	caseStore := newMemCaseStore(cs)
	svc, _, _ := newTestReportService(caseStore)

	report, err := svc.GenerateForCase(context.Background(), cs.ID)
	require.NoError(t, err)

	got := map[models.RightsCategory]bool{}
	for _, a := range report.Analyses {
		got[a.Category] = true
	}
	assert.True(t, got[models.CategoryAsylum])
	assert.True(t, got[models.CategoryHealth])
	assert.False(t, got[models.CategoryEducation])
	assert.False(t, got[models.CategoryFamilyLife])
	assert.Len(t, report.Analyses, 2)
}

func TestGenerateForCase_FailedCategoryIsDroppedNotFatal(t *testing.T) {
	cs := &models.Case{
		Jurisdiction: "switzerland",
		MedicalNeeds: models.StringList{"diabetes treatment"},
	}
	caseStore := newMemCaseStore(cs)
	svc, reportStore, _ := newTestReportService(caseStore,
		WithReportGenerator(&scriptedGenerator{failTitles: []string{models.CategoryHealth.Title()}}),
	)

	report, err := svc.GenerateForCase(context.Background(), cs.ID)
	require.NoError(t, err, "one failed category must not fail the report")

	require.Len(t, report.Analyses, 1)
	assert.Equal(t, models.CategoryAsylum, report.Analyses[0].Category)
	assert.Len(t, reportStore.reports, 1)
}

func TestGenerateForCase_InvalidConfidenceDropsCategory(t *testing.T) {
	cs := &models.Case{Jurisdiction: "switzerland"}
	caseStore := newMemCaseStore(cs)
	svc, reportStore, _ := newTestReportService(caseStore,
		WithReportGenerator(&scriptedGenerator{confidence: "certainly"}),
	)

	report, err := svc.GenerateForCase(context.Background(), cs.ID)
	require.NoError(t, err, "a report with zero successful categories is still a report")

	assert.Empty(t, report.Analyses)
	assert.Len(t, reportStore.reports, 1, "the empty report is persisted")
	assert.Equal(t, models.CaseStatusFinalized, cs.Status)
}

func TestGenerateForCase_PrecedentFailureDegradesToEmptyList(t *testing.T) {
	cs := &models.Case{Jurisdiction: "switzerland"}
	caseStore := newMemCaseStore(cs)
	svc, _, _ := newTestReportService(caseStore,
		WithPrecedentFinder(&scriptedPrecedents{err: errors.New("lookup unavailable")}),
	)

	report, err := svc.GenerateForCase(context.Background(), cs.ID)
	require.NoError(t, err)

	require.Len(t, report.Analyses, 1)
	assert.NotNil(t, report.Analyses[0].Precedents)
	assert.Empty(t, report.Analyses[0].Precedents)
	assert.NotEmpty(t, report.Analyses[0].Summary, "the category itself still succeeds")
}

func TestGenerateForCase_EmbeddingFailureStillGenerates(t *testing.T) {
	cs := &models.Case{Jurisdiction: "switzerland"}
	caseStore := newMemCaseStore(cs)
	svc, _, _ := newTestReportService(caseStore,
		WithQueryEmbedder(&fixedEmbedder{err: errors.New("embedding unavailable")}),
	)

	report, err := svc.GenerateForCase(context.Background(), cs.ID)
	require.NoError(t, err)

	require.Len(t, report.Analyses, 1)
	// No evidence resolved, so the citation has no local provenance.
	assert.Empty(t, report.Analyses[0].Citation.OriginFile)
}

func TestGenerateForCase_CaseNotFound(t *testing.T) {
	caseStore := newMemCaseStore()
	svc, _, _ := newTestReportService(caseStore)

	_, err := svc.GenerateForCase(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestStartReportJob_StepsMirrorApplicableCategories(t *testing.T) {
	cs := &models.Case{
		Jurisdiction:     "switzerland",
		HasMinorChildren: true,
	}
	caseStore := newMemCaseStore(cs)
	svc, _, _ := newTestReportService(caseStore)

	result, err := svc.StartReportJob(context.Background(), StartReportJobRequest{CaseID: cs.ID})
	require.NoError(t, err)

	job := result.Job
	assert.Equal(t, models.JobStatusPending, job.Status)
	require.Len(t, job.Steps, 2)
	assert.Equal(t, models.CategoryAsylum, job.Steps[0].Category)
	assert.Equal(t, models.CategoryEducation, job.Steps[1].Category)
	for _, step := range job.Steps {
		assert.Equal(t, models.StepPending, step.Status)
	}
}

func TestStartReportJob_CaseNotFound(t *testing.T) {
	svc, _, _ := newTestReportService(newMemCaseStore())

	_, err := svc.StartReportJob(context.Background(), StartReportJobRequest{CaseID: uuid.New()})
	assert.ErrorIs(t, err, ErrCaseNotFound)
}

func TestProcessReport_CompletesJobAndLinksReport(t *testing.T) {
	cs := &models.Case{Jurisdiction: "switzerland"}
	caseStore := newMemCaseStore(cs)
	svc, reportStore, jobStore := newTestReportService(caseStore)

	started, err := svc.StartReportJob(context.Background(), StartReportJobRequest{CaseID: cs.ID})
	require.NoError(t, err)

	svc.ProcessReport(context.Background(), started.Job.ID)

	job, err := jobStore.GetByID(context.Background(), started.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	require.NotNil(t, job.ReportID)

	require.Len(t, reportStore.reports, 1)
	assert.Equal(t, *job.ReportID, reportStore.reports[0].ID)

	for _, step := range job.Steps {
		assert.Equal(t, models.StepCompleted, step.Status)
	}
}

func TestProcessReport_FailedCategoryRecordedOnStep(t *testing.T) {
	cs := &models.Case{
		Jurisdiction: "switzerland",
		MedicalNeeds: models.StringList{"asthma"},
	}
	caseStore := newMemCaseStore(cs)
	svc, _, jobStore := newTestReportService(caseStore,
		WithReportGenerator(&scriptedGenerator{failTitles: []string{models.CategoryHealth.Title()}}),
	)

	started, err := svc.StartReportJob(context.Background(), StartReportJobRequest{CaseID: cs.ID})
	require.NoError(t, err)

	svc.ProcessReport(context.Background(), started.Job.ID)

	job, err := jobStore.GetByID(context.Background(), started.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status, "partial failure still completes the job")

	byCategory := map[models.RightsCategory]models.CategoryStep{}
	for _, step := range job.Steps {
		byCategory[step.Category] = step
	}
	assert.Equal(t, models.StepCompleted, byCategory[models.CategoryAsylum].Status)
	assert.Equal(t, models.StepFailed, byCategory[models.CategoryHealth].Status)
	assert.NotEmpty(t, byCategory[models.CategoryHealth].Error)
}

func TestGetLatestReport_NewerSupersedesOlder(t *testing.T) {
	cs := &models.Case{Jurisdiction: "switzerland"}
	caseStore := newMemCaseStore(cs)
	svc, _, _ := newTestReportService(caseStore)

	first, err := svc.GenerateForCase(context.Background(), cs.ID)
	require.NoError(t, err)
	second, err := svc.GenerateForCase(context.Background(), cs.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	result, err := svc.GetLatestReport(context.Background(), GetLatestReportRequest{CaseID: cs.ID})
	require.NoError(t, err)
	assert.Equal(t, second.ID, result.Report.ID)
}
