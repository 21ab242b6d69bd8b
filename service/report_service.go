package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"casebrief-backend/index"
	"casebrief-backend/models"

	"github.com/google/uuid"
)

const (
	// DefaultTopK bounds evidence retrieved per category query.
	DefaultTopK = 8
	// DefaultMinSimilarity is the similarity floor below which a chunk is
	// considered noise for report purposes.
	DefaultMinSimilarity = 0.35
	// DefaultMaxEvidence bounds the assembled evidence block per category.
	DefaultMaxEvidence = 8
	// DefaultMaxPrecedents caps the external precedent lookup per category.
	DefaultMaxPrecedents = 5
	// DefaultReportTimeout bounds one whole report generation run.
	DefaultReportTimeout = 5 * time.Minute
)

// ReportDisclaimer is attached verbatim to every generated report.
const ReportDisclaimer = "This report was generated automatically from case notes and indexed source material. " +
	"It is a research aid for qualified caseworkers, not legal advice, and every citation " +
	"must be verified against the original source before use."

var (
	ErrReportNotFound      = errors.New("report not found")
	ErrJobNotFound         = errors.New("report job not found")
	ErrNoCategories        = errors.New("no categories could be attempted")
	ErrReportStoreNotSet   = errors.New("report store not set")
	ErrReportServiceNotSet = errors.New("report service dependency not set")
	ErrCategoryGeneration  = errors.New("category generation failed")
)

// ReportStore is the report persistence the orchestrator depends on.
type ReportStore interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	GetLatestByCaseID(ctx context.Context, caseID uuid.UUID) (*models.Report, error)
}

// JobStore tracks report generation jobs and their per-category progress.
type JobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ReportJob, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ReportJobStatus) error
	UpdateSteps(ctx context.Context, id uuid.UUID, steps models.CategorySteps) error
	Complete(ctx context.Context, id, reportID uuid.UUID) error
	Fail(ctx context.Context, id uuid.UUID, errorMessage string) error
}

// QueryEmbedder turns a query string into a vector comparable against the
// document index.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float64, error)
}

// RecordSource exposes the initialized embedding index.
type RecordSource interface {
	Records() []models.EmbeddingRecord
}

// PrecedentFinder looks up analogous cases independently of the local index.
type PrecedentFinder interface {
	FindPrecedents(ctx context.Context, categoryTitle, jurisdiction, caseSummary string, max int) ([]string, error)
}

// ReportService synthesizes multi-category rights reports for cases.
type ReportService struct {
	caseStore   CaseStore
	reportStore ReportStore
	jobStore    JobStore
	records     RecordSource
	embedder    QueryEmbedder
	generator   Generator
	precedents  PrecedentFinder

	topK          int
	minSimilarity float64
	maxEvidence   int
	maxPrecedents int
	timeout       time.Duration
}

// ReportServiceOption is a functional option for ReportService
type ReportServiceOption func(*ReportService)

// WithReportCaseStore sets the case store
func WithReportCaseStore(store CaseStore) ReportServiceOption {
	return func(s *ReportService) {
		s.caseStore = store
	}
}

// WithReportStore sets the report store
func WithReportStore(store ReportStore) ReportServiceOption {
	return func(s *ReportService) {
		s.reportStore = store
	}
}

// WithJobStore sets the job store
func WithJobStore(store JobStore) ReportServiceOption {
	return func(s *ReportService) {
		s.jobStore = store
	}
}

// WithRecordSource sets the embedding index
func WithRecordSource(records RecordSource) ReportServiceOption {
	return func(s *ReportService) {
		s.records = records
	}
}

// WithQueryEmbedder sets the query embedding capability
func WithQueryEmbedder(e QueryEmbedder) ReportServiceOption {
	return func(s *ReportService) {
		s.embedder = e
	}
}

// WithReportGenerator sets the generation capability
func WithReportGenerator(g Generator) ReportServiceOption {
	return func(s *ReportService) {
		s.generator = g
	}
}

// WithPrecedentFinder sets the precedent lookup capability
func WithPrecedentFinder(p PrecedentFinder) ReportServiceOption {
	return func(s *ReportService) {
		s.precedents = p
	}
}

// WithReportTimeout bounds one whole report generation run
func WithReportTimeout(d time.Duration) ReportServiceOption {
	return func(s *ReportService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRetrievalParams overrides the retrieval tuning knobs
func WithRetrievalParams(topK int, minSimilarity float64, maxEvidence int) ReportServiceOption {
	return func(s *ReportService) {
		s.topK = topK
		s.minSimilarity = minSimilarity
		s.maxEvidence = maxEvidence
	}
}

// NewReportService creates a new report service
func NewReportService(opts ...ReportServiceOption) *ReportService {
	s := &ReportService{
		topK:          DefaultTopK,
		minSimilarity: DefaultMinSimilarity,
		maxEvidence:   DefaultMaxEvidence,
		maxPrecedents: DefaultMaxPrecedents,
		timeout:       DefaultReportTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartReportJobRequest represents a request to start report generation
type StartReportJobRequest struct {
	CaseID uuid.UUID
}

// StartReportJobResult represents the created job
type StartReportJobResult struct {
	Job *models.ReportJob
}

// StartReportJob validates the case, determines its applicable categories and
// records a pending job. The caller runs ProcessReport afterwards; callers
// must not start two simultaneous generations for the same case.
func (s *ReportService) StartReportJob(ctx context.Context, req StartReportJobRequest) (*StartReportJobResult, error) {
	if s.caseStore == nil || s.jobStore == nil {
		return nil, ErrReportServiceNotSet
	}

	cs, err := s.caseStore.GetByID(ctx, req.CaseID)
	if err != nil {
		return nil, ErrCaseNotFound
	}

	categories := models.ApplicableCategories(cs)
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}

	steps := make(models.CategorySteps, 0, len(categories))
	for _, cat := range categories {
		steps = append(steps, models.CategoryStep{
			Category: cat,
			Status:   models.StepPending,
		})
	}

	job := &models.ReportJob{
		CaseID: cs.ID,
		Status: models.JobStatusPending,
		Steps:  steps,
	}
	if err := s.jobStore.Create(ctx, job); err != nil {
		return nil, err
	}

	return &StartReportJobResult{Job: job}, nil
}

// GetJobRequest represents a request to get a report job
type GetJobRequest struct {
	ID uuid.UUID
}

// GetJobResult represents the result of getting a report job
type GetJobResult struct {
	Job *models.ReportJob
}

// GetJob retrieves a report job by ID
func (s *ReportService) GetJob(ctx context.Context, req GetJobRequest) (*GetJobResult, error) {
	if s.jobStore == nil {
		return nil, ErrReportServiceNotSet
	}

	job, err := s.jobStore.GetByID(ctx, req.ID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	return &GetJobResult{Job: job}, nil
}

// GetLatestReportRequest represents a request for a case's current report
type GetLatestReportRequest struct {
	CaseID uuid.UUID
}

// GetLatestReportResult represents the result of getting a report
type GetLatestReportResult struct {
	Report *models.Report
}

// GetLatestReport retrieves the newest report for a case
func (s *ReportService) GetLatestReport(ctx context.Context, req GetLatestReportRequest) (*GetLatestReportResult, error) {
	if s.reportStore == nil {
		return nil, ErrReportStoreNotSet
	}

	report, err := s.reportStore.GetLatestByCaseID(ctx, req.CaseID)
	if err != nil {
		return nil, ErrReportNotFound
	}

	return &GetLatestReportResult{Report: report}, nil
}

// ProcessReport runs the full generation pipeline for a previously created
// job. Intended to run in a background goroutine; all outcomes, including
// failures, are recorded on the job.
func (s *ReportService) ProcessReport(ctx context.Context, jobID uuid.UUID) {
	job, err := s.jobStore.GetByID(ctx, jobID)
	if err != nil {
		log.Printf("Warning: report job %s not found: %v", jobID, err)
		return
	}

	if err := s.jobStore.UpdateStatus(ctx, job.ID, models.JobStatusInProgress); err != nil {
		log.Printf("Warning: failed to mark job %s in progress: %v", job.ID, err)
	}

	var mu sync.Mutex
	steps := job.Steps
	progress := func(cat models.RightsCategory, status, errMsg string) {
		mu.Lock()
		for i := range steps {
			if steps[i].Category == cat {
				steps[i].Status = status
				steps[i].Error = errMsg
			}
		}
		snapshot := make(models.CategorySteps, len(steps))
		copy(snapshot, steps)
		mu.Unlock()

		if err := s.jobStore.UpdateSteps(ctx, job.ID, snapshot); err != nil {
			log.Printf("Warning: failed to update steps for job %s: %v", job.ID, err)
		}
	}

	report, err := s.generateReport(ctx, job.CaseID, progress)
	if err != nil {
		if failErr := s.jobStore.Fail(ctx, job.ID, err.Error()); failErr != nil {
			log.Printf("Warning: failed to mark job %s failed: %v", job.ID, failErr)
		}
		return
	}

	if err := s.jobStore.Complete(ctx, job.ID, report.ID); err != nil {
		log.Printf("Warning: failed to mark job %s completed: %v", job.ID, err)
	}
}

// GenerateForCase runs report generation synchronously, without job tracking.
func (s *ReportService) GenerateForCase(ctx context.Context, caseID uuid.UUID) (*models.Report, error) {
	return s.generateReport(ctx, caseID, func(models.RightsCategory, string, string) {})
}

// generateReport is the orchestrator core: fan out one pipeline per
// applicable category, fan in whatever succeeded, persist, finalize. It fails
// only when the case cannot be loaded, no category applies, or the finished
// report cannot be persisted; individual category failures are absorbed.
func (s *ReportService) generateReport(ctx context.Context, caseID uuid.UUID, progress func(models.RightsCategory, string, string)) (*models.Report, error) {
	if s.caseStore == nil || s.reportStore == nil || s.embedder == nil || s.generator == nil || s.records == nil {
		return nil, ErrReportServiceNotSet
	}

	cs, err := s.caseStore.GetByID(ctx, caseID)
	if err != nil {
		return nil, ErrCaseNotFound
	}

	categories := models.ApplicableCategories(cs)
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Indexed slots keep fan-in ordering deterministic regardless of which
	// category finishes first.
	analyses := make([]*models.CategoryAnalysis, len(categories))
	var wg sync.WaitGroup
	for i, cat := range categories {
		wg.Add(1)
		go func(i int, cat models.RightsCategory) {
			defer wg.Done()
			analysis, err := s.analyzeCategory(ctx, cs, cat, progress)
			if err != nil {
				log.Printf("Warning: category %s dropped for case %s: %v", cat, cs.ID, err)
				progress(cat, models.StepFailed, err.Error())
				return
			}
			analyses[i] = analysis
			progress(cat, models.StepCompleted, "")
		}(i, cat)
	}
	wg.Wait()

	report := &models.Report{
		CaseID:     cs.ID,
		Analyses:   make(models.CategoryAnalyses, 0, len(categories)),
		Disclaimer: ReportDisclaimer,
	}
	for _, a := range analyses {
		if a != nil {
			report.Analyses = append(report.Analyses, *a)
		}
	}

	// Persist even a zero-category report; absence of a category is
	// information the caseworker should see, not a reason to abort.
	persistCtx := context.WithoutCancel(ctx)
	if err := s.reportStore.Create(persistCtx, report); err != nil {
		return nil, fmt.Errorf("failed to persist report: %w", err)
	}

	if err := s.caseStore.MarkFinalized(persistCtx, cs.ID); err != nil {
		log.Printf("Warning: failed to finalize case %s: %v", cs.ID, err)
	}

	return report, nil
}

// generatedAnalysis is the strict shape expected from category generation.
type generatedAnalysis struct {
	Summary    string `json:"summary"`
	LegalBasis string `json:"legal_basis"`
	Citation   struct {
		Quote  string `json:"quote"`
		Source string `json:"source"`
	} `json:"citation"`
	Complications []string `json:"complications"`
	Risks         []string `json:"risks"`
	Confidence    string   `json:"confidence"`
}

const analysisSystemPrompt = "You are a legal analyst producing rights assessments for caseworkers supporting displaced persons. " +
	"You ground every claim in the provided source material and never invent citations. Return valid JSON only."

// analyzeCategory runs one category's pipeline: retrieve, assemble, then
// generate the structured analysis and the precedent lookup in parallel.
func (s *ReportService) analyzeCategory(ctx context.Context, cs *models.Case, cat models.RightsCategory, progress func(models.RightsCategory, string, string)) (*models.CategoryAnalysis, error) {
	progress(cat, models.StepRetrieving, "")

	evidence, results := s.retrieveEvidence(ctx, cs, cat)

	progress(cat, models.StepGenerating, "")

	summary := caseSummary(cs)

	var (
		precWG     sync.WaitGroup
		precedents []string
	)
	if s.precedents != nil {
		precWG.Add(1)
		go func() {
			defer precWG.Done()
			found, err := s.precedents.FindPrecedents(ctx, cat.Title(), cs.Jurisdiction, summary, s.maxPrecedents)
			if err != nil {
				log.Printf("Warning: precedent lookup failed for category %s: %v", cat, err)
				return
			}
			precedents = found
		}()
	}

	prompt := fmt.Sprintf(`Analyze the legal area "%s" for the case below, grounded ONLY in the source material.

CASE FACTS:
%s

SOURCE MATERIAL:
%s

Return a JSON object with exactly these fields:
{
  "summary": "2-4 sentence assessment of this right for this case",
  "legal_basis": "the instruments and provisions that apply, from the source material",
  "citation": {"quote": "the single most supportive verbatim quote from the source material", "source": "the SOURCE header file it came from"},
  "complications": ["factors in this case that complicate the right"],
  "risks": ["concrete risks if the right is not secured"],
  "confidence": "low, medium, or high, based on how well the source material covers this case"
}

If the source material is the no-material marker, say so in the summary, leave citation fields empty, and set confidence to "low". Return ONLY valid JSON, no markdown, no explanations.`,
		cat.Title(), summary, evidence)

	var generated generatedAnalysis
	genErr := s.generator.GenerateJSON(ctx, analysisSystemPrompt, prompt, &generated)

	precWG.Wait()

	if genErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrCategoryGeneration, genErr)
	}
	if strings.TrimSpace(generated.Summary) == "" {
		return nil, fmt.Errorf("%w: empty summary", ErrCategoryGeneration)
	}
	confidence := models.Confidence(strings.ToLower(strings.TrimSpace(generated.Confidence)))
	if !confidence.Valid() {
		return nil, fmt.Errorf("%w: invalid confidence %q", ErrCategoryGeneration, generated.Confidence)
	}

	citation := models.Citation{
		Quote:  generated.Citation.Quote,
		Source: generated.Citation.Source,
	}
	for _, r := range results {
		if r.OriginFile == generated.Citation.Source {
			citation.OriginFile = r.OriginFile
			citation.PageEstimate = r.PageEstimate
			break
		}
	}

	if precedents == nil {
		precedents = []string{}
	}

	return &models.CategoryAnalysis{
		Category:      cat,
		Summary:       generated.Summary,
		LegalBasis:    generated.LegalBasis,
		Citation:      citation,
		Complications: generated.Complications,
		Risks:         generated.Risks,
		Precedents:    precedents,
		Confidence:    confidence,
	}, nil
}

// retrieveEvidence embeds the category query and ranks the index, scoped to
// the case's jurisdiction tag first, falling back to the whole index. Any
// retrieval failure degrades to the no-evidence marker; generation still runs
// and reports the gap.
func (s *ReportService) retrieveEvidence(ctx context.Context, cs *models.Case, cat models.RightsCategory) (string, []models.RetrievalResult) {
	query := buildCategoryQuery(cs, cat)

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		log.Printf("Warning: query embedding failed for category %s: %v", cat, err)
		return index.NoEvidenceMarker, nil
	}

	records := s.records.Records()

	var results []models.RetrievalResult
	if cs.Jurisdiction != "" {
		results, err = index.RankByCategory(vector, records, cs.Jurisdiction, s.topK, s.minSimilarity)
		if err != nil {
			log.Printf("Warning: scoped ranking failed for category %s: %v", cat, err)
		}
	}
	if len(results) == 0 {
		results, err = index.Rank(vector, records, s.topK, s.minSimilarity)
		if err != nil {
			log.Printf("Warning: ranking failed for category %s: %v", cat, err)
			return index.NoEvidenceMarker, nil
		}
	}

	return index.BuildEvidenceBlock(results, s.maxEvidence), results
}

// buildCategoryQuery composes the retrieval query from the category heading
// and the case facts that made the category applicable.
func buildCategoryQuery(cs *models.Case, cat models.RightsCategory) string {
	parts := []string{cat.Title()}
	if cs.Jurisdiction != "" {
		parts = append(parts, "in "+cs.Jurisdiction)
	}

	switch cat {
	case models.CategoryAsylum:
		parts = append(parts, "asylum procedure international protection refugee status determination")
	case models.CategoryDocumentation:
		parts = append(parts, "identity documents missing:", strings.Join(cs.DocumentationGaps, ", "))
	case models.CategoryEducation:
		if cs.EducationNeeds != "" {
			parts = append(parts, cs.EducationNeeds)
		}
		if cs.HasMinorChildren {
			parts = append(parts, "school access for minor children of asylum seekers")
		}
	case models.CategoryFamilyLife:
		parts = append(parts, "family reunification for:", strings.Join(cs.FamilyMembers, ", "))
	case models.CategoryFreedomMovement:
		parts = append(parts, "movement restrictions residence obligations for asylum seekers")
	case models.CategoryHealth:
		parts = append(parts, "access to medical care for:", strings.Join(cs.MedicalNeeds, ", "))
	case models.CategoryHousing:
		parts = append(parts, "accommodation reception conditions:", cs.HousingSituation)
	case models.CategoryLibertySecurity:
		parts = append(parts, "immigration detention:", cs.DetentionHistory)
	case models.CategoryNationality:
		parts = append(parts, "statelessness determination and protection")
	case models.CategorySocialProtection:
		parts = append(parts, "social assistance benefits for:", strings.Join(cs.SocialSupportNeeds, ", "))
	case models.CategoryWork:
		if cs.EmploymentStatus != "" {
			parts = append(parts, "employment status:", cs.EmploymentStatus)
		}
		if cs.SeeksWorkAuthorization {
			parts = append(parts, "work permit authorization for asylum seekers")
		}
	}

	return strings.Join(parts, " ")
}

// caseSummary renders the extracted case facts as a compact prompt fragment.
func caseSummary(cs *models.Case) string {
	var b strings.Builder
	write := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}

	write("Applicant", cs.ApplicantName)
	write("Jurisdiction", cs.Jurisdiction)
	write("Medical needs", strings.Join(cs.MedicalNeeds, ", "))
	write("Family members", strings.Join(cs.FamilyMembers, ", "))
	write("Documentation gaps", strings.Join(cs.DocumentationGaps, ", "))
	write("Social support needs", strings.Join(cs.SocialSupportNeeds, ", "))
	if cs.HasMinorChildren {
		write("Minor children", "yes")
	}
	write("Education needs", cs.EducationNeeds)
	write("Housing situation", cs.HousingSituation)
	write("Detention history", cs.DetentionHistory)
	write("Employment status", cs.EmploymentStatus)
	if cs.SeeksWorkAuthorization {
		write("Seeks work authorization", "yes")
	}
	if cs.MovementRestricted {
		write("Movement restricted", "yes")
	}
	if cs.Stateless {
		write("Stateless", "yes")
	}

	if b.Len() == 0 {
		return "- No structured facts extracted; rely on the category heading."
	}
	return b.String()
}
