package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Confidence is the coarse self-reported reliability signal attached to a
// generated analysis. It is a flag, not a statistical guarantee.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Valid reports whether the value is one of the three allowed levels.
func (c Confidence) Valid() bool {
	return c == ConfidenceLow || c == ConfidenceMedium || c == ConfidenceHigh
}

// Citation is the single best supporting quote for a category analysis.
type Citation struct {
	Quote        string `json:"quote"`
	Source       string `json:"source"`
	OriginFile   string `json:"origin_file,omitempty"`
	PageEstimate int    `json:"page_estimate,omitempty"`
}

// CategoryAnalysis is the generated analysis for one applicable category.
// Created once per report generation and never mutated afterward.
type CategoryAnalysis struct {
	Category      RightsCategory `json:"category"`
	Summary       string         `json:"summary"`
	LegalBasis    string         `json:"legal_basis"`
	Citation      Citation       `json:"citation"`
	Complications []string       `json:"complications"`
	Risks         []string       `json:"risks"`
	Precedents    []string       `json:"precedents"`
	Confidence    Confidence     `json:"confidence"`
}

// CategoryAnalyses is a JSONB-backed list of analyses
type CategoryAnalyses []CategoryAnalysis

// Value implements driver.Valuer for JSONB
func (a CategoryAnalyses) Value() (driver.Value, error) {
	if a == nil {
		a = CategoryAnalyses{}
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB
func (a *CategoryAnalyses) Scan(value interface{}) error {
	if value == nil {
		*a = CategoryAnalyses{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*a = CategoryAnalyses{}
		return nil
	}

	if len(bytes) == 0 {
		*a = CategoryAnalyses{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// Report is one versioned report artifact. Immutable after creation;
// regeneration inserts a new report that supersedes visibility of the old one.
type Report struct {
	ID          uuid.UUID        `json:"id"`
	CaseID      uuid.UUID        `json:"case_id"`
	GeneratedAt time.Time        `json:"generated_at"`
	Analyses    CategoryAnalyses `json:"analyses"`
	Disclaimer  string           `json:"disclaimer"`
}
