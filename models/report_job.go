package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReportJobStatus represents the status of a report generation job
type ReportJobStatus string

const (
	JobStatusPending    ReportJobStatus = "pending"
	JobStatusInProgress ReportJobStatus = "in_progress"
	JobStatusCompleted  ReportJobStatus = "completed"
	JobStatusFailed     ReportJobStatus = "failed"
)

// Per-category step states. Steps start pending, move through retrieving and
// generating, and end completed or failed; a failed step drops its category
// from the report without failing the job.
const (
	StepPending    = "pending"
	StepRetrieving = "retrieving"
	StepGenerating = "generating"
	StepCompleted  = "completed"
	StepFailed     = "failed"
)

// CategoryStep tracks progress of one category's pipeline within a job.
type CategoryStep struct {
	Category RightsCategory `json:"category"`
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
}

// CategorySteps represents the per-category progress of a job
type CategorySteps []CategoryStep

// Value implements driver.Valuer for JSONB
func (s CategorySteps) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB
func (s *CategorySteps) Scan(value interface{}) error {
	if value == nil {
		*s = make(CategorySteps, 0)
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = make(CategorySteps, 0)
		return nil
	}

	if len(bytes) == 0 {
		*s = make(CategorySteps, 0)
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// ReportJob represents one report generation run for a case.
type ReportJob struct {
	ID           uuid.UUID       `json:"id"`
	CaseID       uuid.UUID       `json:"case_id"`
	Status       ReportJobStatus `json:"status"`
	Steps        CategorySteps   `json:"steps"`
	ReportID     *uuid.UUID      `json:"report_id,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}
