package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CaseStatus represents the status of a case
type CaseStatus string

const (
	CaseStatusIntake    CaseStatus = "intake"
	CaseStatusVerified  CaseStatus = "verified"
	CaseStatusFinalized CaseStatus = "finalized"
)

// StringList is a JSONB-backed string slice
type StringList []string

// Value implements driver.Valuer for JSONB
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*l = StringList{}
		return nil
	}

	if len(bytes) == 0 {
		*l = StringList{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Case represents one caseworker case: the raw intake notes plus the
// structured facts extracted from them. The fact fields drive the category
// applicability predicates at report time.
type Case struct {
	ID            uuid.UUID  `json:"id"`
	Status        CaseStatus `json:"status"`
	ApplicantName string     `json:"applicant_name"`
	Jurisdiction  string     `json:"jurisdiction"`
	RawNotes      string     `json:"raw_notes"`

	// Extracted facts (editable on the verification form)
	MedicalNeeds           StringList `json:"medical_needs"`
	FamilyMembers          StringList `json:"family_members"`
	DocumentationGaps      StringList `json:"documentation_gaps"`
	SocialSupportNeeds     StringList `json:"social_support_needs"`
	HasMinorChildren       bool       `json:"has_minor_children"`
	EducationNeeds         string     `json:"education_needs"`
	HousingSituation       string     `json:"housing_situation"`
	DetentionHistory       string     `json:"detention_history"`
	EmploymentStatus       string     `json:"employment_status"`
	SeeksWorkAuthorization bool       `json:"seeks_work_authorization"`
	MovementRestricted     bool       `json:"movement_restricted"`
	Stateless              bool       `json:"stateless"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
}
