package handlers

import (
	"errors"
	"net/http"

	"casebrief-backend/models"
	"casebrief-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CaseHandler handles HTTP requests for cases
type CaseHandler struct {
	caseService *service.CaseService
}

// NewCaseHandler creates a new case handler
func NewCaseHandler(caseService *service.CaseService) *CaseHandler {
	return &CaseHandler{caseService: caseService}
}

// CreateCaseRequest represents the request body for creating a case
type CreateCaseRequest struct {
	RawNotes string `json:"raw_notes" binding:"required"`
}

// CreateCase handles POST /api/cases. The raw intake notes are analyzed into
// a structured case record before it is stored.
func (h *CaseHandler) CreateCase(c *gin.Context) {
	var req CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.caseService.AnalyzeIntake(c.Request.Context(), service.AnalyzeIntakeRequest{
		RawNotes: req.RawNotes,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyNotes) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMPTY_NOTES",
					"message": "Intake notes must not be empty",
				},
			})
			return
		}
		if errors.Is(err, service.ErrIntakeFailed) {
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "GENERATION_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Case,
	})
}

// GetCase handles GET /api/cases/:id
func (h *CaseHandler) GetCase(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid case ID format",
			},
		})
		return
	}

	result, err := h.caseService.GetCase(c.Request.Context(), service.GetCaseRequest{ID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Case not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Case,
	})
}

// UpdateCaseRequest represents the request body for updating a case
type UpdateCaseRequest struct {
	Status                 *string   `json:"status"`
	ApplicantName          *string   `json:"applicant_name"`
	Jurisdiction           *string   `json:"jurisdiction"`
	MedicalNeeds           *[]string `json:"medical_needs"`
	FamilyMembers          *[]string `json:"family_members"`
	DocumentationGaps      *[]string `json:"documentation_gaps"`
	SocialSupportNeeds     *[]string `json:"social_support_needs"`
	HasMinorChildren       *bool     `json:"has_minor_children"`
	EducationNeeds         *string   `json:"education_needs"`
	HousingSituation       *string   `json:"housing_situation"`
	DetentionHistory       *string   `json:"detention_history"`
	EmploymentStatus       *string   `json:"employment_status"`
	SeeksWorkAuthorization *bool     `json:"seeks_work_authorization"`
	MovementRestricted     *bool     `json:"movement_restricted"`
	Stateless              *bool     `json:"stateless"`
}

// UpdateCase handles PUT /api/cases/:id. This is the caseworker verification
// step: extracted facts get corrected before a report is generated.
func (h *CaseHandler) UpdateCase(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid case ID format",
			},
		})
		return
	}

	var req UpdateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	getResult, err := h.caseService.GetCase(c.Request.Context(), service.GetCaseRequest{ID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Case not found",
			},
		})
		return
	}

	cs := getResult.Case
	applyCaseUpdates(cs, &req)

	result, err := h.caseService.UpdateCase(c.Request.Context(), service.UpdateCaseRequest{Case: cs})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Case,
	})
}

// ListCases handles GET /api/cases
func (h *CaseHandler) ListCases(c *gin.Context) {
	result, err := h.caseService.ListCases(c.Request.Context(), service.ListCasesRequest{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Cases,
	})
}

// applyCaseUpdates copies only the fields present in the request onto the
// case, so a partial update does not blank out verified facts.
func applyCaseUpdates(cs *models.Case, req *UpdateCaseRequest) {
	if req.Status != nil {
		cs.Status = models.CaseStatus(*req.Status)
	}
	if req.ApplicantName != nil {
		cs.ApplicantName = *req.ApplicantName
	}
	if req.Jurisdiction != nil {
		cs.Jurisdiction = *req.Jurisdiction
	}
	if req.MedicalNeeds != nil {
		cs.MedicalNeeds = *req.MedicalNeeds
	}
	if req.FamilyMembers != nil {
		cs.FamilyMembers = *req.FamilyMembers
	}
	if req.DocumentationGaps != nil {
		cs.DocumentationGaps = *req.DocumentationGaps
	}
	if req.SocialSupportNeeds != nil {
		cs.SocialSupportNeeds = *req.SocialSupportNeeds
	}
	if req.HasMinorChildren != nil {
		cs.HasMinorChildren = *req.HasMinorChildren
	}
	if req.EducationNeeds != nil {
		cs.EducationNeeds = *req.EducationNeeds
	}
	if req.HousingSituation != nil {
		cs.HousingSituation = *req.HousingSituation
	}
	if req.DetentionHistory != nil {
		cs.DetentionHistory = *req.DetentionHistory
	}
	if req.EmploymentStatus != nil {
		cs.EmploymentStatus = *req.EmploymentStatus
	}
	if req.SeeksWorkAuthorization != nil {
		cs.SeeksWorkAuthorization = *req.SeeksWorkAuthorization
	}
	if req.MovementRestricted != nil {
		cs.MovementRestricted = *req.MovementRestricted
	}
	if req.Stateless != nil {
		cs.Stateless = *req.Stateless
	}
}
