package handlers

import (
	"context"
	"errors"
	"net/http"

	"casebrief-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReportHandler handles HTTP requests for report generation
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// GenerateReport handles POST /api/cases/:id/report. Generation runs in the
// background; the response carries the job to poll. The job context is
// detached from the request so a closed connection does not abort the run.
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	idStr := c.Param("id")
	caseID, err := uuid.Parse(idStr)
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

	result, err := h.reportService.StartReportJob(c.Request.Context(), service.StartReportJobRequest{
		CaseID: caseID,
	})
	if err != nil {
		if errors.Is(err, service.ErrCaseNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Case not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "JOB_CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	go h.reportService.ProcessReport(context.Background(), result.Job.ID)

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data":    result.Job,
	})
}

// GetJob handles GET /api/jobs/:id
func (h *ReportHandler) GetJob(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid job ID format",
			},
		})
		return
	}

	result, err := h.reportService.GetJob(c.Request.Context(), service.GetJobRequest{ID: id})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Report job not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Job,
	})
}

// GetReport handles GET /api/cases/:id/report, returning the newest report
// for the case.
func (h *ReportHandler) GetReport(c *gin.Context) {
	idStr := c.Param("id")
	caseID, err := uuid.Parse(idStr)
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

	result, err := h.reportService.GetLatestReport(c.Request.Context(), service.GetLatestReportRequest{
		CaseID: caseID,
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "No report generated for this case",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Report,
	})
}
