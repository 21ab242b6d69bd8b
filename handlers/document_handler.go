package handlers

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"casebrief-backend/storage"

	"github.com/gin-gonic/gin"
)

// DocumentHandler serves corpus source documents so report citations can be
// opened against their originals.
type DocumentHandler struct {
	storage storage.Storage
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(store storage.Storage) *DocumentHandler {
	return &DocumentHandler{storage: store}
}

// GetDocument handles GET /api/documents/*path. Paths resolving outside the
// corpus root are rejected before touching the backend.
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	relPath := strings.TrimPrefix(c.Param("path"), "/")

	reader, err := h.storage.Open(c.Request.Context(), relPath)
	if err != nil {
		if errors.Is(err, storage.ErrPathEscapes) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_PATH",
					"message": "Invalid document path",
				},
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Document not found",
			},
		})
		return
	}
	defer reader.Close()

	c.Header("Content-Type", storage.ContentType(relPath))
	c.Header("Content-Disposition", `inline; filename="`+path.Base(relPath)+`"`)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, reader)
}
