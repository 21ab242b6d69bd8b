package handlers

import (
	"errors"
	"io"
	"net/http"

	"casebrief-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler handles HTTP requests for grounded chat
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ChatRequest represents the request body for a chat question
type ChatRequest struct {
	Query  string `json:"query" binding:"required"`
	CaseID string `json:"case_id"`
}

// Chat handles POST /api/chat, streaming the answer as server-sent events.
// Events are "token" fragments followed by one "done" event, or an "error"
// event on terminal failure. Closing the connection cancels generation.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
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

	serviceReq := service.ChatRequest{Query: req.Query}
	if req.CaseID != "" {
		caseID, err := uuid.Parse(req.CaseID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_CASE_ID",
					"message": "Invalid case ID format",
				},
			})
			return
		}
		serviceReq.CaseID = &caseID
	}

	events, err := h.chatService.Chat(c.Request.Context(), serviceReq)
	if err != nil {
		status := http.StatusInternalServerError
		code := "CHAT_FAILED"
		switch {
		case errors.Is(err, service.ErrEmptyQuery):
			status = http.StatusBadRequest
			code = "EMPTY_QUERY"
		case errors.Is(err, service.ErrCaseNotFound):
			status = http.StatusNotFound
			code = "NOT_FOUND"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		event, ok := <-events
		if !ok {
			return false
		}
		switch {
		case event.Err != nil:
			c.SSEvent("error", event.Err.Error())
			return false
		case event.Done:
			c.SSEvent("done", "")
			return false
		default:
			c.SSEvent("token", event.Token)
			return true
		}
	})
}
