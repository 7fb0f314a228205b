package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/repair-match-api/internal/metrics"
	"github.com/repair-match-api/internal/repository"
	"github.com/repair-match-api/internal/service"
)

// Assigner is the interface the assignment endpoints consume
type Assigner interface {
	AssignRequest(ctx context.Context, requestID string) (*service.AssignmentResult, error)
	AssignPendingForProvider(ctx context.Context, providerID string) (*service.BatchAssignmentResult, error)
	SetProviderAvailability(ctx context.Context, providerID string, available bool) (*service.BatchAssignmentResult, error)
}

// AssignmentHandler handles assignment API endpoints
type AssignmentHandler struct {
	assigner Assigner
	metrics  *metrics.Metrics
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(assigner Assigner, m *metrics.Metrics) *AssignmentHandler {
	return &AssignmentHandler{
		assigner: assigner,
		metrics:  m,
	}
}

// RegisterRoutes registers the assignment API routes
func (h *AssignmentHandler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.POST("/assignments", h.Assign)
		v1.POST("/providers/:id/availability", h.SetAvailability)
	}
}

// Assign triggers the assignment pipeline. The body carries either a
// requestId (single-request mode) or a userId (batch mode for a provider
// that just became available). Expected no-match outcomes return HTTP 200
// with success=false; only transport and store failures use 4xx/5xx.
func (h *AssignmentHandler) Assign(c *gin.Context) {
	var request struct {
		RequestID string `json:"requestId"`
		UserID    string `json:"userId"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if (request.RequestID == "") == (request.UserID == "") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "exactly one of requestId or userId is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	start := time.Now()

	if request.RequestID != "" {
		result, err := h.assigner.AssignRequest(ctx, request.RequestID)
		if err != nil {
			h.metrics.RecordAssignment("error", time.Since(start))
			h.writeError(c, err)
			return
		}

		h.metrics.RecordAssignment(string(result.Code), time.Since(start))

		if result.Assigned() {
			c.JSON(http.StatusOK, gin.H{
				"success":   true,
				"message":   result.Message,
				"provider":  result.Provider,
				"requestId": result.RequestID,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   false,
			"message":   result.Message,
			"requestId": result.RequestID,
		})
		return
	}

	result, err := h.assigner.AssignPendingForProvider(ctx, request.UserID)
	if err != nil {
		h.metrics.RecordAssignment("error", time.Since(start))
		h.writeError(c, err)
		return
	}

	h.metrics.RecordAssignment("batch", time.Since(start))

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "batch assignment completed",
		"assignedCount": result.AssignedCount,
	})
}

// SetAvailability flips a provider's availability flag. Turning a provider
// available triggers the batch pipeline and returns its result.
func (h *AssignmentHandler) SetAvailability(c *gin.Context) {
	providerID := c.Param("id")
	if providerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "provider ID is required"})
		return
	}

	var request struct {
		Available *bool `json:"available" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	result, err := h.assigner.SetProviderAvailability(ctx, providerID, *request.Available)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response := gin.H{
		"success":   true,
		"available": *request.Available,
	}
	if result != nil {
		response["assignedCount"] = result.AssignedCount
		response["evaluated"] = result.Evaluated
	}

	c.JSON(http.StatusOK, response)
}

func (h *AssignmentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrRequestNotFound), errors.Is(err, repository.ErrProviderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}
}
