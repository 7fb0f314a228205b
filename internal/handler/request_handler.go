package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/repair-match-api/internal/model"
	"github.com/repair-match-api/internal/repository"
	"github.com/repair-match-api/internal/service"
)

// RequestManager is the interface the request lifecycle endpoints consume
type RequestManager interface {
	CreateRequest(ctx context.Context, in *service.CreateRequestInput) (*model.ServiceRequest, error)
	GetRequest(ctx context.Context, requestID string) (*model.ServiceRequest, error)
	GetRequestHistory(ctx context.Context, requestID string) ([]model.StatusHistory, error)
	UpdateStatus(ctx context.Context, requestID string, status model.RequestStatus, changedBy, notes string) (*model.ServiceRequest, error)
	CancelRequest(ctx context.Context, requestID, cancelledBy, reason string) (*model.ServiceRequest, error)
	ListRequesterRequests(ctx context.Context, requesterID string, page, limit int, status model.RequestStatus) ([]*model.ServiceRequest, int, error)
	ListProviderRequests(ctx context.Context, providerID string, page, limit int, status model.RequestStatus) ([]*model.ServiceRequest, int, error)
	ListNotifications(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error)
}

// RequestHandler handles request lifecycle API endpoints
type RequestHandler struct {
	requests RequestManager
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(requests RequestManager) *RequestHandler {
	return &RequestHandler{
		requests: requests,
	}
}

// RegisterRoutes registers the request API routes
func (h *RequestHandler) RegisterRoutes(router *gin.Engine) {
	requests := router.Group("/api/v1/requests")
	{
		requests.POST("", h.CreateRequest)
		requests.GET("/:id", h.GetRequest)
		requests.GET("/:id/history", h.GetRequestHistory)
		requests.PUT("/:id/status", h.UpdateStatus)
		requests.POST("/:id/cancel", h.CancelRequest)
		requests.GET("/user/:id", h.ListRequesterRequests)
		requests.GET("/provider/:id", h.ListProviderRequests)
	}

	router.GET("/api/v1/users/:id/notifications", h.ListNotifications)
}

// CreateRequest creates a new service request
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var in service.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	req, err := h.requests.CreateRequest(ctx, &in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, req)
}

// GetRequest gets a request by ID
func (h *RequestHandler) GetRequest(c *gin.Context) {
	requestID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	req, err := h.requests.GetRequest(ctx, requestID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// GetRequestHistory returns the status-history trail for a request
func (h *RequestHandler) GetRequestHistory(c *gin.Context) {
	requestID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	history, err := h.requests.GetRequestHistory(ctx, requestID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request_id": requestID, "history": history})
}

// UpdateStatus transitions a request to in_progress or completed
func (h *RequestHandler) UpdateStatus(c *gin.Context) {
	requestID := c.Param("id")

	var request struct {
		Status    string `json:"status" binding:"required"`
		UpdatedBy string `json:"updated_by" binding:"required"`
		Notes     string `json:"notes"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	req, err := h.requests.UpdateStatus(ctx, requestID, model.RequestStatus(request.Status), request.UpdatedBy, request.Notes)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// CancelRequest cancels a pending or assigned request
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	requestID := c.Param("id")

	var request struct {
		CancelledBy string `json:"cancelled_by" binding:"required"`
		Reason      string `json:"reason"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	req, err := h.requests.CancelRequest(ctx, requestID, request.CancelledBy, request.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// ListRequesterRequests lists requests created by a resident
func (h *RequestHandler) ListRequesterRequests(c *gin.Context) {
	h.listRequests(c, h.requests.ListRequesterRequests)
}

// ListProviderRequests lists requests assigned to a provider
func (h *RequestHandler) ListProviderRequests(c *gin.Context) {
	h.listRequests(c, h.requests.ListProviderRequests)
}

func (h *RequestHandler) listRequests(c *gin.Context, list func(context.Context, string, int, int, model.RequestStatus) ([]*model.ServiceRequest, int, error)) {
	id := c.Param("id")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	status := model.RequestStatus(c.DefaultQuery("status", ""))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	requests, total, err := list(ctx, id, page, limit, status)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

// ListNotifications lists a user's notifications, newest first
func (h *RequestHandler) ListNotifications(c *gin.Context) {
	recipientID := c.Param("id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	notifications, err := h.requests.ListNotifications(ctx, recipientID, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

func (h *RequestHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "request not found"})
	case errors.Is(err, repository.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
