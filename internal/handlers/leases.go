package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/middleware"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// LeaseStore is the persistence used by the lease and application routes
type LeaseStore interface {
	ListLeases(ctx context.Context, userID, userType string) ([]models.Lease, error)
	LeasePayments(ctx context.Context, leaseID uint) ([]models.Payment, error)
	ListApplications(ctx context.Context, userID, userType string) ([]models.Application, error)
	CreateApplication(ctx context.Context, app *models.Application, now time.Time) error
	UpdateApplicationStatus(ctx context.Context, id uint, status models.ApplicationStatus, managerCognitoID string) (*models.Application, error)
}

// leaseView adds the derived next payment date
type leaseView struct {
	models.Lease
	NextPaymentDate time.Time `json:"nextPaymentDate"`
}

// LeaseHandler serves leases, payments and applications
type LeaseHandler struct {
	store LeaseStore
	cache RowCache
	now   func() time.Time
}

// NewLeaseHandler creates a lease handler. rows is the search row cache
// flushed on approval, since a new lease changes availableFrom matches; it
// may be nil.
func NewLeaseHandler(store LeaseStore, rows RowCache) *LeaseHandler {
	return &LeaseHandler{store: store, cache: rows, now: func() time.Time { return time.Now().UTC() }}
}

// ListLeases returns the caller's leases
func (h *LeaseHandler) ListLeases(c *gin.Context) {
	caller, _ := middleware.CurrentIdentity(c)
	leases, err := h.store.ListLeases(c.Request.Context(), caller.ID, caller.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	now := h.now()
	views := make([]leaseView, 0, len(leases))
	for i := range leases {
		views = append(views, leaseView{Lease: leases[i], NextPaymentDate: leases[i].NextPaymentDate(now)})
	}
	c.JSON(http.StatusOK, views)
}

// Payments lists the payments of one of the caller's leases
func (h *LeaseHandler) Payments(c *gin.Context) {
	ctx := c.Request.Context()
	caller, _ := middleware.CurrentIdentity(c)
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	leases, err := h.store.ListLeases(ctx, caller.ID, caller.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	if !containsLease(leases, id) {
		respondError(c, apperr.Forbidden("cannot access another user's lease"))
		return
	}

	payments, err := h.store.LeasePayments(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// ListApplications accepts userId and userType query parameters; both
// default to the caller and must match it
func (h *LeaseHandler) ListApplications(c *gin.Context) {
	caller, _ := middleware.CurrentIdentity(c)
	userID := c.DefaultQuery("userId", caller.ID)
	userType := c.DefaultQuery("userType", caller.Role)
	if userID != caller.ID || userType != caller.Role {
		respondError(c, apperr.Forbidden("cannot list another user's applications"))
		return
	}

	applications, err := h.store.ListApplications(c.Request.Context(), userID, userType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, applications)
}

type createApplicationRequest struct {
	PropertyID  uint   `json:"propertyId" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}

// CreateApplication submits a Pending application for the calling tenant
func (h *LeaseHandler) CreateApplication(c *gin.Context) {
	caller, _ := middleware.CurrentIdentity(c)
	var req createApplicationRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	app := &models.Application{
		PropertyID:      req.PropertyID,
		TenantCognitoID: caller.ID,
		Name:            req.Name,
		Email:           req.Email,
		PhoneNumber:     req.PhoneNumber,
		Message:         req.Message,
	}
	if err := h.store.CreateApplication(c.Request.Context(), app, h.now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, app)
}

type statusRequest struct {
	Status models.ApplicationStatus `json:"status" binding:"required"`
}

// UpdateApplicationStatus approves or rejects an application on one of the
// caller's properties
func (h *LeaseHandler) UpdateApplicationStatus(c *gin.Context) {
	caller, _ := middleware.CurrentIdentity(c)
	id, err := uintParam(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	app, err := h.store.UpdateApplicationStatus(ctx, id, req.Status, caller.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if app.Status == models.ApplicationStatusApproved {
		flushListings(ctx, h.cache)
	}
	c.JSON(http.StatusOK, app)
}

func containsLease(leases []models.Lease, id uint) bool {
	for i := range leases {
		if leases[i].ID == id {
			return true
		}
	}
	return false
}
