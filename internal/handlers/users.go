package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/compose"
	"github.com/CyberPidgi/rentiful/internal/database"
	"github.com/CyberPidgi/rentiful/internal/middleware"
	"github.com/CyberPidgi/rentiful/internal/models"
)

// TenantStore is the persistence used by the tenant routes
type TenantStore interface {
	GetTenant(ctx context.Context, cognitoID string) (*models.Tenant, error)
	CreateTenant(ctx context.Context, t *models.Tenant) error
	UpdateTenant(ctx context.Context, cognitoID string, u database.ContactUpdate) (*models.Tenant, error)
	TenantResidences(ctx context.Context, tenantCognitoID string) ([]database.ListingRow, error)
	FavoriteIDs(ctx context.Context, tenantCognitoID string) ([]uint, error)
	AddFavorite(ctx context.Context, tenantCognitoID string, propertyID uint) (bool, error)
	RemoveFavorite(ctx context.Context, tenantCognitoID string, propertyID uint) (bool, error)
}

// ManagerStore is the persistence used by the manager routes
type ManagerStore interface {
	GetManager(ctx context.Context, cognitoID string) (*models.Manager, error)
	CreateManager(ctx context.Context, m *models.Manager) error
	UpdateManager(ctx context.Context, cognitoID string, u database.ContactUpdate) (*models.Manager, error)
	ListingsByManager(ctx context.Context, managerCognitoID string) ([]database.ListingRow, error)
}

type createUserRequest struct {
	CognitoID   string `json:"cognitoId"`
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

// cognitoIDFor takes the record id from the token. A body id, when given,
// must match it.
func (r createUserRequest) cognitoIDFor(caller middleware.Identity) (string, error) {
	if r.CognitoID != "" && r.CognitoID != caller.ID {
		return "", apperr.Forbidden("cognitoId does not match the token subject")
	}
	return caller.ID, nil
}

// favoriteResponse is returned by both favorite mutations
type favoriteResponse struct {
	Message     string `json:"message"`
	Changed     bool   `json:"changed"`
	FavoriteIDs []uint `json:"favoriteIds"`
}

// TenantHandler serves tenant records, residences and favorites
type TenantHandler struct {
	store TenantStore
}

func NewTenantHandler(store TenantStore) *TenantHandler {
	return &TenantHandler{store: store}
}

func (h *TenantHandler) Get(c *gin.Context) {
	cognitoID := c.Param("cognitoId")
	if _, err := requireSelf(c, cognitoID); err != nil {
		respondError(c, err)
		return
	}
	tenant, err := h.store.GetTenant(c.Request.Context(), cognitoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (h *TenantHandler) Create(c *gin.Context) {
	caller, _ := middleware.CurrentIdentity(c)
	var req createUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	cognitoID, err := req.cognitoIDFor(caller)
	if err != nil {
		respondError(c, err)
		return
	}

	tenant := &models.Tenant{
		CognitoID:   cognitoID,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.store.CreateTenant(c.Request.Context(), tenant); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func (h *TenantHandler) Update(c *gin.Context) {
	cognitoID := c.Param("cognitoId")
	if _, err := requireSelf(c, cognitoID); err != nil {
		respondError(c, err)
		return
	}
	var update database.ContactUpdate
	if err := bindJSON(c, &update); err != nil {
		respondError(c, err)
		return
	}
	tenant, err := h.store.UpdateTenant(c.Request.Context(), cognitoID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

// CurrentResidences lists the properties the tenant occupies
func (h *TenantHandler) CurrentResidences(c *gin.Context) {
	ctx := c.Request.Context()
	cognitoID := c.Param("cognitoId")
	if _, err := requireSelf(c, cognitoID); err != nil {
		respondError(c, err)
		return
	}
	rows, err := h.store.TenantResidences(ctx, cognitoID)
	if err != nil {
		respondError(c, err)
		return
	}
	ids, err := h.store.FavoriteIDs(ctx, cognitoID)
	if err != nil {
		respondError(c, err)
		return
	}
	listings, err := compose.Compose(rows, compose.NewFavoriteSet(ids))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

func (h *TenantHandler) AddFavorite(c *gin.Context) {
	h.mutateFavorite(c, h.store.AddFavorite, "added to favorites", "already a favorite")
}

func (h *TenantHandler) RemoveFavorite(c *gin.Context) {
	h.mutateFavorite(c, h.store.RemoveFavorite, "removed from favorites", "not a favorite")
}

// mutateFavorite applies an idempotent favorite change. A no-op reports
// changed=false with 200.
func (h *TenantHandler) mutateFavorite(c *gin.Context,
	apply func(ctx context.Context, tenantCognitoID string, propertyID uint) (bool, error),
	changedMsg, unchangedMsg string) {
	ctx := c.Request.Context()
	cognitoID := c.Param("cognitoId")
	if _, err := requireSelf(c, cognitoID); err != nil {
		respondError(c, err)
		return
	}
	propertyID, err := uintParam(c, "propertyId")
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.store.GetTenant(ctx, cognitoID); err != nil {
		respondError(c, err)
		return
	}

	changed, err := apply(ctx, cognitoID, propertyID)
	if err != nil {
		respondError(c, err)
		return
	}
	ids, err := h.store.FavoriteIDs(ctx, cognitoID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := favoriteResponse{Message: changedMsg, Changed: changed, FavoriteIDs: ids}
	if !changed {
		resp.Message = unchangedMsg
	}
	if resp.FavoriteIDs == nil {
		resp.FavoriteIDs = []uint{}
	}
	c.JSON(http.StatusOK, resp)
}

// ManagerHandler serves manager records and their listings
type ManagerHandler struct {
	store ManagerStore
}

func NewManagerHandler(store ManagerStore) *ManagerHandler {
	return &ManagerHandler{store: store}
}

func (h *ManagerHandler) Get(c *gin.Context) {
	cognitoID := c.Param("cognitoId")
	if _, err := requireSelf(c, cognitoID); err != nil {
		respondError(c, err)
		return
	}
	manager, err := h.store.GetManager(c.Request.Context(), cognitoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, manager)
}

func (h *ManagerHandler) Create(c *gin.Context) {
	caller, _ := middleware.CurrentIdentity(c)
	var req createUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	cognitoID, err := req.cognitoIDFor(caller)
	if err != nil {
		respondError(c, err)
		return
	}

	manager := &models.Manager{
		CognitoID:   cognitoID,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.store.CreateManager(c.Request.Context(), manager); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, manager)
}

func (h *ManagerHandler) Update(c *gin.Context) {
	cognitoID := c.Param("cognitoId")
	if _, err := requireSelf(c, cognitoID); err != nil {
		respondError(c, err)
		return
	}
	var update database.ContactUpdate
	if err := bindJSON(c, &update); err != nil {
		respondError(c, err)
		return
	}
	manager, err := h.store.UpdateManager(c.Request.Context(), cognitoID, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, manager)
}

// Properties lists the manager's own listings
func (h *ManagerHandler) Properties(c *gin.Context) {
	cognitoID := c.Param("cognitoId")
	if _, err := requireSelf(c, cognitoID); err != nil {
		respondError(c, err)
		return
	}
	rows, err := h.store.ListingsByManager(c.Request.Context(), cognitoID)
	if err != nil {
		respondError(c, err)
		return
	}
	listings, err := compose.Compose(rows, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}
