package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CyberPidgi/rentiful/internal/middleware"
	"github.com/CyberPidgi/rentiful/internal/models"
	"github.com/CyberPidgi/rentiful/internal/ratelimit"
)

// Routes groups the handlers mounted by RegisterRoutes
type Routes struct {
	Auth       *middleware.TokenParser
	Limiter    *ratelimit.RateLimiter
	Properties *PropertyHandler
	Tenants    *TenantHandler
	Managers   *ManagerHandler
	Leases     *LeaseHandler
	Admin      *AdminHandler
}

// RegisterRoutes mounts every API route on r
func RegisterRoutes(r gin.IRouter, rt Routes) {
	tenant := rt.Auth.RequireRole(models.RoleTenant)
	manager := rt.Auth.RequireRole(models.RoleManager)
	anyUser := rt.Auth.RequireRole(models.RoleTenant, models.RoleManager)
	limit := func(c *gin.Context) { c.Next() }
	if rt.Limiter != nil {
		limit = rt.Limiter.Middleware()
	}

	r.GET("/health", healthCheck)

	r.GET("/properties", rt.Auth.Optional(), rt.Properties.Search)
	r.GET("/properties/search", rt.Auth.Optional(), rt.Properties.KeywordSearch)
	r.GET("/properties/:id", rt.Auth.Optional(), rt.Properties.Get)
	r.POST("/properties", manager, limit, rt.Properties.Create)

	tenants := r.Group("/tenants", tenant)
	{
		tenants.POST("", limit, rt.Tenants.Create)
		tenants.GET("/:cognitoId", rt.Tenants.Get)
		tenants.PUT("/:cognitoId", limit, rt.Tenants.Update)
		tenants.GET("/:cognitoId/current-residences", rt.Tenants.CurrentResidences)
		tenants.POST("/:cognitoId/favorites/:propertyId", limit, rt.Tenants.AddFavorite)
		tenants.DELETE("/:cognitoId/favorites/:propertyId", limit, rt.Tenants.RemoveFavorite)
	}

	managers := r.Group("/managers", manager)
	{
		managers.POST("", limit, rt.Managers.Create)
		managers.GET("/:cognitoId", rt.Managers.Get)
		managers.PUT("/:cognitoId", limit, rt.Managers.Update)
		managers.GET("/:cognitoId/properties", rt.Managers.Properties)
	}

	r.GET("/leases", anyUser, rt.Leases.ListLeases)
	r.GET("/leases/:id/payments", anyUser, rt.Leases.Payments)

	r.GET("/applications", anyUser, rt.Leases.ListApplications)
	r.POST("/applications", tenant, limit, rt.Leases.CreateApplication)
	r.PUT("/applications/:id/status", manager, limit, rt.Leases.UpdateApplicationStatus)

	admin := r.Group("/admin", manager)
	{
		admin.GET("/stats", rt.Admin.GetStats)
		admin.GET("/price-distribution", rt.Admin.GetPriceDistribution)
		admin.POST("/reindex", rt.Admin.Reindex)
		admin.GET("/ratelimit", rt.Admin.GetRateLimitStats)
		admin.DELETE("/ratelimit", rt.Admin.ResetRateLimits)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}
