package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/CyberPidgi/rentiful/internal/apperr"
	"github.com/CyberPidgi/rentiful/internal/middleware"
)

// respondError writes {"error", "field"?} with the status of the error kind.
// Unclassified errors are logged and reported as 500 without details.
func respondError(c *gin.Context, err error) {
	e, ok := apperr.As(err)
	if !ok {
		log.Printf("[API] internal error method=%s path=%s request_id=%s err=%v",
			c.Request.Method, c.FullPath(), c.GetString(middleware.ContextRequestID), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status := e.HTTPStatus()
	body := gin.H{"error": e.Message}
	if e.Field != "" {
		body["field"] = e.Field
	}
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s method=%s path=%s err=%v", e.Kind, c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, body)
}

func uintParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation(name, "must be a positive integer")
	}
	return uint(id), nil
}

func bindJSON(c *gin.Context, dest interface{}) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return apperr.Validation("body", err.Error())
	}
	return nil
}

// requireSelf allows the request only when the path's cognito id is the
// caller's own
func requireSelf(c *gin.Context, cognitoID string) (middleware.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return middleware.Identity{}, apperr.Unauthorized("authentication required")
	}
	if id.ID != cognitoID {
		return middleware.Identity{}, apperr.Forbidden("cannot access another user's records")
	}
	return id, nil
}
