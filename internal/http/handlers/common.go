package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/apperr"
	"veloxhub/internal/auth"
	"veloxhub/internal/models"
)

// fail writes the error as JSON with the status its kind maps to.
func fail(c *gin.Context, err error) {
	c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
}

// mustUser returns the authenticated user or aborts with 401. Routes
// behind the JWT middleware always have one; this guards misconfigured
// route groups.
func mustUser(c *gin.Context) (*models.User, bool) {
	user := auth.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	return user, true
}

// pathID parses a numeric path parameter, aborting with 400 on junk.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
