package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/auth"
	"veloxhub/internal/entitlement"
)

// Nav returns the resolved app entitlements for the caller. Anonymous
// callers get the public catalog without subscription state.
func Nav(resolver *entitlement.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID int64
		if user := auth.CurrentUser(c); user != nil {
			userID = user.ID
		}

		res, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}
