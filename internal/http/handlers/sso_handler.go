package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/auth"
)

// MintSSOToken issues a short-lived handoff token for the caller.
func MintSSOToken(svc *auth.SSO) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}

		token, err := svc.Mint(c.Request.Context(), user.ID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

// ValidateSSOToken exchanges a handoff token for the user's identity.
// Called server-side by satellite applications; tokens are single-use.
func ValidateSSOToken(svc *auth.SSO) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		identity, err := svc.Validate(c.Request.Context(), in.Token)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": identity})
	}
}
