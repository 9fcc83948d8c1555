package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/orgs"
)

// Me returns the authenticated user's profile.
func Me() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// DeleteAccount removes the caller's account. The body must carry the
// literal confirmation string and, for password accounts, the current
// password. Solely-owned organizations are deleted along with it.
func DeleteAccount(svc *orgs.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}

		var in struct {
			Confirmation string `json:"confirmation" binding:"required"`
			Password     string `json:"password"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if in.Confirmation != "DELETE" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation must be the word DELETE"})
			return
		}

		if err := svc.DeleteAccount(c.Request.Context(), user.ID, in.Password); err != nil {
			fail(c, err)
			return
		}

		c.SetCookie("token", "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
	}
}
