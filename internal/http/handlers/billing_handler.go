package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/orgs"
)

// ListSubscriptions returns the organization's billable subscriptions.
func ListSubscriptions(svc *orgs.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}

		subs, err := svc.Subscriptions(c.Request.Context(), user.ID, orgID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
	}
}
