package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/audit"
	"veloxhub/internal/models"
	"veloxhub/internal/orgs"
)

// ListAudit returns a page of the organization's audit trail, newest
// first with a keyset cursor. ADMIN or above.
func ListAudit(orgSvc *orgs.Service, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}

		if err := orgSvc.Authorize(c.Request.Context(), user.ID, orgID, models.RoleAdmin); err != nil {
			fail(c, err)
			return
		}

		limit := 20
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
				limit = parsed
			}
		}
		var afterID int64
		if v := c.Query("after_id"); v != "" {
			if parsed, err := strconv.ParseInt(v, 10, 64); err == nil && parsed > 0 {
				afterID = parsed
			}
		}

		page, err := rec.List(c.Request.Context(), orgID, limit, afterID, c.Query("q"))
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}
