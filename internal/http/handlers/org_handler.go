package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/audit"
	"veloxhub/internal/models"
	"veloxhub/internal/orgs"
)

// ListOrgs returns the caller's organizations with their role in each.
func ListOrgs(svc *orgs.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		out, err := svc.List(c.Request.Context(), user.ID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"organizations": out})
	}
}

// GetOrg returns one organization the caller belongs to.
func GetOrg(svc *orgs.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		out, err := svc.Get(c.Request.Context(), user.ID, orgID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"organization": out})
	}
}

// CreateOrg creates an organization with the caller as OWNER.
func CreateOrg(svc *orgs.Service, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}

		var in struct {
			Name string `json:"name" binding:"required"`
			Type string `json:"type"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		orgType := models.OrgType(in.Type)
		if in.Type == "" {
			orgType = models.OrgBusiness
		}

		org, err := svc.Create(c.Request.Context(), user.ID, in.Name, orgType)
		if err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: org.ID, UserID: user.ID,
			Action: "orgs.create", ResourceType: "organization", ResourceID: org.ID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusCreated, gin.H{"organization": org})
	}
}

// UpdateOrg changes an organization's name, slug, or type. OWNER only.
func UpdateOrg(svc *orgs.Service, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}

		var in struct {
			Name *string `json:"name"`
			Slug *string `json:"slug"`
			Type *string `json:"type"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		update := orgs.UpdateInput{Name: in.Name, Slug: in.Slug}
		if in.Type != nil {
			t := models.OrgType(*in.Type)
			update.Type = &t
		}

		org, err := svc.Update(c.Request.Context(), user.ID, orgID, update)
		if err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "orgs.update", ResourceType: "organization", ResourceID: orgID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"organization": org})
	}
}

// DeleteOrg removes an organization and everything scoped to it.
func DeleteOrg(svc *orgs.Service, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), user.ID, orgID); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "organization deleted"})
	}
}
