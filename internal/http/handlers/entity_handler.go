package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/audit"
	"veloxhub/internal/orgs"
)

// ListEntities returns the organization's entities, default first.
func ListEntities(svc *orgs.Entities) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		out, err := svc.List(c.Request.Context(), user.ID, orgID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entities": out})
	}
}

// GetEntity returns one entity.
func GetEntity(svc *orgs.Entities) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		entityID, ok := pathID(c, "entityID")
		if !ok {
			return
		}
		out, err := svc.Get(c.Request.Context(), user.ID, orgID, entityID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"entity": out})
	}
}

// CreateEntity adds an entity to a business organization.
func CreateEntity(svc *orgs.Entities, rec *audit.Recorder) gin.HandlerFunc {
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
			Name      string `json:"name" binding:"required"`
			IsDefault bool   `json:"is_default"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		entity, err := svc.Create(c.Request.Context(), user.ID, orgID, in.Name, in.IsDefault)
		if err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "entities.create", ResourceType: "entity", ResourceID: entity.ID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusCreated, gin.H{"entity": entity})
	}
}

// UpdateEntity changes an entity's name, slug, or default flag.
func UpdateEntity(svc *orgs.Entities, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		entityID, ok := pathID(c, "entityID")
		if !ok {
			return
		}

		var in struct {
			Name      *string `json:"name"`
			Slug      *string `json:"slug"`
			IsDefault *bool   `json:"is_default"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		entity, err := svc.Update(c.Request.Context(), user.ID, orgID, entityID,
			orgs.EntityUpdate{Name: in.Name, Slug: in.Slug, IsDefault: in.IsDefault})
		if err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "entities.update", ResourceType: "entity", ResourceID: entityID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"entity": entity})
	}
}

// DeleteEntity removes an entity.
func DeleteEntity(svc *orgs.Entities, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		entityID, ok := pathID(c, "entityID")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), user.ID, orgID, entityID); err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "entities.delete", ResourceType: "entity", ResourceID: entityID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"message": "entity deleted"})
	}
}
