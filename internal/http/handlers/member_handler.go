package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/audit"
	"veloxhub/internal/models"
	"veloxhub/internal/orgs"
)

// ListMembers returns the organization's member roster.
func ListMembers(svc *orgs.Members) gin.HandlerFunc {
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
		c.JSON(http.StatusOK, gin.H{"members": out})
	}
}

// ChangeMemberRole moves a member to a new role. OWNER only.
func ChangeMemberRole(svc *orgs.Members, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		memberID, ok := pathID(c, "memberID")
		if !ok {
			return
		}

		var in struct {
			Role     string   `json:"role" binding:"required"`
			AppSlugs []string `json:"app_slugs"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		member, err := svc.ChangeRole(c.Request.Context(), user.ID, orgID, memberID, models.Role(in.Role), in.AppSlugs)
		if err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "members.change_role", ResourceType: "member", ResourceID: memberID,
			Metadata:      map[string]any{"role": in.Role},
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"member": member})
	}
}

// RemoveMember deletes a membership.
func RemoveMember(svc *orgs.Members, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		memberID, ok := pathID(c, "memberID")
		if !ok {
			return
		}

		if err := svc.Remove(c.Request.Context(), user.ID, orgID, memberID); err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "members.remove", ResourceType: "member", ResourceID: memberID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"message": "member removed"})
	}
}

// GetMemberAppAccess returns a member's direct grant slugs.
func GetMemberAppAccess(svc *orgs.Members) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		memberID, ok := pathID(c, "memberID")
		if !ok {
			return
		}

		slugs, err := svc.GetAppAccess(c.Request.Context(), user.ID, orgID, memberID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"app_slugs": slugs})
	}
}

// SetMemberAppAccess replaces an EXTERNAL member's direct grants.
func SetMemberAppAccess(svc *orgs.Members, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		memberID, ok := pathID(c, "memberID")
		if !ok {
			return
		}

		var in struct {
			AppSlugs []string `json:"app_slugs" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := svc.SetAppAccess(c.Request.Context(), user.ID, orgID, memberID, in.AppSlugs); err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "members.set_app_access", ResourceType: "member", ResourceID: memberID,
			Metadata:      map[string]any{"app_slugs": in.AppSlugs},
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"app_slugs": in.AppSlugs})
	}
}
