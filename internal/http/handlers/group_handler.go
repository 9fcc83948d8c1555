package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/audit"
	"veloxhub/internal/orgs"
)

// ListGroups returns the organization's groups.
func ListGroups(svc *orgs.Groups) gin.HandlerFunc {
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
		c.JSON(http.StatusOK, gin.H{"groups": out})
	}
}

// GetGroup returns a group with its member roster.
func GetGroup(svc *orgs.Groups) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		groupID, ok := pathID(c, "groupID")
		if !ok {
			return
		}
		out, err := svc.Get(c.Request.Context(), user.ID, orgID, groupID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"group": out})
	}
}

// CreateGroup adds a group.
func CreateGroup(svc *orgs.Groups, rec *audit.Recorder) gin.HandlerFunc {
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
			Name        string `json:"name" binding:"required"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		group, err := svc.Create(c.Request.Context(), user.ID, orgID, in.Name, in.Description)
		if err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "groups.create", ResourceType: "group", ResourceID: group.ID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusCreated, gin.H{"group": group})
	}
}

// UpdateGroup renames a group or changes its description.
func UpdateGroup(svc *orgs.Groups, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		groupID, ok := pathID(c, "groupID")
		if !ok {
			return
		}

		var in struct {
			Name        *string `json:"name"`
			Description *string `json:"description"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		group, err := svc.Update(c.Request.Context(), user.ID, orgID, groupID,
			orgs.GroupUpdate{Name: in.Name, Description: in.Description})
		if err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "groups.update", ResourceType: "group", ResourceID: groupID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"group": group})
	}
}

// DeleteGroup removes a group with its members and grants.
func DeleteGroup(svc *orgs.Groups, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		groupID, ok := pathID(c, "groupID")
		if !ok {
			return
		}

		if err := svc.Delete(c.Request.Context(), user.ID, orgID, groupID); err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "groups.delete", ResourceType: "group", ResourceID: groupID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
	}
}

// AddGroupMember puts an org member into a group.
func AddGroupMember(svc *orgs.Groups, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		groupID, ok := pathID(c, "groupID")
		if !ok {
			return
		}

		var in struct {
			MemberID int64 `json:"member_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := svc.AddMember(c.Request.Context(), user.ID, orgID, groupID, in.MemberID); err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "groups.add_member", ResourceType: "group", ResourceID: groupID,
			Metadata:      map[string]any{"member_id": in.MemberID},
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"message": "member added"})
	}
}

// RemoveGroupMember takes an org member out of a group.
func RemoveGroupMember(svc *orgs.Groups, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		groupID, ok := pathID(c, "groupID")
		if !ok {
			return
		}
		memberID, ok := pathID(c, "memberID")
		if !ok {
			return
		}

		if err := svc.RemoveMember(c.Request.Context(), user.ID, orgID, groupID, memberID); err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "groups.remove_member", ResourceType: "group", ResourceID: groupID,
			Metadata:      map[string]any{"member_id": memberID},
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"message": "member removed"})
	}
}

// GetGroupAppAccess returns the group's grant slugs.
func GetGroupAppAccess(svc *orgs.Groups) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		groupID, ok := pathID(c, "groupID")
		if !ok {
			return
		}

		slugs, err := svc.GetAppAccess(c.Request.Context(), user.ID, orgID, groupID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"app_slugs": slugs})
	}
}

// SetGroupAppAccess replaces the group's grants.
func SetGroupAppAccess(svc *orgs.Groups, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		groupID, ok := pathID(c, "groupID")
		if !ok {
			return
		}

		var in struct {
			AppSlugs []string `json:"app_slugs"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := svc.SetAppAccess(c.Request.Context(), user.ID, orgID, groupID, in.AppSlugs); err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "groups.set_app_access", ResourceType: "group", ResourceID: groupID,
			Metadata:      map[string]any{"app_slugs": in.AppSlugs},
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"app_slugs": in.AppSlugs})
	}
}
