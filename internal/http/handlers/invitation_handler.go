package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"veloxhub/internal/audit"
	"veloxhub/internal/models"
	"veloxhub/internal/orgs"
)

// ListInvitations returns the organization's pending invitations.
func ListInvitations(svc *orgs.Invitations) gin.HandlerFunc {
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
		c.JSON(http.StatusOK, gin.H{"invitations": out})
	}
}

// CreateInvitation invites an email into the organization.
func CreateInvitation(svc *orgs.Invitations, rec *audit.Recorder) gin.HandlerFunc {
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
			Email    string   `json:"email" binding:"required,email"`
			Role     string   `json:"role"`
			AppSlugs []string `json:"app_slugs"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		invite, err := svc.Create(c.Request.Context(), user.ID, orgID, in.Email, models.Role(in.Role), in.AppSlugs)
		if err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "invitations.create", ResourceType: "invitation", ResourceID: invite.ID,
			Metadata:      map[string]any{"email": invite.Email, "role": string(invite.Role)},
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusCreated, gin.H{"invitation": invite})
	}
}

// WithdrawInvitation deletes a pending invitation.
func WithdrawInvitation(svc *orgs.Invitations, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		orgID, ok := pathID(c, "orgID")
		if !ok {
			return
		}
		inviteID, ok := pathID(c, "inviteID")
		if !ok {
			return
		}

		if err := svc.Withdraw(c.Request.Context(), user.ID, orgID, inviteID); err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: orgID, UserID: user.ID,
			Action: "invitations.withdraw", ResourceType: "invitation", ResourceID: inviteID,
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"message": "invitation withdrawn"})
	}
}

// MyInvitations returns the caller's own pending invitations.
func MyInvitations(svc *orgs.Invitations) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}
		out, err := svc.PendingFor(c.Request.Context(), user.ID)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"invitations": out})
	}
}

// AcceptInvitation turns one of the caller's invitations into a
// membership.
func AcceptInvitation(svc *orgs.Invitations, rec *audit.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := mustUser(c)
		if !ok {
			return
		}

		var in struct {
			InvitationID int64 `json:"invitation_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		member, err := svc.Accept(c.Request.Context(), user.ID, in.InvitationID)
		if err != nil {
			fail(c, err)
			return
		}

		rec.Record(c.Request.Context(), audit.Entry{
			OrgID: member.OrgID, UserID: user.ID,
			Action: "invitations.accept", ResourceType: "member", ResourceID: member.ID,
			Metadata:      map[string]any{"role": string(member.Role)},
			InitiatorName: user.Name, IP: c.ClientIP(), UserAgent: c.Request.UserAgent(),
		})
		c.JSON(http.StatusOK, gin.H{"member": member})
	}
}
