package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"veloxhub/internal/audit"
	"veloxhub/internal/auth"
	"veloxhub/internal/entitlement"
	"veloxhub/internal/http/handlers"
	"veloxhub/internal/orgs"
)

func NewRouter(db *gorm.DB, jwtSecret string, log zerolog.Logger) *gin.Engine {
	orgSvc := orgs.NewService(db, log)
	memberSvc := orgs.NewMembers(db, log)
	entitySvc := orgs.NewEntities(db, log)
	groupSvc := orgs.NewGroups(db, log)
	inviteSvc := orgs.NewInvitations(db, log)
	authSvc := auth.NewService(db, orgSvc, jwtSecret, log)
	ssoSvc := auth.NewSSO(db, jwtSecret, log)
	resolver := entitlement.NewResolver(db)
	recorder := audit.NewRecorder(db, log)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMW := auth.JWT(db, jwtSecret)

	// Public routes
	r.POST("/api/v1/auth/register", handlers.Register(authSvc))
	r.POST("/api/v1/auth/login", handlers.Login(authSvc))
	r.POST("/api/v1/auth/logout", handlers.Logout())

	// Shared navigation: anonymous callers get the public catalog,
	// satellite app origins are allowed with credentials.
	nav := r.Group("/api/v1/nav", navCORS(), auth.OptionalJWT(db, jwtSecret))
	{
		nav.GET("", handlers.Nav(resolver))
		nav.OPTIONS("", func(c *gin.Context) {})
	}

	// SSO token exchange. Validation is called server-side by
	// satellite apps and needs no session.
	r.POST("/api/v1/sso/validate", handlers.ValidateSSOToken(ssoSvc))
	r.POST("/api/v1/sso/token", authMW, handlers.MintSSOToken(ssoSvc))

	api := r.Group("/api/v1", authMW)
	{
		api.GET("/me", handlers.Me())
		api.DELETE("/users/account", handlers.DeleteAccount(orgSvc))

		api.GET("/invitations", handlers.MyInvitations(inviteSvc))
		api.POST("/invitations/accept", handlers.AcceptInvitation(inviteSvc, recorder))

		api.GET("/orgs", handlers.ListOrgs(orgSvc))
		api.POST("/orgs", handlers.CreateOrg(orgSvc, recorder))
		api.GET("/orgs/:orgID", handlers.GetOrg(orgSvc))
		api.PATCH("/orgs/:orgID", handlers.UpdateOrg(orgSvc, recorder))
		api.DELETE("/orgs/:orgID", handlers.DeleteOrg(orgSvc, recorder))

		api.GET("/orgs/:orgID/members", handlers.ListMembers(memberSvc))
		api.PATCH("/orgs/:orgID/members/:memberID", handlers.ChangeMemberRole(memberSvc, recorder))
		api.DELETE("/orgs/:orgID/members/:memberID", handlers.RemoveMember(memberSvc, recorder))
		api.GET("/orgs/:orgID/members/:memberID/app-access", handlers.GetMemberAppAccess(memberSvc))
		api.PUT("/orgs/:orgID/members/:memberID/app-access", handlers.SetMemberAppAccess(memberSvc, recorder))

		api.GET("/orgs/:orgID/entities", handlers.ListEntities(entitySvc))
		api.POST("/orgs/:orgID/entities", handlers.CreateEntity(entitySvc, recorder))
		api.GET("/orgs/:orgID/entities/:entityID", handlers.GetEntity(entitySvc))
		api.PATCH("/orgs/:orgID/entities/:entityID", handlers.UpdateEntity(entitySvc, recorder))
		api.DELETE("/orgs/:orgID/entities/:entityID", handlers.DeleteEntity(entitySvc, recorder))

		api.GET("/orgs/:orgID/groups", handlers.ListGroups(groupSvc))
		api.POST("/orgs/:orgID/groups", handlers.CreateGroup(groupSvc, recorder))
		api.GET("/orgs/:orgID/groups/:groupID", handlers.GetGroup(groupSvc))
		api.PATCH("/orgs/:orgID/groups/:groupID", handlers.UpdateGroup(groupSvc, recorder))
		api.DELETE("/orgs/:orgID/groups/:groupID", handlers.DeleteGroup(groupSvc, recorder))
		api.POST("/orgs/:orgID/groups/:groupID/members", handlers.AddGroupMember(groupSvc, recorder))
		api.DELETE("/orgs/:orgID/groups/:groupID/members/:memberID", handlers.RemoveGroupMember(groupSvc, recorder))
		api.GET("/orgs/:orgID/groups/:groupID/app-access", handlers.GetGroupAppAccess(groupSvc))
		api.PUT("/orgs/:orgID/groups/:groupID/app-access", handlers.SetGroupAppAccess(groupSvc, recorder))

		api.GET("/orgs/:orgID/invitations", handlers.ListInvitations(inviteSvc))
		api.POST("/orgs/:orgID/invitations", handlers.CreateInvitation(inviteSvc, recorder))
		api.DELETE("/orgs/:orgID/invitations/:inviteID", handlers.WithdrawInvitation(inviteSvc, recorder))

		api.GET("/orgs/:orgID/billing/subscriptions", handlers.ListSubscriptions(orgSvc))
		api.GET("/orgs/:orgID/audit", handlers.ListAudit(orgSvc, recorder))
	}

	return r
}
