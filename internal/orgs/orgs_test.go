package orgs

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"veloxhub/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrgMember{},
		&models.MemberAppAccess{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupAppAccess{},
		&models.Entity{},
		&models.Invitation{},
		&models.Subscription{},
		&models.SSOToken{},
		&models.AuditLog{},
	))
	return db
}

// fixture is the standing scenario most tests start from: one business
// org with an owner, an admin, a plain member, and an external
// contractor holding one direct grant.
type fixture struct {
	db    *gorm.DB
	org   models.Organization
	alice models.User // OWNER
	bob   models.User // ADMIN
	carol models.User // MEMBER
	dave  models.User // EXTERNAL

	owner    models.OrgMember
	admin    models.OrgMember
	member   models.OrgMember
	external models.OrgMember
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testDB(t)

	f := &fixture{db: db}
	f.alice = mkUser(t, db, "alice@acme.test", "Alice")
	f.bob = mkUser(t, db, "bob@acme.test", "Bob")
	f.carol = mkUser(t, db, "carol@acme.test", "Carol")
	f.dave = mkUser(t, db, "dave@contractor.test", "Dave")

	f.org = models.Organization{Name: "Acme", Slug: "acme", Type: models.OrgBusiness}
	require.NoError(t, db.Create(&f.org).Error)

	f.owner = mkMember(t, db, f.alice.ID, f.org.ID, models.RoleOwner)
	f.admin = mkMember(t, db, f.bob.ID, f.org.ID, models.RoleAdmin)
	f.member = mkMember(t, db, f.carol.ID, f.org.ID, models.RoleMember)
	f.external = mkMember(t, db, f.dave.ID, f.org.ID, models.RoleExternal)

	grant := models.MemberAppAccess{MemberID: f.external.ID, AppSlug: "nota"}
	require.NoError(t, db.Create(&grant).Error)

	entity := models.Entity{OrgID: f.org.ID, Name: "Acme", Slug: "default", IsDefault: true}
	require.NoError(t, db.Create(&entity).Error)

	return f
}

func mkUser(t *testing.T, db *gorm.DB, email, name string) models.User {
	t.Helper()
	u := models.User{Email: email, Name: name, AuthProvider: "local"}
	require.NoError(t, db.Create(&u).Error)
	return u
}

func mkMember(t *testing.T, db *gorm.DB, userID, orgID int64, role models.Role) models.OrgMember {
	t.Helper()
	m := models.OrgMember{UserID: userID, OrgID: orgID, Role: role}
	require.NoError(t, db.Create(&m).Error)
	return m
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func directGrants(t *testing.T, db *gorm.DB, memberID int64) []string {
	t.Helper()
	var rows []models.MemberAppAccess
	require.NoError(t, db.Where("member_id = ?", memberID).Order("app_slug").Find(&rows).Error)
	slugs := make([]string, 0, len(rows))
	for _, r := range rows {
		slugs = append(slugs, r.AppSlug)
	}
	return slugs
}
