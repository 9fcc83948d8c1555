package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
	"veloxhub/internal/orgs"
)

const testSecret = "test-secret"

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrgMember{},
		&models.Entity{},
		&models.SSOToken{},
	))
	return db
}

func testService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testDB(t)
	orgSvc := orgs.NewService(db, zerolog.Nop())
	return NewService(db, orgSvc, testSecret, zerolog.Nop()), db
}

func TestRegisterCreatesPersonalOrg(t *testing.T) {
	svc, db := testService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "New@Example.Test", "longenough", "New User")
	require.NoError(t, err)
	assert.Equal(t, "new@example.test", user.Email)
	assert.NotEmpty(t, token)

	var org models.Organization
	require.NoError(t, db.First(&org).Error)
	assert.Equal(t, models.OrgIndividual, org.Type)

	var m models.OrgMember
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&m).Error)
	assert.Equal(t, models.RoleOwner, m.Role)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "not-an-email", "longenough", "")
	assert.True(t, apperr.IsKind(err, apperr.Validation))

	_, _, err = svc.Register(ctx, "ok@example.test", "short", "")
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestRegisterRollsBackWithoutPersonalOrg(t *testing.T) {
	// Only the users table exists, so the personal-org creation inside
	// Register must fail and take the user row down with it.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	orgSvc := orgs.NewService(db, zerolog.Nop())
	svc := NewService(db, orgSvc, testSecret, zerolog.Nop())

	_, _, err = svc.Register(context.Background(), "ghost@example.test", "longenough", "")
	require.Error(t, err)

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n, "failed registration must leave no user row")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "dup@example.test", "longenough", "")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Dup@Example.Test", "longenough", "")
	assert.True(t, apperr.IsKind(err, apperr.InvariantViolation))
}

func TestLogin(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "login@example.test", "longenough", "")
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "login@example.test", "longenough")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	// The token round-trips through the middleware's claim type.
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims := parsed.Claims.(*Claims)
	assert.Equal(t, registered.ID, claims.UserID)

	_, _, err = svc.Login(ctx, "login@example.test", "wrongpass")
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))

	_, _, err = svc.Login(ctx, "nobody@example.test", "longenough")
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
}

func TestSSOSingleUse(t *testing.T) {
	svc, db := testService(t)
	sso := NewSSO(db, testSecret, zerolog.Nop())
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "sso@example.test", "longenough", "SSO User")
	require.NoError(t, err)

	token, err := sso.Mint(ctx, user.ID)
	require.NoError(t, err)

	identity, err := sso.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "sso@example.test", identity.Email)

	// Second use is rejected.
	_, err = sso.Validate(ctx, token)
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
}

func TestSSOTamperedToken(t *testing.T) {
	svc, db := testService(t)
	sso := NewSSO(db, testSecret, zerolog.Nop())
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "sso@example.test", "longenough", "")
	require.NoError(t, err)

	token, err := sso.Mint(ctx, user.ID)
	require.NoError(t, err)

	tampered := token[:len(token)-4] + "0000"
	_, err = sso.Validate(ctx, tampered)
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
}

func TestSSOExpiredToken(t *testing.T) {
	_, db := testService(t)
	sso := NewSSO(db, testSecret, zerolog.Nop())

	// The embedded expiry is checked before any database lookup.
	expired := fmt.Sprintf("%s.%d.%s", "some-id", time.Now().Add(-time.Minute).Unix(), "sig")
	_, err := sso.Validate(context.Background(), expired)
	assert.True(t, apperr.IsKind(err, apperr.Unauthenticated))
}
