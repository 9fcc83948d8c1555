package orgs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veloxhub/internal/apperr"
	"veloxhub/internal/models"
)

func TestEntityCreateForcesFirstDefault(t *testing.T) {
	db := testDB(t)
	svc := NewEntities(db, testLogger())
	ctx := context.Background()

	owner := mkUser(t, db, "owner@x.test", "Owner")
	org := models.Organization{Name: "X", Slug: "x", Type: models.OrgBusiness}
	require.NoError(t, db.Create(&org).Error)
	mkMember(t, db, owner.ID, org.ID, models.RoleOwner)

	// Explicitly not default, forced anyway.
	first, err := svc.Create(ctx, owner.ID, org.ID, "First", false)
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := svc.Create(ctx, owner.ID, org.ID, "Second", false)
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
}

func TestEntityDefaultSwapIsAtomic(t *testing.T) {
	f := newFixture(t)
	svc := NewEntities(f.db, testLogger())
	ctx := context.Background()

	branch, err := svc.Create(ctx, f.alice.ID, f.org.ID, "Branch", false)
	require.NoError(t, err)

	yes := true
	_, err = svc.Update(ctx, f.alice.ID, f.org.ID, branch.ID, EntityUpdate{IsDefault: &yes})
	require.NoError(t, err)

	var defaults int64
	require.NoError(t, f.db.Model(&models.Entity{}).
		Where("org_id = ? AND is_default = ?", f.org.ID, true).
		Count(&defaults).Error)
	assert.EqualValues(t, 1, defaults)

	var reloaded models.Entity
	require.NoError(t, f.db.First(&reloaded, branch.ID).Error)
	assert.True(t, reloaded.IsDefault)
}

func TestEntityReassertDefaultIsNoop(t *testing.T) {
	f := newFixture(t)
	svc := NewEntities(f.db, testLogger())

	var def models.Entity
	require.NoError(t, f.db.Where("org_id = ? AND is_default = ?", f.org.ID, true).First(&def).Error)

	yes := true
	out, err := svc.Update(context.Background(), f.alice.ID, f.org.ID, def.ID, EntityUpdate{IsDefault: &yes})
	require.NoError(t, err)
	assert.True(t, out.IsDefault)
	assert.Equal(t, def.ID, out.ID)
}

func TestEntityUnsetDefaultRejected(t *testing.T) {
	f := newFixture(t)
	svc := NewEntities(f.db, testLogger())

	var def models.Entity
	require.NoError(t, f.db.Where("org_id = ? AND is_default = ?", f.org.ID, true).First(&def).Error)

	no := false
	_, err := svc.Update(context.Background(), f.alice.ID, f.org.ID, def.ID, EntityUpdate{IsDefault: &no})
	assert.True(t, apperr.IsKind(err, apperr.InvariantViolation))
}

func TestEntityDeleteSoleRejected(t *testing.T) {
	f := newFixture(t)
	svc := NewEntities(f.db, testLogger())

	var def models.Entity
	require.NoError(t, f.db.Where("org_id = ?", f.org.ID).First(&def).Error)

	err := svc.Delete(context.Background(), f.alice.ID, f.org.ID, def.ID)
	assert.True(t, apperr.IsKind(err, apperr.InvariantViolation))
}

func TestEntityDeleteDefaultPromotesOldest(t *testing.T) {
	f := newFixture(t)
	svc := NewEntities(f.db, testLogger())
	ctx := context.Background()

	second, err := svc.Create(ctx, f.alice.ID, f.org.ID, "Second", false)
	require.NoError(t, err)
	third, err := svc.Create(ctx, f.alice.ID, f.org.ID, "Third", false)
	require.NoError(t, err)

	var def models.Entity
	require.NoError(t, f.db.Where("org_id = ? AND is_default = ?", f.org.ID, true).First(&def).Error)

	require.NoError(t, svc.Delete(ctx, f.alice.ID, f.org.ID, def.ID))

	var promoted models.Entity
	require.NoError(t, f.db.Where("org_id = ? AND is_default = ?", f.org.ID, true).First(&promoted).Error)
	assert.Equal(t, second.ID, promoted.ID)

	var untouched models.Entity
	require.NoError(t, f.db.First(&untouched, third.ID).Error)
	assert.False(t, untouched.IsDefault)
}

func TestEntitySlugCollisionSuffix(t *testing.T) {
	f := newFixture(t)
	svc := NewEntities(f.db, testLogger())
	ctx := context.Background()

	a, err := svc.Create(ctx, f.alice.ID, f.org.ID, "West Branch", false)
	require.NoError(t, err)
	assert.Equal(t, "west-branch", a.Slug)

	b, err := svc.Create(ctx, f.alice.ID, f.org.ID, "West  Branch!", false)
	require.NoError(t, err)
	assert.Equal(t, "west-branch-1", b.Slug)
}

func TestEntityListNonBusinessEmpty(t *testing.T) {
	db := testDB(t)
	svc := NewEntities(db, testLogger())

	u := mkUser(t, db, "solo@x.test", "Solo")
	org := models.Organization{Name: "Solo", Slug: "solo", Type: models.OrgIndividual}
	require.NoError(t, db.Create(&org).Error)
	mkMember(t, db, u.ID, org.ID, models.RoleOwner)

	out, err := svc.List(context.Background(), u.ID, org.ID)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEntityCreateRequiresBusiness(t *testing.T) {
	db := testDB(t)
	svc := NewEntities(db, testLogger())

	u := mkUser(t, db, "solo@x.test", "Solo")
	org := models.Organization{Name: "Solo", Slug: "solo", Type: models.OrgIndividual}
	require.NoError(t, db.Create(&org).Error)
	mkMember(t, db, u.ID, org.ID, models.RoleOwner)

	_, err := svc.Create(context.Background(), u.ID, org.ID, "HQ", false)
	assert.True(t, apperr.IsKind(err, apperr.Validation))
}

func TestEntityMemberCannotMutate(t *testing.T) {
	f := newFixture(t)
	svc := NewEntities(f.db, testLogger())

	_, err := svc.Create(context.Background(), f.carol.ID, f.org.ID, "HQ", false)
	assert.True(t, apperr.IsKind(err, apperr.Forbidden))
}
