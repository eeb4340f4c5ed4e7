package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filecrate/filecrate/internal/models"
	"github.com/filecrate/filecrate/internal/permissions"
	"github.com/filecrate/filecrate/internal/store"
)

func TestGrantService_SetGrantStoresExactLevel(t *testing.T) {
	db := setupTestDB(t)
	service := newTestGrantService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "alice")
	target := createTestUser(t, db, "bob")
	file := createTestFile(t, db, owner.ID)

	grants, err := service.SetGrant(ctx, owner.ID, file.ID, target.ID, permissions.LevelWrite)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, target.ID, grants[0].UserID)
	require.Equal(t, "bob", grants[0].Username)
	require.Equal(t, "write", grants[0].Level)

	// Downgrading replaces the row instead of accumulating levels.
	grants, err = service.SetGrant(ctx, owner.ID, file.ID, target.ID, permissions.LevelRead)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, "read", grants[0].Level)
}

func TestGrantService_SetGrantIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	service := newTestGrantService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "alice")
	target := createTestUser(t, db, "bob")
	file := createTestFile(t, db, owner.ID)

	for i := 0; i < 3; i++ {
		grants, err := service.SetGrant(ctx, owner.ID, file.ID, target.ID, permissions.LevelDelete)
		require.NoError(t, err)
		require.Len(t, grants, 1)
		require.Equal(t, "delete", grants[0].Level)
	}

	var count int64
	require.NoError(t, db.Model(&models.FileGrant{}).Where("file_id = ?", file.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGrantService_SetGrantNoneRemovesRow(t *testing.T) {
	db := setupTestDB(t)
	service := newTestGrantService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "alice")
	target := createTestUser(t, db, "bob")
	file := createTestFile(t, db, owner.ID)

	_, err := service.SetGrant(ctx, owner.ID, file.ID, target.ID, permissions.LevelRead)
	require.NoError(t, err)

	grants, err := service.SetGrant(ctx, owner.ID, file.ID, target.ID, permissions.LevelNone)
	require.NoError(t, err)
	require.Empty(t, grants)

	// Removing an absent grant stays a success.
	grants, err = service.SetGrant(ctx, owner.ID, file.ID, target.ID, permissions.LevelNone)
	require.NoError(t, err)
	require.Empty(t, grants)
}

func TestGrantService_SetGrantForOwnerIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	service := newTestGrantService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "alice")
	file := createTestFile(t, db, owner.ID)

	grants, err := service.SetGrant(ctx, owner.ID, file.ID, owner.ID, permissions.LevelRead)
	require.NoError(t, err)
	require.Empty(t, grants, "owner must never receive a grant row")
}

func TestGrantService_MutationsAreOwnerGated(t *testing.T) {
	db := setupTestDB(t)
	service := newTestGrantService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "alice")
	holder := createTestUser(t, db, "bob")
	other := createTestUser(t, db, "carol")
	file := createTestFile(t, db, owner.ID)

	// Even a delete-level grant does not confer grant management rights.
	_, err := service.SetGrant(ctx, owner.ID, file.ID, holder.ID, permissions.LevelDelete)
	require.NoError(t, err)

	_, err = service.SetGrant(ctx, holder.ID, file.ID, other.ID, permissions.LevelRead)
	requireAppErrorCode(t, err, "FORBIDDEN")

	err = service.RevokeGrant(ctx, holder.ID, file.ID, holder.ID)
	requireAppErrorCode(t, err, "FORBIDDEN")

	_, err = service.ListGrants(ctx, holder.ID, file.ID)
	requireAppErrorCode(t, err, "FORBIDDEN")
}

func TestGrantService_MissingFileIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	service := newTestGrantService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "alice")
	target := createTestUser(t, db, "bob")

	_, err := service.SetGrant(ctx, owner.ID, "missing-file", target.ID, permissions.LevelRead)
	requireAppErrorCode(t, err, "NOT_FOUND")
}

func TestGrantService_UnknownTargetIsRejected(t *testing.T) {
	db := setupTestDB(t)
	service := newTestGrantService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "alice")
	file := createTestFile(t, db, owner.ID)

	_, err := service.SetGrant(ctx, owner.ID, file.ID, "no-such-user", permissions.LevelRead)
	requireAppErrorCode(t, err, "BAD_REQUEST")
}

func TestGrantService_RevokeThenEvaluateDenies(t *testing.T) {
	db := setupTestDB(t)
	service := newTestGrantService(t, db)
	ctx := context.Background()

	owner := createTestUser(t, db, "alice")
	target := createTestUser(t, db, "bob")
	file := createTestFile(t, db, owner.ID)

	_, err := service.SetGrant(ctx, owner.ID, file.ID, target.ID, permissions.LevelWrite)
	require.NoError(t, err)
	require.NoError(t, service.RevokeGrant(ctx, owner.ID, file.ID, target.ID))

	resources, err := store.NewResourceStore(db)
	require.NoError(t, err)
	grantStore, err := store.NewGrantStore(db)
	require.NoError(t, err)
	evaluator, err := permissions.NewEvaluator(resources, grantStore)
	require.NoError(t, err)

	decision, err := evaluator.Evaluate(ctx, target.ID, file.ID, permissions.LevelRead)
	require.NoError(t, err)
	require.False(t, decision.Allowed)
	require.Equal(t, permissions.ReasonNoGrant, decision.Reason)
}

func TestGrantService_UnauthenticatedActor(t *testing.T) {
	db := setupTestDB(t)
	service := newTestGrantService(t, db)

	owner := createTestUser(t, db, "alice")
	file := createTestFile(t, db, owner.ID)

	_, err := service.ListGrants(context.Background(), "", file.ID)
	requireAppErrorCode(t, err, "UNAUTHORIZED")
}
