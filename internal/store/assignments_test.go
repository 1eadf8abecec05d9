package store

import (
	"testing"

	"github.com/cybro8/TestOps-HealthCare-Project/internal/apperrors"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedProjectsAndUsers(t *testing.T, conn *gorm.DB) (alpha models.Project, beta models.Project, u1 models.User, u2 models.User) {
	t.Helper()

	alpha = models.Project{Name: "Alpha", Organization: "org", AccessToken: "pat"}
	beta = models.Project{Name: "Beta", Organization: "org", AccessToken: "pat"}
	require.NoError(t, conn.Create(&alpha).Error)
	require.NoError(t, conn.Create(&beta).Error)

	u1 = models.User{Username: "u1", PasswordHash: "x", Role: models.RoleUser}
	u2 = models.User{Username: "u2", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, conn.Create(&u1).Error)
	require.NoError(t, conn.Create(&u2).Error)

	return alpha, beta, u1, u2
}

func assignmentCount(t *testing.T, conn *gorm.DB, userID uint) int64 {
	t.Helper()

	var count int64
	require.NoError(t, conn.Model(&models.ProjectUser{}).Where("user_id = ?", userID).Count(&count).Error)

	return count
}

func TestAssignConflictsAcrossProjects(t *testing.T) {
	conn := newTestDB(t)
	store := NewAssignmentStore(conn)
	alpha, beta, u1, _ := seedProjectsAndUsers(t, conn)

	_, err := store.Assign(alpha.ID, u1.ID, models.MemberRoleContributor)
	require.NoError(t, err)

	// Same project again is idempotent
	again, err := store.Assign(alpha.ID, u1.ID, models.MemberRoleContributor)
	require.NoError(t, err)
	assert.Equal(t, alpha.ID, again.ProjectID)

	// A different project is a conflict naming the user
	_, err = store.Assign(beta.ID, u1.ID, models.MemberRoleContributor)
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint{u1.ID}, conflict.UserIDs)

	assert.EqualValues(t, 1, assignmentCount(t, conn, u1.ID))
}

func TestBatchReplaceIsAllOrNothing(t *testing.T) {
	conn := newTestDB(t)
	store := NewAssignmentStore(conn)
	alpha, beta, u1, u2 := seedProjectsAndUsers(t, conn)

	_, err := store.Assign(alpha.ID, u1.ID, models.MemberRoleContributor)
	require.NoError(t, err)

	// u1 belongs to Alpha, so replacing Beta's members with [u1, u2] must
	// fail wholesale and leave Beta untouched.
	err = store.BatchReplace(beta.ID, []uint{u1.ID, u2.ID})
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.UserIDs, u1.ID)

	members, err := store.ListMembers(beta.ID)
	require.NoError(t, err)
	assert.Empty(t, members)

	// u2 was not inserted either, despite being conflict-free
	assert.EqualValues(t, 0, assignmentCount(t, conn, u2.ID))
}

func TestBatchReplaceRejectsUnknownUsers(t *testing.T) {
	conn := newTestDB(t)
	store := NewAssignmentStore(conn)
	alpha, _, u1, _ := seedProjectsAndUsers(t, conn)

	require.NoError(t, store.BatchReplace(alpha.ID, []uint{u1.ID}))

	// An id with no users row fails the whole batch, naming the id, and
	// no ghost membership is created for it.
	err := store.BatchReplace(alpha.ID, []uint{u1.ID, 4242})
	var missing *apperrors.MissingUsersError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []uint{4242}, missing.UserIDs)

	members, err := store.ListMembers(alpha.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, u1.ID, members[0].UserID)
	assert.EqualValues(t, 0, assignmentCount(t, conn, 4242))
}

func TestBatchReplaceComputesSymmetricDifference(t *testing.T) {
	conn := newTestDB(t)
	store := NewAssignmentStore(conn)
	alpha, _, u1, u2 := seedProjectsAndUsers(t, conn)

	u3 := models.User{Username: "u3", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, conn.Create(&u3).Error)

	require.NoError(t, store.BatchReplace(alpha.ID, []uint{u1.ID, u2.ID}))
	require.NoError(t, store.BatchReplace(alpha.ID, []uint{u2.ID, u3.ID}))

	members, err := store.ListMembers(alpha.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, u2.ID, members[0].UserID)
	assert.Equal(t, u3.ID, members[1].UserID)

	assert.EqualValues(t, 0, assignmentCount(t, conn, u1.ID))
}

func TestBatchReplaceEmptyClearsMembership(t *testing.T) {
	conn := newTestDB(t)
	store := NewAssignmentStore(conn)
	alpha, _, u1, u2 := seedProjectsAndUsers(t, conn)

	require.NoError(t, store.BatchReplace(alpha.ID, []uint{u1.ID, u2.ID}))
	require.NoError(t, store.BatchReplace(alpha.ID, nil))

	members, err := store.ListMembers(alpha.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestRemoveAndListForUser(t *testing.T) {
	conn := newTestDB(t)
	store := NewAssignmentStore(conn)
	alpha, beta, u1, _ := seedProjectsAndUsers(t, conn)

	_, err := store.Assign(alpha.ID, u1.ID, models.MemberRoleReader)
	require.NoError(t, err)

	assignment, err := store.ListForUser(u1.ID)
	require.NoError(t, err)
	assert.Equal(t, alpha.ID, assignment.ProjectID)
	assert.Equal(t, models.MemberRoleReader, assignment.Role)

	require.NoError(t, store.Remove(alpha.ID, u1.ID))
	assert.ErrorIs(t, store.Remove(alpha.ID, u1.ID), apperrors.ErrNotFound)

	_, err = store.ListForUser(u1.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// After removal the user can join another project
	_, err = store.Assign(beta.ID, u1.ID, models.MemberRoleContributor)
	require.NoError(t, err)
}

// Mirrors the Alpha/Beta walkthrough: assignment into a second project
// conflicts, batch replace into the current one succeeds.
func TestAssignmentScenario(t *testing.T) {
	conn := newTestDB(t)
	store := NewAssignmentStore(conn)
	alpha, beta, u1, u2 := seedProjectsAndUsers(t, conn)

	_, err := store.Assign(alpha.ID, u1.ID, models.MemberRoleContributor)
	require.NoError(t, err)

	_, err = store.Assign(beta.ID, u1.ID, models.MemberRoleContributor)
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []uint{u1.ID}, conflict.UserIDs)

	require.NoError(t, store.BatchReplace(alpha.ID, []uint{u1.ID, u2.ID}))

	members, err := store.ListMembers(alpha.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	memberIDs := []uint{members[0].UserID, members[1].UserID}
	assert.ElementsMatch(t, []uint{u1.ID, u2.ID}, memberIDs)

	// Invariant: no user holds more than one assignment row
	for _, userID := range []uint{u1.ID, u2.ID} {
		assert.LessOrEqual(t, assignmentCount(t, conn, userID), int64(1))
	}
}
