package store

import (
	"encoding/json"
	"testing"

	"github.com/cybro8/TestOps-HealthCare-Project/internal/apperrors"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.Project{}, &models.ProjectUser{}, &models.ProjectFile{}))

	return conn
}

func payloadOf(t *testing.T, testCase *models.TestCase) map[string]interface{} {
	t.Helper()

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(testCase.Payload, &payload))

	return payload
}

func TestInsertGetRoundTrip(t *testing.T) {
	store := NewTestCaseStore(newTestDB(t))

	inserted, err := store.Insert(7, map[string]interface{}{
		"title":           "Verify patient login",
		"description":     "Patient can log in with valid credentials",
		"steps":           "1. Open app 2. Enter credentials 3. Submit",
		"expected_result": "Dashboard is shown",
		"priority":        "High",
	})
	require.NoError(t, err)
	require.NotZero(t, inserted.ID)

	fetched, err := store.Get(7, inserted.ID)
	require.NoError(t, err)

	payload := payloadOf(t, fetched)
	assert.Equal(t, "Verify patient login", payload["title"])
	assert.Equal(t, "High", payload["priority"])
	assert.Equal(t, "Dashboard is shown", payload["expected_result"])
}

func TestListBeforeFirstWriteReportsNoStore(t *testing.T) {
	store := NewTestCaseStore(newTestDB(t))

	_, err := store.List(42)
	assert.ErrorIs(t, err, apperrors.ErrNoStore)

	_, err = store.Get(42, 1)
	assert.ErrorIs(t, err, apperrors.ErrNoStore)
}

func TestInsertLazilyCreatesTable(t *testing.T) {
	conn := newTestDB(t)
	store := NewTestCaseStore(conn)

	assert.False(t, conn.Migrator().HasTable(TableName(3)))

	_, err := store.Insert(3, map[string]interface{}{"title": "first"})
	require.NoError(t, err)

	assert.True(t, conn.Migrator().HasTable("testcases_project_3"))
}

func TestEnsureTableIdempotent(t *testing.T) {
	store := NewTestCaseStore(newTestDB(t))

	require.NoError(t, store.EnsureTable(9))
	require.NoError(t, store.EnsureTable(9))

	testCases, err := store.List(9)
	require.NoError(t, err)
	assert.Empty(t, testCases)
}

func TestUpdatePartialMergePreservesAbsentFields(t *testing.T) {
	store := NewTestCaseStore(newTestDB(t))

	inserted, err := store.Insert(1, map[string]interface{}{
		"title":    "Original title",
		"steps":    "Original steps",
		"priority": "Low",
	})
	require.NoError(t, err)

	updated, err := store.Update(1, inserted.ID, map[string]interface{}{
		"priority": "High",
	})
	require.NoError(t, err)

	payload := payloadOf(t, updated)
	assert.Equal(t, "High", payload["priority"])
	assert.Equal(t, "Original title", payload["title"])
	assert.Equal(t, "Original steps", payload["steps"])

	fetched, err := store.Get(1, inserted.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original title", payloadOf(t, fetched)["title"])
}

func TestProjectsDoNotShareTables(t *testing.T) {
	store := NewTestCaseStore(newTestDB(t))

	_, err := store.Insert(1, map[string]interface{}{"title": "for project one"})
	require.NoError(t, err)

	_, err = store.Insert(2, map[string]interface{}{"title": "for project two"})
	require.NoError(t, err)

	first, err := store.List(1)
	require.NoError(t, err)
	second, err := store.List(2)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "for project one", payloadOf(t, &first[0])["title"])
	assert.Equal(t, "for project two", payloadOf(t, &second[0])["title"])
}

func TestDeleteReportsNotFound(t *testing.T) {
	store := NewTestCaseStore(newTestDB(t))

	inserted, err := store.Insert(5, map[string]interface{}{"title": "to delete"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(5, inserted.ID))
	assert.ErrorIs(t, store.Delete(5, inserted.ID), apperrors.ErrNotFound)

	_, err = store.Get(5, inserted.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestReplaceAllRewritesTable(t *testing.T) {
	store := NewTestCaseStore(newTestDB(t))

	_, err := store.Insert(4, map[string]interface{}{"title": "old"})
	require.NoError(t, err)

	replaced, err := store.ReplaceAll(4, []map[string]interface{}{
		{"title": "new one"},
		{"title": "new two"},
	})
	require.NoError(t, err)
	require.Len(t, replaced, 2)

	testCases, err := store.List(4)
	require.NoError(t, err)
	require.Len(t, testCases, 2)
	assert.Equal(t, "new one", payloadOf(t, &testCases[0])["title"])
	assert.Equal(t, "new two", payloadOf(t, &testCases[1])["title"])
}

func TestDropTable(t *testing.T) {
	conn := newTestDB(t)
	store := NewTestCaseStore(conn)

	_, err := store.Insert(6, map[string]interface{}{"title": "doomed"})
	require.NoError(t, err)

	require.NoError(t, store.DropTable(6))
	assert.False(t, conn.Migrator().HasTable(TableName(6)))

	// Dropping again is a no-op
	require.NoError(t, store.DropTable(6))

	_, err = store.List(6)
	assert.ErrorIs(t, err, apperrors.ErrNoStore)
}
