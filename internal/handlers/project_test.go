package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cybro8/TestOps-HealthCare-Project/db"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/middleware"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/store"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHandlerTest(t *testing.T) *gorm.DB {
	t.Helper()

	gin.SetMode(gin.TestMode)

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, conn.AutoMigrate(&models.User{}, &models.Project{}, &models.ProjectUser{}, &models.ProjectFile{}))

	previous := db.DB
	db.DB = conn
	t.Cleanup(func() { db.DB = previous })

	return conn
}

func adminContext(t *testing.T, method string, body interface{}, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)

	var reader *bytes.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	ctx.Request = httptest.NewRequest(method, "/", reader)
	ctx.Request.Header.Set("Content-Type", "application/json")
	ctx.Params = params
	ctx.Set(types.ContextUserKey, middleware.AuthenticatedUser{ID: 999, Username: "root", Role: models.RoleAdmin})

	return ctx, recorder
}

func seedProject(t *testing.T, conn *gorm.DB, name string) models.Project {
	t.Helper()

	project := models.Project{Name: name, Organization: "org", AccessToken: "pat", APIVersion: "7.0"}
	require.NoError(t, conn.Create(&project).Error)

	return project
}

func seedUser(t *testing.T, conn *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{Username: username, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, conn.Create(&user).Error)

	return user
}

func userContext(t *testing.T, user models.User, method string, body interface{}, params ...gin.Param) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	ctx, recorder := adminContext(t, method, body, params...)
	ctx.Set(types.ContextUserKey, middleware.AuthenticatedUser{ID: user.ID, Username: user.Username, Role: user.Role})

	return ctx, recorder
}

func projectParam(project models.Project) gin.Param {
	return gin.Param{Key: "project_id", Value: jsonNumber(project.ID)}
}

func jsonNumber(id uint) string {
	raw, _ := json.Marshal(id)
	return string(raw)
}

func TestDeleteProjectCascades(t *testing.T) {
	conn := setupHandlerTest(t)

	project := seedProject(t, conn, "Alpha")
	user := seedUser(t, conn, "u1")

	_, err := store.NewAssignmentStore(conn).Assign(project.ID, user.ID, models.MemberRoleContributor)
	require.NoError(t, err)

	require.NoError(t, conn.Create(&models.ProjectFile{
		ProjectID: project.ID,
		Filename:  "requirements.md",
		Path:      "uploads/project_1/requirements.md",
	}).Error)

	testCaseStore := store.NewTestCaseStore(conn)
	_, err = testCaseStore.Insert(project.ID, map[string]interface{}{"title": "tc"})
	require.NoError(t, err)

	ctx, recorder := adminContext(t, http.MethodDelete, nil, projectParam(project))
	DeleteProject(ctx)

	require.Equal(t, http.StatusOK, recorder.Code)

	var projectCount, assignmentCount, fileCount int64
	require.NoError(t, conn.Model(&models.Project{}).Count(&projectCount).Error)
	require.NoError(t, conn.Model(&models.ProjectUser{}).Count(&assignmentCount).Error)
	require.NoError(t, conn.Model(&models.ProjectFile{}).Count(&fileCount).Error)

	assert.Zero(t, projectCount)
	assert.Zero(t, assignmentCount)
	assert.Zero(t, fileCount)
	assert.False(t, conn.Migrator().HasTable(store.TableName(project.ID)))
}

func TestBatchAssignReportsConflictingUsers(t *testing.T) {
	conn := setupHandlerTest(t)

	alpha := seedProject(t, conn, "Alpha")
	beta := seedProject(t, conn, "Beta")
	u1 := seedUser(t, conn, "u1")
	u2 := seedUser(t, conn, "u2")

	_, err := store.NewAssignmentStore(conn).Assign(alpha.ID, u1.ID, models.MemberRoleContributor)
	require.NoError(t, err)

	ctx, recorder := adminContext(t, http.MethodPost, BatchAssignRequest{
		UserIDs: []uint{u1.ID, u2.ID},
	}, projectParam(beta))
	BatchAssign(ctx)

	require.Equal(t, http.StatusConflict, recorder.Code)

	var body struct {
		Error            string `json:"error"`
		ConflictingUsers []uint `json:"conflicting_users"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Contains(t, body.ConflictingUsers, u1.ID)

	members, err := store.NewAssignmentStore(conn).ListMembers(beta.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestBatchAssignReportsMissingUsers(t *testing.T) {
	conn := setupHandlerTest(t)

	alpha := seedProject(t, conn, "Alpha")
	u1 := seedUser(t, conn, "u1")

	ctx, recorder := adminContext(t, http.MethodPost, BatchAssignRequest{
		UserIDs: []uint{u1.ID, 4242},
	}, projectParam(alpha))
	BatchAssign(ctx)

	require.Equal(t, http.StatusNotFound, recorder.Code)

	var body struct {
		Error        string `json:"error"`
		MissingUsers []uint `json:"missing_users"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, []uint{4242}, body.MissingUsers)

	// Nothing was inserted, the valid id included
	members, err := store.NewAssignmentStore(conn).ListMembers(alpha.ID)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestCreateProjectRejectsDuplicateName(t *testing.T) {
	conn := setupHandlerTest(t)
	seedProject(t, conn, "Alpha")

	ctx, recorder := adminContext(t, http.MethodPost, CreateProjectRequest{
		Name:         "Alpha",
		Organization: "org",
		AccessToken:  "pat",
	})
	CreateProject(ctx)

	assert.Equal(t, http.StatusConflict, recorder.Code)
}

func TestListTestCasesBeforeFirstWriteIsEmpty(t *testing.T) {
	conn := setupHandlerTest(t)
	project := seedProject(t, conn, "Alpha")

	ctx, recorder := adminContext(t, http.MethodGet, nil, projectParam(project))
	ListTestCases(ctx)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, "[]", recorder.Body.String())
}

func TestGetTestCaseNotFound(t *testing.T) {
	conn := setupHandlerTest(t)
	project := seedProject(t, conn, "Alpha")

	_, err := store.NewTestCaseStore(conn).Insert(project.ID, map[string]interface{}{"title": "only one"})
	require.NoError(t, err)

	ctx, recorder := adminContext(t, http.MethodGet, nil,
		projectParam(project),
		gin.Param{Key: "testcase_id", Value: "9999"},
	)
	GetTestCase(ctx)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestUpdateTestCasePartialMerge(t *testing.T) {
	conn := setupHandlerTest(t)
	project := seedProject(t, conn, "Alpha")

	inserted, err := store.NewTestCaseStore(conn).Insert(project.ID, map[string]interface{}{
		"title":    "keep me",
		"priority": "Low",
	})
	require.NoError(t, err)

	ctx, recorder := adminContext(t, http.MethodPut, TestCasePayload{"priority": "High"},
		projectParam(project),
		gin.Param{Key: "testcase_id", Value: jsonNumber(inserted.ID)},
	)
	UpdateTestCase(ctx)

	require.Equal(t, http.StatusOK, recorder.Code)

	updated, err := store.NewTestCaseStore(conn).Get(project.ID, inserted.ID)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(updated.Payload, &payload))
	assert.Equal(t, "keep me", payload["title"])
	assert.Equal(t, "High", payload["priority"])
}
