package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cybro8/TestOps-HealthCare-Project/db"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/apperrors"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/services"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/store"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type TestCasePayload map[string]interface{}

type SaveTestCasesRequest struct {
	TestCases []TestCasePayload `json:"test_cases"`
}

func testCaseStore() *store.TestCaseStore {
	return store.NewTestCaseStore(db.DB)
}

func respondStoreError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNoStore):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No test cases for this project yet"})
	case errors.Is(err, apperrors.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Test case not found"})
	default:
		log.Errorf("Test case store error: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func ListTestCases(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	testCases, err := testCaseStore().List(project.ID)

	if err != nil {
		if errors.Is(err, apperrors.ErrNoStore) {
			ctx.JSON(http.StatusOK, []models.TestCase{})
			return
		}
		respondStoreError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, testCases)
}

func CreateTestCase(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	var payload TestCasePayload

	if err := ctx.BindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	testCase, err := testCaseStore().Insert(project.ID, payload)

	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	BroadcastRefresh(fmt.Sprintf("%d", project.ID))
	ctx.JSON(http.StatusCreated, testCase)
}

func GetTestCase(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	testCase, err := testCaseStore().Get(project.ID, testCaseID)

	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, testCase)
}

func UpdateTestCase(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payload TestCasePayload

	if err := ctx.BindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	testCase, err := testCaseStore().Update(project.ID, testCaseID, payload)

	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	BroadcastRefresh(fmt.Sprintf("%d", project.ID))
	ctx.JSON(http.StatusOK, testCase)
}

func DeleteTestCase(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	testCaseID, err := utils.GetTestCaseID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := testCaseStore().Delete(project.ID, testCaseID); err != nil {
		respondStoreError(ctx, err)
		return
	}

	BroadcastRefresh(fmt.Sprintf("%d", project.ID))
	ctx.JSON(http.StatusOK, gin.H{"message": "Test case deleted"})
}

// SaveTestCases replaces the whole table with the edited set.
func SaveTestCases(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	var body SaveTestCasesRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	payloads := make([]map[string]interface{}, 0, len(body.TestCases))

	for _, payload := range body.TestCases {
		payloads = append(payloads, payload)
	}

	testCases, err := testCaseStore().ReplaceAll(project.ID, payloads)

	if err != nil {
		respondStoreError(ctx, err)
		return
	}

	BroadcastRefresh(fmt.Sprintf("%d", project.ID))
	ctx.JSON(http.StatusOK, testCases)
}

// ExportTestCases pushes the project's stored test cases to Azure DevOps and
// reports a per-record outcome. Partial upstream failure is not an error.
func ExportTestCases(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	testCases, err := testCaseStore().List(project.ID)

	if err != nil && !errors.Is(err, apperrors.ErrNoStore) {
		respondStoreError(ctx, err)
		return
	}

	report := services.ExportTestCases(*project, testCases)

	if report.Failed > 0 {
		log.Warnf("Export for project %d: %d deployed, %d failed", project.ID, report.Deployed, report.Failed)
	}

	ctx.JSON(http.StatusOK, report)
}
