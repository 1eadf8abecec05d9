package handlers

import (
	"errors"
	"net/http"

	"github.com/cybro8/TestOps-HealthCare-Project/db"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/store"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name          string `json:"name" binding:"required"`
	Organization  string `json:"organization" binding:"required"`
	AccessToken   string `json:"pat" binding:"required"`
	IterationPath string `json:"iteration_path"`
	AreaPath      string `json:"area_path"`
	APIVersion    string `json:"api_version"`
	Description   string `json:"description"`
}

type UpdateProjectRequest struct {
	Name          string `json:"name"`
	Organization  string `json:"organization"`
	AccessToken   string `json:"pat"`
	IterationPath string `json:"iteration_path"`
	AreaPath      string `json:"area_path"`
	APIVersion    string `json:"api_version"`
	Description   string `json:"description"`
}

type ProjectResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Organization  string `json:"organization"`
	IterationPath string `json:"iteration_path"`
	AreaPath      string `json:"area_path"`
	APIVersion    string `json:"api_version"`
	Description   string `json:"description"`
}

func projectResponse(project models.Project) ProjectResponse {
	return ProjectResponse{
		ID:            project.ID,
		Name:          project.Name,
		Organization:  project.Organization,
		IterationPath: project.IterationPath,
		AreaPath:      project.AreaPath,
		APIVersion:    project.APIVersion,
		Description:   project.Description,
	}
}

// loadProject fetches the project from the path parameter, writing the error
// response itself when it fails.
func loadProject(ctx *gin.Context) (*models.Project, bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return nil, false
	}

	return &project, true
}

// requireProjectAccess verifies the caller may act on the project: admins
// always, other users only on the project they are assigned to.
func requireProjectAccess(ctx *gin.Context, projectID uint) bool {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return false
	}

	if currentUser.Role == models.RoleAdmin {
		return true
	}

	assignment, err := store.NewAssignmentStore(db.DB).ListForUser(currentUser.ID)

	if err != nil || assignment.ProjectID != projectID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not assigned to this project"})
		return false
	}

	return true
}

func CreateProject(ctx *gin.Context) {
	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var existing models.Project

	err := db.DB.Where("name = ?", body.Name).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Project name already exists"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("Database error when checking existing project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	apiVersion := body.APIVersion

	if apiVersion == "" {
		apiVersion = "7.0"
	}

	project := models.Project{
		Name:          body.Name,
		Organization:  body.Organization,
		AccessToken:   body.AccessToken,
		IterationPath: body.IterationPath,
		AreaPath:      body.AreaPath,
		APIVersion:    apiVersion,
		Description:   body.Description,
	}

	if err := db.DB.Create(&project).Error; err != nil {
		log.Errorf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusCreated, projectResponse(project))
}

func ListProjects(ctx *gin.Context) {
	var projects []models.Project

	if err := db.DB.Order("id").Find(&projects).Error; err != nil {
		log.Errorf("Failed to list projects: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	response := make([]ProjectResponse, 0, len(projects))

	for _, project := range projects {
		response = append(response, projectResponse(project))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetProject(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(*project))
}

// MyProject returns the project the calling user is assigned to.
func MyProject(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	assignment, err := store.NewAssignmentStore(db.DB).ListForUser(currentUser.ID)

	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No project assigned"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, assignment.ProjectID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(project))
}

func UpdateProject(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	var body UpdateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if body.Name != "" {
		updates["name"] = body.Name
	}
	if body.Organization != "" {
		updates["organization"] = body.Organization
	}
	if body.AccessToken != "" {
		updates["access_token"] = body.AccessToken
	}
	if body.IterationPath != "" {
		updates["iteration_path"] = body.IterationPath
	}
	if body.AreaPath != "" {
		updates["area_path"] = body.AreaPath
	}
	if body.APIVersion != "" {
		updates["api_version"] = body.APIVersion
	}
	if body.Description != "" {
		updates["description"] = body.Description
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(project).Updates(updates).Error; err != nil {
		log.Errorf("Failed to update project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	ctx.JSON(http.StatusOK, projectResponse(*project))
}

// DeleteProject removes the project and everything it owns: assignments,
// file rows, and its test-case table.
func DeleteProject(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	testCaseStore := store.NewTestCaseStore(db.DB)

	if err := testCaseStore.DropTable(project.ID); err != nil {
		log.Errorf("Failed to drop test case table for project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	if err := db.DB.Unscoped().Where("project_id = ?", project.ID).Delete(&models.ProjectUser{}).Error; err != nil {
		log.Errorf("Failed to delete project assignments: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	if err := db.DB.Unscoped().Where("project_id = ?", project.ID).Delete(&models.ProjectFile{}).Error; err != nil {
		log.Errorf("Failed to delete project files: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	if err := db.DB.Unscoped().Delete(project).Error; err != nil {
		log.Errorf("Failed to delete project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}
