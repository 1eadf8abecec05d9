package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cybro8/TestOps-HealthCare-Project/db"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type ProjectFileResponse struct {
	ID         uint      `json:"id"`
	Filename   string    `json:"filename"`
	Path       string    `json:"filepath"`
	UploadedAt time.Time `json:"uploaded_at"`
}

func uploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

// UploadFile stores the document under a project-scoped directory and
// records it for later text extraction.
func UploadFile(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	file, err := ctx.FormFile("file")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	dir := filepath.Join(uploadDir(), fmt.Sprintf("project_%d", project.ID))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Errorf("Failed to create upload directory: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	filename := filepath.Base(file.Filename)
	path := filepath.Join(dir, filename)

	if err := ctx.SaveUploadedFile(file, path); err != nil {
		log.Errorf("Failed to save uploaded file: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	projectFile := models.ProjectFile{
		ProjectID:  project.ID,
		Filename:   filename,
		Path:       path,
		UploadedAt: time.Now(),
	}

	if err := db.DB.Create(&projectFile).Error; err != nil {
		log.Errorf("Failed to record uploaded file: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	ctx.JSON(http.StatusCreated, ProjectFileResponse{
		ID:         projectFile.ID,
		Filename:   projectFile.Filename,
		Path:       projectFile.Path,
		UploadedAt: projectFile.UploadedAt,
	})
}

func ListFiles(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	if !requireProjectAccess(ctx, project.ID) {
		return
	}

	var files []models.ProjectFile

	if err := db.DB.Where("project_id = ?", project.ID).Order("uploaded_at DESC").Find(&files).Error; err != nil {
		log.Errorf("Failed to list project files: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve files"})
		return
	}

	response := make([]ProjectFileResponse, 0, len(files))

	for _, file := range files {
		response = append(response, ProjectFileResponse{
			ID:         file.ID,
			Filename:   file.Filename,
			Path:       file.Path,
			UploadedAt: file.UploadedAt,
		})
	}

	ctx.JSON(http.StatusOK, response)
}
