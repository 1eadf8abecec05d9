package handlers

import (
	"errors"
	"net/http"

	"github.com/cybro8/TestOps-HealthCare-Project/db"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/apperrors"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/store"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type AssignUserRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

type BatchAssignRequest struct {
	UserIDs []uint `json:"user_ids"`
}

type AssignmentResponse struct {
	ID        uint   `json:"id"`
	ProjectID uint   `json:"project_id"`
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
}

func respondConflict(ctx *gin.Context, err error) bool {
	var conflict *apperrors.ConflictError

	if errors.As(err, &conflict) {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":             conflict.Message,
			"conflicting_users": conflict.UserIDs,
		})
		return true
	}

	return false
}

func ListProjectUsers(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	members, err := store.NewAssignmentStore(db.DB).ListMembers(project.ID)

	if err != nil {
		log.Errorf("Failed to list project members: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project members"})
		return
	}

	response := make([]AssignmentResponse, 0, len(members))

	for _, member := range members {
		response = append(response, AssignmentResponse{
			ID:        member.ID,
			ProjectID: member.ProjectID,
			UserID:    member.UserID,
			Role:      member.Role,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func AssignUser(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	var body AssignUserRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	if err := db.DB.First(&user, body.UserID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	assignment, err := store.NewAssignmentStore(db.DB).Assign(project.ID, body.UserID, body.Role)

	if err != nil {
		if respondConflict(ctx, err) {
			return
		}
		log.Errorf("Failed to assign user %d to project %d: %v", body.UserID, project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign user"})
		return
	}

	ctx.JSON(http.StatusCreated, AssignmentResponse{
		ID:        assignment.ID,
		ProjectID: assignment.ProjectID,
		UserID:    assignment.UserID,
		Role:      assignment.Role,
	})
}

// BatchAssign replaces the project's membership with the given user list.
func BatchAssign(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	var body BatchAssignRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	assignmentStore := store.NewAssignmentStore(db.DB)

	if err := assignmentStore.BatchReplace(project.ID, body.UserIDs); err != nil {
		if respondConflict(ctx, err) {
			return
		}

		var missing *apperrors.MissingUsersError

		if errors.As(err, &missing) {
			ctx.JSON(http.StatusNotFound, gin.H{
				"error":         "Users not found",
				"missing_users": missing.UserIDs,
			})
			return
		}
		log.Errorf("Failed to replace members of project %d: %v", project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update assignments"})
		return
	}

	members, err := assignmentStore.ListMembers(project.ID)

	if err != nil {
		log.Errorf("Failed to list project members: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project members"})
		return
	}

	response := make([]AssignmentResponse, 0, len(members))

	for _, member := range members {
		response = append(response, AssignmentResponse{
			ID:        member.ID,
			ProjectID: member.ProjectID,
			UserID:    member.UserID,
			Role:      member.Role,
		})
	}

	ctx.JSON(http.StatusOK, response)
}

func RemoveUser(ctx *gin.Context) {
	project, ok := loadProject(ctx)

	if !ok {
		return
	}

	userID, err := utils.GetUserIDParam(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := store.NewAssignmentStore(db.DB).Remove(project.ID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found"})
			return
		}
		log.Errorf("Failed to remove user %d from project %d: %v", userID, project.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove user"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User removed from project"})
}
