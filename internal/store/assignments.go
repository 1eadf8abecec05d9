package store

import (
	"errors"
	"sort"

	"github.com/cybro8/TestOps-HealthCare-Project/internal/apperrors"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"gorm.io/gorm"
)

// AssignmentStore enforces the one-project-per-user rule over the
// project_users table.
type AssignmentStore struct {
	db *gorm.DB
}

func NewAssignmentStore(db *gorm.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

// Assign adds the user to the project. Assigning into the project the user
// already belongs to is a no-op; assigning into a different one is a
// conflict and requires an explicit removal (or a batch replace) first.
func (s *AssignmentStore) Assign(projectID uint, userID uint, role string) (*models.ProjectUser, error) {
	var existing models.ProjectUser

	err := s.db.Where("user_id = ?", userID).First(&existing).Error

	if err == nil {
		if existing.ProjectID == projectID {
			return &existing, nil
		}
		return nil, &apperrors.ConflictError{
			Message: "user already assigned to another project",
			UserIDs: []uint{userID},
		}
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if role == "" {
		role = models.MemberRoleContributor
	}

	assignment := models.ProjectUser{
		ProjectID: projectID,
		UserID:    userID,
		Role:      role,
	}

	if err := s.db.Create(&assignment).Error; err != nil {
		return nil, err
	}

	return &assignment, nil
}

// BatchReplace makes the given user ids the exact membership of the project.
// Every requested id is validated before any row is touched: ids with no
// users row behind them fail the batch as not found, ids belonging to a
// different project fail it as a conflict, and nothing is mutated either way.
func (s *AssignmentStore) BatchReplace(projectID uint, userIDs []uint) error {
	requested := make(map[uint]bool, len(userIDs))

	for _, id := range userIDs {
		requested[id] = true
	}

	var conflicting []uint

	if len(userIDs) > 0 {
		var users []models.User

		if err := s.db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
			return err
		}

		known := make(map[uint]bool, len(users))

		for _, user := range users {
			known[user.ID] = true
		}

		var missing []uint

		for id := range requested {
			if !known[id] {
				missing = append(missing, id)
			}
		}

		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })

		if len(missing) > 0 {
			return &apperrors.MissingUsersError{UserIDs: missing}
		}

		var elsewhere []models.ProjectUser

		err := s.db.Where("user_id IN ? AND project_id <> ?", userIDs, projectID).Find(&elsewhere).Error

		if err != nil {
			return err
		}

		for _, assignment := range elsewhere {
			conflicting = append(conflicting, assignment.UserID)
		}
	}

	if len(conflicting) > 0 {
		return &apperrors.ConflictError{
			Message: "users already assigned to another project",
			UserIDs: conflicting,
		}
	}

	var current []models.ProjectUser

	if err := s.db.Where("project_id = ?", projectID).Find(&current).Error; err != nil {
		return err
	}

	currentIDs := make(map[uint]bool, len(current))

	for _, assignment := range current {
		currentIDs[assignment.UserID] = true
	}

	// Apply the symmetric difference in one transaction.
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, assignment := range current {
			if !requested[assignment.UserID] {
				if err := tx.Unscoped().Delete(&models.ProjectUser{}, assignment.ID).Error; err != nil {
					return err
				}
			}
		}

		for _, userID := range userIDs {
			if currentIDs[userID] {
				continue
			}

			assignment := models.ProjectUser{
				ProjectID: projectID,
				UserID:    userID,
				Role:      models.MemberRoleContributor,
			}

			if err := tx.Create(&assignment).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Remove deletes the membership row. Removing a user who is not a member is
// reported as not found.
func (s *AssignmentStore) Remove(projectID uint, userID uint) error {
	result := s.db.Unscoped().Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectUser{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (s *AssignmentStore) ListMembers(projectID uint) ([]models.ProjectUser, error) {
	var members []models.ProjectUser

	if err := s.db.Where("project_id = ?", projectID).Order("user_id").Find(&members).Error; err != nil {
		return nil, err
	}

	return members, nil
}

// ListForUser returns the user's single assignment, or ErrNotFound when the
// user belongs to no project.
func (s *AssignmentStore) ListForUser(userID uint) (*models.ProjectUser, error) {
	var assignment models.ProjectUser

	err := s.db.Where("user_id = ?", userID).First(&assignment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return &assignment, nil
}
