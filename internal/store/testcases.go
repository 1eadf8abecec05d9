package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cybro8/TestOps-HealthCare-Project/internal/apperrors"
	"github.com/cybro8/TestOps-HealthCare-Project/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TestCaseStore persists test-case records in one table per project
// (testcases_project_<id>), so tenants never share a table.
type TestCaseStore struct {
	db *gorm.DB
}

func NewTestCaseStore(db *gorm.DB) *TestCaseStore {
	return &TestCaseStore{db: db}
}

func TableName(projectID uint) string {
	return fmt.Sprintf("testcases_project_%d", projectID)
}

// EnsureTable creates the project's table if absent. Safe to call repeatedly
// and concurrently: a lost create race surfaces as "already exists", which is
// treated the same as finding the table up front.
func (s *TestCaseStore) EnsureTable(projectID uint) error {
	table := TableName(projectID)

	if s.db.Migrator().HasTable(table) {
		return nil
	}

	err := s.db.Table(table).AutoMigrate(&models.TestCase{})

	if err != nil && strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return nil
	}

	return err
}

func (s *TestCaseStore) hasTable(projectID uint) bool {
	return s.db.Migrator().HasTable(TableName(projectID))
}

// Insert appends one record, lazily creating the project's table on first
// write. The payload is stored opaque; differently shaped documents across
// projects are fine.
func (s *TestCaseStore) Insert(projectID uint, payload map[string]interface{}) (*models.TestCase, error) {
	if err := s.EnsureTable(projectID); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(payload)

	if err != nil {
		return nil, err
	}

	now := time.Now()

	testCase := models.TestCase{
		Payload:   datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.Table(TableName(projectID)).Create(&testCase).Error; err != nil {
		return nil, err
	}

	return &testCase, nil
}

// List returns all records for the project. Reading before the first write
// reports ErrNoStore rather than silently creating the table.
func (s *TestCaseStore) List(projectID uint) ([]models.TestCase, error) {
	if !s.hasTable(projectID) {
		return nil, apperrors.ErrNoStore
	}

	var testCases []models.TestCase

	if err := s.db.Table(TableName(projectID)).Order("id").Find(&testCases).Error; err != nil {
		return nil, err
	}

	return testCases, nil
}

func (s *TestCaseStore) Get(projectID uint, id uint) (*models.TestCase, error) {
	if !s.hasTable(projectID) {
		return nil, apperrors.ErrNoStore
	}

	var testCase models.TestCase

	err := s.db.Table(TableName(projectID)).Where("id = ?", id).First(&testCase).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}

	return &testCase, nil
}

// Update merges the given payload over the stored one: keys present in the
// update overwrite, keys absent from it keep their prior value.
func (s *TestCaseStore) Update(projectID uint, id uint, payload map[string]interface{}) (*models.TestCase, error) {
	testCase, err := s.Get(projectID, id)

	if err != nil {
		return nil, err
	}

	merged := make(map[string]interface{})

	if len(testCase.Payload) > 0 {
		if err := json.Unmarshal(testCase.Payload, &merged); err != nil {
			return nil, err
		}
	}

	for key, value := range payload {
		merged[key] = value
	}

	raw, err := json.Marshal(merged)

	if err != nil {
		return nil, err
	}

	testCase.Payload = datatypes.JSON(raw)
	testCase.UpdatedAt = time.Now()

	err = s.db.Table(TableName(projectID)).Where("id = ?", id).Updates(map[string]interface{}{
		"payload":    testCase.Payload,
		"updated_at": testCase.UpdatedAt,
	}).Error

	if err != nil {
		return nil, err
	}

	return testCase, nil
}

func (s *TestCaseStore) Delete(projectID uint, id uint) error {
	if !s.hasTable(projectID) {
		return apperrors.ErrNoStore
	}

	result := s.db.Table(TableName(projectID)).Where("id = ?", id).Delete(&models.TestCase{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// ReplaceAll rewrites the project's table with the given payloads. This is a
// sequence of independent statements, not one transaction: a crash mid-way
// leaves a partially applied state.
func (s *TestCaseStore) ReplaceAll(projectID uint, payloads []map[string]interface{}) ([]models.TestCase, error) {
	if err := s.EnsureTable(projectID); err != nil {
		return nil, err
	}

	if err := s.db.Table(TableName(projectID)).Where("1 = 1").Delete(&models.TestCase{}).Error; err != nil {
		return nil, err
	}

	testCases := make([]models.TestCase, 0, len(payloads))

	for _, payload := range payloads {
		testCase, err := s.Insert(projectID, payload)

		if err != nil {
			return testCases, err
		}

		testCases = append(testCases, *testCase)
	}

	return testCases, nil
}

// DropTable removes the project's table entirely. Used when the project
// itself is deleted.
func (s *TestCaseStore) DropTable(projectID uint) error {
	table := TableName(projectID)

	if !s.db.Migrator().HasTable(table) {
		return nil
	}

	return s.db.Migrator().DropTable(table)
}
