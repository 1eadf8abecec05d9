package models

import (
	"time"

	"gorm.io/datatypes"
)

// TestCase is one record of a per-project test-case table. The table name is
// picked at query time (testcases_project_<id>), so this model is never part
// of the global AutoMigrate set.
type TestCase struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Payload   datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
