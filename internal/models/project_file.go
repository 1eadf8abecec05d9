package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectFile struct {
	gorm.Model

	ProjectID  uint   `gorm:"not null;index"`
	Filename   string `gorm:"not null"`
	Path       string `gorm:"not null"`
	UploadedAt time.Time

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}
