package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	gorm.Model

	Name          string `gorm:"uniqueIndex;not null"`
	Organization  string `gorm:"not null"` // Azure DevOps organization
	AccessToken   string `gorm:"not null"` // Personal Access Token, stored in clear
	IterationPath string
	AreaPath      string
	APIVersion    string `gorm:"default:7.0"`
	Description   string
	ChatHistory   datatypes.JSON `gorm:"type:jsonb"` // ordered role-tagged messages

	// Relationships
	ProjectUsers []ProjectUser `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Files        []ProjectFile `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// ChatMessage is one entry of a project's persisted chat history.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}
