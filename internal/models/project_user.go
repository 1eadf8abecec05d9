package models

import "gorm.io/gorm"

const (
	MemberRoleAdmin       = "admin"
	MemberRoleContributor = "contributor"
	MemberRoleReader      = "reader"
)

// ProjectUser links a user to the single project they work on. The
// table-wide unique index on UserID enforces one project per user.
type ProjectUser struct {
	gorm.Model

	ProjectID uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null;uniqueIndex"`
	Role      string `gorm:"not null;default:contributor"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	User    User    `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
