package models

import "time"

// Staff roles recognised by the recipient resolver.
const (
	RoleAdmin   = "admin"
	RoleDev     = "dev"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// User describes an inn staff member. User ids are numeric and positive;
// zero or negative values mean "no user" throughout the notification engine.
type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Role     string `gorm:"type:varchar(32);not null;default:'staff';index" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
