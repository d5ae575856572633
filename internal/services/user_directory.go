package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mgallego/posada/internal/models"
)

// UserDirectory answers role-membership queries for the recipient resolver.
// Absent roles yield empty slices, never errors.
type UserDirectory struct {
	db *gorm.DB
}

// NewUserDirectory constructs a UserDirectory.
func NewUserDirectory(db *gorm.DB) (*UserDirectory, error) {
	if db == nil {
		return nil, errors.New("user directory: db is required")
	}
	return &UserDirectory{db: db}, nil
}

// AdminIDs returns ids of active admin users.
func (d *UserDirectory) AdminIDs(ctx context.Context) ([]int64, error) {
	return d.roleIDs(ctx, models.RoleAdmin)
}

// DevIDs returns ids of active dev users.
func (d *UserDirectory) DevIDs(ctx context.Context) ([]int64, error) {
	return d.roleIDs(ctx, models.RoleDev)
}

// ManagerIDs returns ids of active manager users.
func (d *UserDirectory) ManagerIDs(ctx context.Context) ([]int64, error) {
	return d.roleIDs(ctx, models.RoleManager)
}

func (d *UserDirectory) roleIDs(ctx context.Context, role string) ([]int64, error) {
	ctx = ensureContext(ctx)

	var ids []int64
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = ?", role, true).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("user directory: %s ids: %w", role, err)
	}
	return ids, nil
}
