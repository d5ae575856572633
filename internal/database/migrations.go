package database

import (
	"gorm.io/gorm"

	"github.com/mgallego/posada/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Notification{},
		&models.NotificationRecipient{},
		&models.NotificationRead{},
		&models.AuditLog{},
	)
}

// SeedData ensures the master admin account exists. Its id backs the
// resolver's fallback rule when no other admin is configured.
func SeedData(db *gorm.DB) error {
	master := models.User{
		ID:       1,
		Name:     "Master Admin",
		Email:    "admin@posada.local",
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	return db.Where(models.User{ID: master.ID}).Attrs(master).FirstOrCreate(&models.User{}).Error
}
