package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mgallego/posada/internal/database/testutil"
	"github.com/mgallego/posada/internal/models"
)

func TestAuditLogRequiresActionAndResult(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	ctx := context.Background()

	require.Error(t, audit.Log(ctx, AuditEntry{Result: "success"}))
	require.Error(t, audit.Log(ctx, AuditEntry{Action: "notification.send"}))
	require.NoError(t, audit.Log(ctx, AuditEntry{Action: "notification.send", Result: "success"}))
}

func TestAuditCleanupOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	audit, err := NewAuditService(db)
	require.NoError(t, err)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	audit.now = func() time.Time { return now }

	old := models.AuditLog{Action: "notification.send", Result: "success", CreatedAt: now.AddDate(0, 0, -120)}
	recent := models.AuditLog{Action: "notification.send", Result: "success", CreatedAt: now.AddDate(0, 0, -5)}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	removed, err := audit.CleanupOlderThan(context.Background(), 90)
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	var remaining []models.AuditLog
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, recent.ID, remaining[0].ID)
}
