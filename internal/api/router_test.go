package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/mgallego/posada/internal/app"
	"github.com/mgallego/posada/internal/database/testutil"
	"github.com/mgallego/posada/internal/models"
	"github.com/mgallego/posada/internal/notify"
	"github.com/mgallego/posada/internal/services"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate(), testutil.WithSeedData())

	staff := []models.User{
		{Name: "Marta", Email: "marta@posada.local", Role: models.RoleManager, IsActive: true},
		{Name: "Diego", Email: "diego@posada.local", Role: models.RoleDev, IsActive: true},
	}
	require.NoError(t, db.Create(&staff).Error)

	store, err := services.NewNotificationStore(db, 0)
	require.NoError(t, err)
	reads, err := services.NewReadTracker(db)
	require.NoError(t, err)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	registry := notify.NewRegistry(notify.GoalSummaryFormatter{}, notify.LedgerEntryFormatter{})
	service, err := services.NewNotificationService(store, reads, registry, audit)
	require.NoError(t, err)
	directory, err := services.NewUserDirectory(db)
	require.NoError(t, err)
	notifier, err := services.NewNotifier(service, directory, notify.NewResolver(1), nil)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Monitoring.Health.Enabled = true
	cfg.Monitoring.Prometheus.Enabled = true
	cfg.Monitoring.Prometheus.Endpoint = "/metrics"

	router, err := NewRouter(Dependencies{
		Config:   cfg,
		DB:       db,
		Service:  service,
		Notifier: notifier,
	})
	require.NoError(t, err)

	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}

	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprintf("%d", userID))
		req.Header.Set("X-User-Name", "Marta")
		req.Header.Set("X-User-Role", models.RoleManager)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"database":"ok"`)
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNotificationLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	created := doJSON(t, router, http.MethodPost, "/api/notifications", 2, map[string]any{
		"type":  "announcement",
		"title": "Pool closed",
		"body":  "Maintenance until Friday",
	})
	require.Equal(t, http.StatusCreated, created.Code)

	var createResp struct {
		Success bool `json:"success"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &createResp))
	require.True(t, createResp.Success)
	require.NotEmpty(t, createResp.Data.ID)

	list := doJSON(t, router, http.MethodGet, "/api/notifications", 2, nil)
	require.Equal(t, http.StatusOK, list.Code)

	var listResp struct {
		Data []services.NotificationView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &listResp))
	require.Len(t, listResp.Data, 1)
	require.Equal(t, "Pool closed", listResp.Data[0].Title)
	require.False(t, listResp.Data[0].Read)

	unread := doJSON(t, router, http.MethodGet, "/api/notifications/unread-count", 2, nil)
	require.Equal(t, http.StatusOK, unread.Code)
	require.Contains(t, unread.Body.String(), `"unread":1`)

	marked := doJSON(t, router, http.MethodPost, "/api/notifications/"+createResp.Data.ID+"/read", 2, nil)
	require.Equal(t, http.StatusOK, marked.Code)

	list = doJSON(t, router, http.MethodGet, "/api/notifications", 2, nil)
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &listResp))
	require.Len(t, listResp.Data, 1)
	require.True(t, listResp.Data[0].Read)
}

func TestNotificationRoutesRequireIdentity(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/notifications", 0, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/notifications", 0, map[string]any{
		"type": "announcement", "title": "x", "body": "y",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/notifications", 2, map[string]any{
		"type": "announcement",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/notifications", 2, map[string]any{
		"type": "announcement", "title": "x", "body": "y", "policy": "bogus",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
