package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/julianjca/op-portfolio-tracker/internal/database"
	"github.com/julianjca/op-portfolio-tracker/internal/models"
	"github.com/julianjca/op-portfolio-tracker/internal/services"
)

func newTestRouter(t *testing.T) (*gin.Engine, func(*models.SyncLog) int64) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(filepath.Join(t.TempDir(), "api.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, db.Create(&models.Set{Code: "OP-01", Name: "Romance Dawn"}).Error)

	svc := services.NewSyncService(services.SyncServiceConfig{
		DB:      db,
		Catalog: services.NewCatalogClient(services.WithCatalogBaseURL("http://127.0.0.1:1")),
		Prices:  services.NewPriceChartingClient(""),
	})

	countLogs := func(m *models.SyncLog) int64 {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		return n
	}
	return SetupRouter(nil, db, svc), countLogs
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Origin", "https://portfolio.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sync/cards", nil)
	req.Header.Set("Origin", "https://portfolio.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type, apikey")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "apikey")
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	w := serve(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSyncStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantLogs int64
	}{
		{"slab prices without api key", "/api/sync/slab-prices", "", http.StatusBadRequest, 0},
		{"unknown population action", "/api/sync/population", `{"action":"scrape"}`, http.StatusBadRequest, 0},
		{"unsupported provider", "/api/sync/population", `{"action":"sync_gemrate"}`, http.StatusOK, 1},
		{"unknown set", "/api/sync/set-values", `{"set_code":"OP-99"}`, http.StatusNotFound, 1},
		{"catalog unreachable", "/api/sync/sets", "", http.StatusBadGateway, 1},
		{"malformed body", "/api/sync/cards", `{"set_code":`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, countLogs := newTestRouter(t)
			w := serve(router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantLogs, countLogs(&models.SyncLog{}))
		})
	}
}

func TestUnsupportedProviderBody(t *testing.T) {
	router, _ := newTestRouter(t)
	w := serve(router, http.MethodPost, "/api/sync/population", `{"action":"sync_psa","set_code":"OP-01"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body models.PopulationSyncResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Zero(t, body.CardsUpdated)
	assert.NotEmpty(t, body.RunID)
}

func TestSetValuesAndReads(t *testing.T) {
	router, _ := newTestRouter(t)

	w := serve(router, http.MethodPost, "/api/sync/set-values", "")
	require.Equal(t, http.StatusOK, w.Code)
	var result models.CalculateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.SetsCalculated)

	w = serve(router, http.MethodGet, "/api/sets/OP-01", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, http.MethodGet, "/api/sets?valued=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sets []models.Set
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sets))
	assert.Len(t, sets, 1)

	w = serve(router, http.MethodGet, "/api/sync/logs?kind=set_values", "")
	require.Equal(t, http.StatusOK, w.Code)
	var logs []models.SyncLog
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, models.SyncStatusCompleted, logs[0].Status)

	assert.Equal(t, http.StatusBadRequest, serve(router, http.MethodGet, "/api/cards/abc/prices", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/cards/42/population", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/unknown", "").Code)
}
