package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"iplocator/internal/config"
	"iplocator/internal/logging"
	"iplocator/internal/repository"
	"iplocator/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type mockGeoLocator struct {
	lookupFunc func(ctx context.Context, ip string) (*services.IPLocation, error)
}

func (m *mockGeoLocator) Lookup(ctx context.Context, ip string) (*services.IPLocation, error) {
	return m.lookupFunc(ctx, ip)
}

type mockReverseGeocoder struct {
	reverseFunc func(ctx context.Context, lat, lon float64) (*services.ReverseGeocodeResult, error)
}

func (m *mockReverseGeocoder) Reverse(ctx context.Context, lat, lon float64) (*services.ReverseGeocodeResult, error) {
	return m.reverseFunc(ctx, lat, lon)
}

type testEnv struct {
	h        *Handler
	db       *gorm.DB
	locator  *mockGeoLocator
	geocoder *mockReverseGeocoder
	visits   *repository.GormVisitStore
	auth     *services.AuthService
}

func setupTestHandler(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })

	log := logging.Discard()
	cfg := config.Config{
		SessionSecret:  "test-secret-12345678901234567890123456789012",
		TrustedProxies: []string{"192.0.2.0/24", "10.0.0.0/8"},
	}

	env := &testEnv{
		db:       db,
		locator:  &mockGeoLocator{},
		geocoder: &mockReverseGeocoder{},
		visits:   repository.NewVisitStore(db),
	}
	env.auth = services.NewAuthService(repository.NewAdminStore(db), repository.NewSessionStore(db), log)

	visitService := services.NewVisitService(env.locator, env.visits, nil, log)
	reconciler := services.NewReconciler(env.visits, env.geocoder, nil, log)
	audit := services.NewAuditService(db, log)

	env.h = NewHandler(cfg, log, visitService, reconciler, env.auth, audit)
	return env
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(nil)
}

func doJSON(r http.Handler, method, path string, body any, cookies ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.Header.Add("Cookie", c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func ptr[T any](v T) *T { return &v }
