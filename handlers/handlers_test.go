package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"precisionpulse/config"
	"precisionpulse/controller"
	"precisionpulse/database"
	"precisionpulse/middleware"
	"precisionpulse/mirror"
	"precisionpulse/models"
	"precisionpulse/notify"
	"precisionpulse/policy"
	"precisionpulse/storage"
	"precisionpulse/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "pulse-pass"

type testServer struct {
	router http.Handler
	store  *store.Store
	redis  *miniredis.Miniredis
}

func setup(t *testing.T) *testServer {
	t.Helper()
	middleware.SetJWTSecret("test-secret")
	log := zap.NewNop()

	db, err := database.Open("sqlite::memory:", log)
	require.NoError(t, err)
	st := store.New(db)
	t.Cleanup(func() { _ = st.Close() })

	mr := miniredis.RunT(t)
	mirr := mirror.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test", log)

	files, err := storage.NewLocal(t.TempDir(), "file-secret", log)
	require.NoError(t, err)

	dispatcher := notify.NewDispatcher(notify.NewLog(log), log)
	t.Cleanup(dispatcher.Close)

	cfg := &config.Config{JWTExpiration: time.Hour, SignedURLTTL: time.Minute}
	services := controller.NewServices(controller.Deps{
		Store:     st,
		Policy:    policy.New(),
		Mirror:    mirr,
		Snapshots: mirr,
		Files:     files,
		Notifier:  dispatcher,
		URLTTL:    cfg.SignedURLTTL,
		Logger:    log,
	})
	router := NewRouter(RouterDeps{
		Config:   cfg,
		Services: services,
		Files:    files,
		Ping: func(ctx context.Context) error {
			return database.Ping(ctx, st)
		},
		Logger: log,
	})
	return &testServer{router: router, store: st, redis: mr}
}

func (s *testServer) seedUser(t *testing.T, role models.Role, building models.Building, shift models.Shift) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	id := uuid.New()
	u := &models.User{
		ID:           id,
		Email:        id.String()[:8] + "@pulse.test",
		FullName:     string(role),
		PasswordHash: string(hash),
		Role:         role,
		Building:     building,
		Shift:        shift,
	}
	require.NoError(t, s.store.Users.Insert(context.Background(), u))
	return u
}

// do sends body as JSON with a bearer token for user (anonymous when nil).
func (s *testServer) do(t *testing.T, user *models.User, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		token, err := middleware.GenerateToken(user, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s := setup(t)
	rec := s.do(t, nil, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := Health(func(context.Context) error { return errors.New("connection refused") })
	rec = httptest.NewRecorder()
	down(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLogin(t *testing.T) {
	s := setup(t)
	manager := s.seedUser(t, models.RoleBuildingManager, models.BuildingDC5, "")

	rec := s.do(t, nil, http.MethodPost, "/api/login", map[string]string{"email": manager.Email, "password": testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.TokenCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	body := decode[sessionResponse](t, rec)
	assert.Equal(t, manager.Email, body.User.Email)
	assert.True(t, body.Capabilities.CanExport)
	assert.False(t, body.Capabilities.CanManageUsers)
	assert.NotEmpty(t, body.Token)

	rec = s.do(t, nil, http.MethodPost, "/api/login", map[string]string{"email": manager.Email, "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.do(t, nil, http.MethodPost, "/api/login", map[string]string{"email": "nobody@pulse.test", "password": testPassword})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s := setup(t)
	rec := s.do(t, nil, http.MethodGet, "/api/containers", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForcedPasswordChange(t *testing.T) {
	s := setup(t)
	admin := s.seedUser(t, models.RoleSuperAdmin, "", "")
	require.NoError(t, s.store.Users.Patch(context.Background(), admin.ID, map[string]any{"must_change_password": true}))

	rec := s.do(t, admin, http.MethodGet, "/api/containers", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, admin, http.MethodGet, "/api/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[sessionResponse](t, rec).MustChangePassword)

	rec = s.do(t, admin, http.MethodPost, "/api/change-password", map[string]string{
		"current_password": testPassword,
		"new_password":     "brand-new",
		"confirm_password": "nope",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "confirm_password", decode[errorBody](t, rec).Field)

	rec = s.do(t, admin, http.MethodPost, "/api/change-password", map[string]string{
		"current_password": testPassword,
		"new_password":     "brand-new",
		"confirm_password": "brand-new",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, decode[sessionResponse](t, rec).MustChangePassword)

	rec = s.do(t, admin, http.MethodGet, "/api/containers", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserAdministration(t *testing.T) {
	s := setup(t)
	admin := s.seedUser(t, models.RoleSuperAdmin, "", "")
	manager := s.seedUser(t, models.RoleBuildingManager, models.BuildingDC5, "")

	rec := s.do(t, manager, http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Not allowed"}`, rec.Body.String())

	rec = s.do(t, admin, http.MethodPost, "/api/users", map[string]string{
		"email":       "New.Lead@Pulse.test",
		"full_name":   "New Lead",
		"password":    "start1",
		"access_role": "Lead",
		"building":    "DC11",
		"shift":       "2nd",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.User](t, rec)
	assert.Equal(t, "new.lead@pulse.test", created.Email)
	assert.True(t, created.MustChangePassword)

	rec = s.do(t, admin, http.MethodPost, "/api/users", map[string]string{
		"email": "new.lead@pulse.test", "password": "start1", "access_role": "Lead", "building": "DC11",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, admin, http.MethodPatch, "/api/users/"+created.ID.String(), map[string]string{
		"access_role": "Building Manager",
		"building":    "DC11",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.RoleBuildingManager, decode[models.User](t, rec).Role)

	rec = s.do(t, admin, http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.User](t, rec), 3)
}

func TestScope(t *testing.T) {
	s := setup(t)
	lead := s.seedUser(t, models.RoleLead, models.BuildingDC5, models.Shift1)

	rec := s.do(t, lead, http.MethodGet, "/api/scope?entity=containers&building=DC1&shift=3rd", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[scopeResponse](t, rec)
	assert.Equal(t, models.BuildingDC5, body.Scope.Building)
	assert.Equal(t, models.Shift1, body.Scope.Shift)
	assert.True(t, body.Scope.BuildingLocked)
	assert.False(t, body.CanCreate)

	rec = s.do(t, lead, http.MethodGet, "/api/scope?entity=candidates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[scopeResponse](t, rec).CanCreate)

	rec = s.do(t, lead, http.MethodGet, "/api/scope?entity=payroll", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "entity", decode[errorBody](t, rec).Field)
}
