package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"levelup/internal/exercisedb"
	"levelup/internal/repository/sqlite"
	"levelup/internal/service"
	"levelup/internal/session"
	"levelup/internal/storage"
)

type testEnv struct {
	router    *gin.Engine
	sessions  *session.Manager
	avatarDir string
}

func newTestEnv(t *testing.T, bootID string, timeout time.Duration) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "levelup.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := t.Context()
	userRepo := sqlite.NewUserRepository(db)
	workoutRepo := sqlite.NewWorkoutRepository(db)
	nutritionRepo := sqlite.NewNutritionRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, workoutRepo.Init(ctx))
	require.NoError(t, nutritionRepo.Init(ctx))

	avatarDir := t.TempDir()
	store, err := storage.NewLocalService(avatarDir)
	require.NoError(t, err)

	sessions, err := session.NewManager("test-secret", bootID, timeout, logger)
	require.NoError(t, err)

	handler := NewHandler(
		service.NewAccountService(userRepo),
		service.NewWorkoutService(workoutRepo),
		service.NewNutritionService(nutritionRepo),
		service.NewProfileService(userRepo, store, []string{"png", "jpg", "jpeg", "gif"}),
		exercisedb.NewClient("exercisedb.invalid", "", logger),
		sessions,
		logger,
		avatarDir,
	)

	router := gin.New()
	handler.RegisterRoutes(router)
	return &testEnv{router: router, sessions: sessions, avatarDir: avatarDir}
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == session.CookieName {
			return ck
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func decodeJSONList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func registerUser(t *testing.T, env *testEnv, username, password string) *http.Cookie {
	t.Helper()
	w := env.do(t, http.MethodPost, "/register", url.Values{
		"username": {username},
		"password": {password},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t, "boot-1", 30*time.Minute)

	cookie := registerUser(t, env, "Alice", "pw1")

	// the session is live immediately after registering
	w := env.do(t, http.MethodGet, "/profile", nil, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w)
	user := resp["user"].(map[string]any)
	require.Equal(t, "alice", user["username"])
	require.Equal(t, "default.png", user["profile_image"])

	// case-insensitive duplicate
	w = env.do(t, http.MethodPost, "/register", url.Values{
		"username": {"alice"},
		"password": {"pw2"},
	}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/register", url.Values{
		"username": {"ALICE"},
		"password": {"pw3"},
	}, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	// wrong password and unknown user look identical
	w = env.do(t, http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"nope"}}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	invalidBody := w.Body.String()

	w = env.do(t, http.MethodPost, "/login", url.Values{"username": {"mallory"}, "password": {"pw1"}}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, invalidBody, w.Body.String())

	// correct credentials
	w = env.do(t, http.MethodPost, "/login", url.Values{"username": {"ALICE"}, "password": {"pw1"}}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	loginCookie := sessionCookie(t, w)

	w = env.do(t, http.MethodGet, "/profile", nil, loginCookie)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, "boot-1", 30*time.Minute)
	cookie := registerUser(t, env, "alice", "pw1")

	w := env.do(t, http.MethodGet, "/logout", nil, cookie)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))
	cleared := sessionCookie(t, w)

	w = env.do(t, http.MethodGet, "/profile", nil, cleared)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// the logout notice is delivered once on the login page
	w = env.do(t, http.MethodGet, "/login", nil, cleared)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, decodeJSON(t, w), "notice")

	next := sessionCookie(t, w)
	w = env.do(t, http.MethodGet, "/login", nil, next)
	require.NotContains(t, decodeJSON(t, w), "notice")
}

func TestWorkoutLog(t *testing.T) {
	env := newTestEnv(t, "boot-1", 30*time.Minute)

	w := env.do(t, http.MethodGet, "/workouts", nil, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	alice := registerUser(t, env, "alice", "pw1")
	bob := registerUser(t, env, "bob", "pw2")

	w = env.do(t, http.MethodPost, "/add_workout", url.Values{
		"exercise": {"squat"},
		"weight":   {"100"},
		"date":     {"2026-03-01"},
	}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeJSON(t, w)
	require.Equal(t, float64(10), created["reps"])
	require.Equal(t, float64(3), created["sets"])
	workoutID := int64(created["id"].(float64))

	w = env.do(t, http.MethodGet, "/workouts", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeJSONList(t, w), 1)

	// bob sees nothing and cannot delete alice's entry
	w = env.do(t, http.MethodGet, "/workouts", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decodeJSONList(t, w))

	w = env.do(t, http.MethodPost, "/workouts/delete/1", nil, bob)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/workouts/delete/9999", nil, alice)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/workouts/delete/1", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(workoutID), decodeJSON(t, w)["deleted"])
}

func TestNutritionLog(t *testing.T) {
	env := newTestEnv(t, "boot-1", 30*time.Minute)
	alice := registerUser(t, env, "alice", "pw1")

	w := env.do(t, http.MethodPost, "/add_food", url.Values{
		"food":     {"oats"},
		"protein":  {"13"},
		"carbs":    {"68"},
		"fats":     {"7"},
		"calories": {"389"},
	}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/nutrition", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decodeJSONList(t, w)
	require.Len(t, entries, 1)
	require.Equal(t, "oats", entries[0]["food"])

	// missing food name is a validation error, not a server error
	w = env.do(t, http.MethodPost, "/add_food", url.Values{"protein": {"10"}}, alice)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/nutrition/delete/1", nil, alice)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/nutrition/delete/1", nil, alice)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func uploadAvatar(t *testing.T, env *testEnv, cookie *http.Cookie, filename string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("profile_image", filename)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload_image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t, "boot-1", 30*time.Minute)
	alice := registerUser(t, env, "alice", "pw1")

	// disallowed extension is rejected and the avatar stays untouched
	w := uploadAvatar(t, env, alice, "shell.php", []byte("<?php"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/profile", nil, alice)
	user := decodeJSON(t, w)["user"].(map[string]any)
	require.Equal(t, "default.png", user["profile_image"])

	payload := []byte{0x89, 'P', 'N', 'G'}
	w = uploadAvatar(t, env, alice, "me.PNG", payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user = decodeJSON(t, w)["user"].(map[string]any)
	stored := user["profile_image"].(string)
	require.True(t, strings.HasSuffix(stored, ".png"))
	require.NotEqual(t, "me.PNG", stored)

	data, err := os.ReadFile(filepath.Join(env.avatarDir, stored))
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestEditProfileName(t *testing.T) {
	env := newTestEnv(t, "boot-1", 30*time.Minute)
	alice := registerUser(t, env, "alice", "pw1")
	registerUser(t, env, "bob", "pw2")

	w := env.do(t, http.MethodPost, "/edit_profile_name", url.Values{"name": {"Carol"}}, alice)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decodeJSON(t, w)["user"].(map[string]any)
	require.Equal(t, "carol", user["username"])

	w = env.do(t, http.MethodPost, "/edit_profile_name", url.Values{"name": {"BOB"}}, alice)
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/edit_profile_name", url.Values{"name": {"x"}}, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionGuard_BootMismatch(t *testing.T) {
	env := newTestEnv(t, "epoch-2", 30*time.Minute)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	previous, err := session.NewManager("test-secret", "epoch-1", 30*time.Minute, logger)
	require.NoError(t, err)

	// a cookie signed before the restart carries the old boot id
	old := previous.New()
	old.UserID = 1
	old.LastActivity = time.Now()
	value, err := previous.Issue(old)
	require.NoError(t, err)
	stale := &http.Cookie{Name: session.CookieName, Value: value}

	w := env.do(t, http.MethodGet, "/profile", nil, stale)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/", nil, stale)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeJSON(t, w)
	require.Contains(t, resp, "notice")
	require.NotContains(t, resp, "user")
}

func TestSessionGuard_InactivityTimeout(t *testing.T) {
	env := newTestEnv(t, "boot-1", time.Nanosecond)
	alice := registerUser(t, env, "alice", "pw1")

	// any follow-up request exceeds the nanosecond window
	time.Sleep(time.Millisecond)
	w := env.do(t, http.MethodGet, "/workouts", nil, alice)
	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/login", w.Header().Get("Location"))

	// the replacement cookie is logged out
	next := sessionCookie(t, w)
	w = env.do(t, http.MethodGet, "/profile", nil, next)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearch_EmptyQueryNoUpstreamCall(t *testing.T) {
	env := newTestEnv(t, "boot-1", 30*time.Minute)

	w := env.do(t, http.MethodGet, "/search", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decodeJSONList(t, w))
}
