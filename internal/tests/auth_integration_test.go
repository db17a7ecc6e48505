package tests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingobuddy/server/internal/auth"
	"github.com/lingobuddy/server/internal/config"
	"github.com/lingobuddy/server/internal/db"
	httphandler "github.com/lingobuddy/server/internal/http"
	"github.com/lingobuddy/server/internal/http/handlers"
	"github.com/lingobuddy/server/internal/mail"
	"github.com/lingobuddy/server/internal/repo"
	"github.com/lingobuddy/server/internal/social"

	_ "github.com/lib/pq"
)

func TestMain(m *testing.M) {
	// Set env if unset. Do NOT set DATABASE_URL; integration tests skip if missing.
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "test-jwt-secret-at-least-32-characters-long")
	}
	if os.Getenv("DEV_MODE") == "" {
		os.Setenv("DEV_MODE", "true")
	}

	code := m.Run()
	os.Exit(code)
}

// testServer holds the server and DB for integration tests
type testServer struct {
	Server *httptest.Server
	DB     *sql.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err, "config load must succeed for integration test")

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	require.NoError(t, err, "database open must succeed; check DATABASE_URL and that test DB exists")
	t.Cleanup(func() { database.Close() })

	err = RunMigrations(database)
	require.NoError(t, err, "migrations must run successfully")

	userRepo := repo.NewUserRepo(database)
	friendRepo := repo.NewFriendRepo(database)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := auth.NewService(jwtService, userRepo)
	recoveryService := auth.NewRecoveryService(userRepo, mail.LogSender{})
	googleAuth := auth.NewGoogleAuth("", "", "", jwtService, userRepo)
	socialService := social.NewService(userRepo, friendRepo)

	authHandler := handlers.NewAuthHandler(authService, cfg.DevMode)
	passwordHandler := handlers.NewPasswordHandler(recoveryService)
	oauthHandler := handlers.NewOAuthHandler(googleAuth, cfg.OAuthSuccessURL, cfg.OAuthFailureURL, cfg.DevMode)
	socialHandler := handlers.NewSocialHandler(socialService)

	router := httphandler.NewRouter(authHandler, passwordHandler, oauthHandler, socialHandler, jwtService, userRepo)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ts := &testServer{Server: server, DB: database}
	require.NoError(t, TruncateAll(ctx, database), "truncate tables")
	return ts
}

// doJSON performs a request with an optional bearer token and decodes the body
func (s *testServer) doJSON(t *testing.T, method, path, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.Server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// signup registers a user and returns its id and session token
func (s *testServer) signup(t *testing.T, email, password, fullName string) (userID, token string) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{
		"email": email, "password": password, "fullName": fullName,
	}))
	resp, err := s.Server.Client().Post(s.Server.URL+"/api/auth/signup", "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var envelope struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))

	for _, c := range resp.Cookies() {
		if c.Name == "jwt" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token, "signup must set the session cookie")
	return envelope.User.ID, token
}

func TestSignupAndLogin(t *testing.T) {
	s := newTestServer(t)

	userID, _ := s.signup(t, "alice@x.com", "password123", "Alice")

	// Login with the same credentials returns the same user, sans password.
	var raw map[string]interface{}
	resp := s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "password123",
	}, &raw)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	user := raw["user"].(map[string]interface{})
	assert.Equal(t, userID, user["id"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "resetCode")
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@x.com", "password123", "Alice")

	var body map[string]string
	resp := s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "wrongpassword",
	}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid email or password", body["error"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@x.com", "password123", "Alice")

	var body map[string]string
	resp := s.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "alice@x.com", "password": "differentpass", "fullName": "Alice Two",
	}, &body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []map[string]string{
		{"email": "alice@x.com", "password": "12345", "fullName": "Alice"}, // weak password
		{"email": "not-an-email", "password": "password123", "fullName": "Alice"},
		{"email": "", "password": "password123", "fullName": "Alice"},
	}
	for _, body := range cases {
		resp := s.doJSON(t, http.MethodPost, "/api/auth/signup", "", body, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %v", body)
	}

	// Unknown fields are rejected outright.
	resp := s.doJSON(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email": "alice@x.com", "password": "password123", "fullName": "Alice", "role": "admin",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMeRequiresSession(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, http.MethodGet, "/api/auth/me", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, token := s.signup(t, "alice@x.com", "password123", "Alice")
	var raw map[string]interface{}
	resp = s.doJSON(t, http.MethodGet, "/api/auth/me", token, nil, &raw)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@x.com", raw["user"].(map[string]interface{})["email"])
}

func TestOnboarding(t *testing.T) {
	s := newTestServer(t)
	_, token := s.signup(t, "alice@x.com", "password123", "Alice")

	// Missing fields listed explicitly.
	var errBody map[string]interface{}
	resp := s.doJSON(t, http.MethodPost, "/api/auth/onboarding", token, map[string]string{
		"fullName": "Alice", "bio": "hi", "nativeLanguage": "English",
	}, &errBody)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, errBody["missingFields"], "learningLanguage")
	assert.Contains(t, errBody["missingFields"], "location")

	var raw map[string]interface{}
	resp = s.doJSON(t, http.MethodPost, "/api/auth/onboarding", token, map[string]string{
		"fullName": "Alice", "bio": "hi", "nativeLanguage": "English",
		"learningLanguage": "Spanish", "location": "Berlin",
	}, &raw)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, raw["user"].(map[string]interface{})["isOnboarded"])
}

func TestPasswordRecoveryFlow(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "alice@x.com", "password123", "Alice")

	resp := s.doJSON(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "alice@x.com",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The stored code is what the mail would carry.
	var code string
	err := s.DB.QueryRow("SELECT reset_code FROM users WHERE email = $1", "alice@x.com").Scan(&code)
	require.NoError(t, err)
	require.Len(t, code, 6)

	// Wrong code does not consume it.
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	resp = s.doJSON(t, http.MethodPost, "/api/auth/verify-reset-code", "", map[string]string{
		"email": "alice@x.com", "code": wrong,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.doJSON(t, http.MethodPost, "/api/auth/verify-reset-code", "", map[string]string{
		"email": "alice@x.com", "code": code,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Single-use: the same code fails the second time.
	resp = s.doJSON(t, http.MethodPost, "/api/auth/verify-reset-code", "", map[string]string{
		"email": "alice@x.com", "code": code,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = s.doJSON(t, http.MethodPost, "/api/auth/reset-password", "", map[string]string{
		"email": "alice@x.com", "newPassword": "newpassword", "confirmPassword": "newpassword",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Old password no longer works, the new one does.
	resp = s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "password123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = s.doJSON(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@x.com", "password": "newpassword",
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	s := newTestServer(t)

	resp := s.doJSON(t, http.MethodPost, "/api/auth/forgot-password", "", map[string]string{
		"email": "nobody@x.com",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// onboard completes the profile step so a user shows up in recommendations
func (s *testServer) onboard(t *testing.T, token, native, learning string) {
	t.Helper()
	resp := s.doJSON(t, http.MethodPost, "/api/auth/onboarding", token, map[string]string{
		"fullName": "User", "bio": "hi", "nativeLanguage": native,
		"learningLanguage": learning, "location": "Berlin",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func fmtPath(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
