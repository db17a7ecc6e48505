package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingobuddy/server/internal/auth"
	"github.com/lingobuddy/server/internal/model"
	"github.com/lingobuddy/server/internal/repo"
)

type singleUserRepo struct {
	repo.UserRepo
	user model.User
}

func (s *singleUserRepo) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	if id != s.user.ID {
		return model.User{}, repo.ErrUserNotFound
	}
	return s.user, nil
}

func middlewareFixture(t *testing.T) (http.Handler, *auth.JWTService, model.User) {
	t.Helper()
	jwtService := auth.NewJWTService("test-secret")
	user := model.User{ID: uuid.New(), Email: "alice@x.com", FullName: "Alice", CreatedAt: time.Now()}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := GetUser(r.Context())
		require.True(t, ok, "user must be attached to context")
		assert.Equal(t, user.ID, got.ID)
		gotID, ok := GetUserID(r.Context())
		require.True(t, ok)
		assert.Equal(t, user.ID, gotID)
		w.WriteHeader(http.StatusOK)
	})

	handler := AuthMiddleware(jwtService, &singleUserRepo{user: user})(next)
	return handler, jwtService, user
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	handler, jwtService, user := middlewareFixture(t)

	token, err := jwtService.SignToken(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_BearerHeaderFallback(t *testing.T) {
	handler, jwtService, user := middlewareFixture(t)

	token, err := jwtService.SignToken(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_CookieWinsOverHeader(t *testing.T) {
	handler, jwtService, user := middlewareFixture(t)

	token, err := jwtService.SignToken(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Unauthorized(t *testing.T) {
	handler, jwtService, _ := middlewareFixture(t)

	cases := map[string]func(*http.Request){
		"no token":         func(r *http.Request) {},
		"malformed header": func(r *http.Request) { r.Header.Set("Authorization", "Token abc") },
		"invalid token":    func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-jwt") },
		"unknown user": func(r *http.Request) {
			token, err := jwtService.SignToken(uuid.New())
			require.NoError(t, err)
			r.Header.Set("Authorization", "Bearer "+token)
		},
	}

	for name, setup := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String(), "no detail beyond unauthorized")
		})
	}
}
