package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lingobuddy/server/internal/auth"
	"github.com/lingobuddy/server/internal/middleware"
	"github.com/lingobuddy/server/internal/model"
	"github.com/lingobuddy/server/internal/repo"
)

// AuthHandler handles signup, login, logout, onboarding and /me
type AuthHandler struct {
	authService  *auth.Service
	loginLimiter *middleware.RateLimiter
	devMode      bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, devMode bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		loginLimiter: middleware.NewRateLimiter(10*time.Minute, 20),
		devMode:      devMode,
	}
}

// signupRequest is the request body for POST /api/auth/signup
type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// loginRequest is the request body for POST /api/auth/login
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// onboardingRequest is the request body for POST /api/auth/onboarding
type onboardingRequest struct {
	FullName         string `json:"fullName"`
	Bio              string `json:"bio"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	Location         string `json:"location"`
}

// userEnvelope wraps the sanitized user in success responses
type userEnvelope struct {
	Success bool             `json:"success"`
	User    model.PublicUser `json:"user"`
}

// HandleSignup handles POST /api/auth/signup
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		respondWithError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmailFormat):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrDuplicateEmail):
			respondWithError(w, http.StatusConflict, "Email already exists, please use a different one")
		default:
			respondWithError(w, http.StatusInternalServerError, "failed to create account")
		}
		return
	}

	setSessionCookie(w, middleware.SessionCookieName, token, h.devMode)
	respondJSON(w, http.StatusCreated, userEnvelope{Success: true, User: user.Public()})
}

// HandleLogin handles POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if !h.loginLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			// One generic message, no hint which field was wrong.
			respondWithError(w, http.StatusBadRequest, "Invalid email or password")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to log in")
		return
	}

	setSessionCookie(w, middleware.SessionCookieName, token, h.devMode)
	respondJSON(w, http.StatusOK, userEnvelope{Success: true, User: user.Public()})
}

// HandleLogout handles POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, middleware.SessionCookieName)
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe handles GET /api/auth/me (protected)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, userEnvelope{Success: true, User: user.Public()})
}

// HandleOnboarding handles POST /api/auth/onboarding (protected)
func (h *AuthHandler) HandleOnboarding(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req onboardingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	missing := missingOnboardingFields(req)
	if len(missing) > 0 {
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":         "All fields are required",
			"missingFields": missing,
		})
		return
	}

	updated, err := h.authService.Onboard(r.Context(), user.ID,
		strings.TrimSpace(req.FullName), req.Bio, req.NativeLanguage, req.LearningLanguage, req.Location)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "user not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "failed to complete onboarding")
		return
	}

	respondJSON(w, http.StatusOK, userEnvelope{Success: true, User: updated.Public()})
}

func missingOnboardingFields(req onboardingRequest) []string {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(req.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if req.Bio == "" {
		missing = append(missing, "bio")
	}
	if req.NativeLanguage == "" {
		missing = append(missing, "nativeLanguage")
	}
	if req.LearningLanguage == "" {
		missing = append(missing, "learningLanguage")
	}
	if req.Location == "" {
		missing = append(missing, "location")
	}
	return missing
}
