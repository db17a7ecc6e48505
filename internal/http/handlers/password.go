package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/lingobuddy/server/internal/auth"
	"github.com/lingobuddy/server/internal/middleware"
	"github.com/lingobuddy/server/internal/repo"
)

// PasswordHandler handles the password-recovery flow
type PasswordHandler struct {
	recovery     *auth.RecoveryService
	resetLimiter *middleware.RateLimiter
}

// NewPasswordHandler creates a new password handler
func NewPasswordHandler(recovery *auth.RecoveryService) *PasswordHandler {
	// 5 reset requests per 10 min per IP
	return &PasswordHandler{
		recovery:     recovery,
		resetLimiter: middleware.NewRateLimiter(10*time.Minute, 5),
	}
}

// forgotPasswordRequest is the request body for POST /api/auth/forgot-password
type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// verifyResetCodeRequest is the request body for POST /api/auth/verify-reset-code
type verifyResetCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// resetPasswordRequest is the request body for POST /api/auth/reset-password
type resetPasswordRequest struct {
	Email           string `json:"email"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// HandleForgotPassword handles POST /api/auth/forgot-password
func (h *PasswordHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		respondWithError(w, http.StatusBadRequest, "email is required")
		return
	}

	if !h.resetLimiter.Allow(middleware.GetIPKey(r)) {
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	mailErr, err := h.recovery.RequestReset(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, "No account with that email")
			return
		}
		log.Printf("Reset request for %s failed: %v", logMaskedEmail(req.Email), err)
		respondWithError(w, http.StatusInternalServerError, "failed to request reset")
		return
	}

	resp := map[string]string{"message": "reset code sent"}
	if mailErr != nil {
		// Code is stored; delivery failure is a warning, not a request failure.
		resp["warning"] = "could not send email"
	}
	respondJSON(w, http.StatusOK, resp)
}

// HandleVerifyResetCode handles POST /api/auth/verify-reset-code
func (h *PasswordHandler) HandleVerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req verifyResetCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)
	if req.Email == "" || req.Code == "" {
		respondWithError(w, http.StatusBadRequest, "email and code are required")
		return
	}

	if err := h.recovery.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, auth.ErrResetCodeInvalid),
			errors.Is(err, auth.ErrResetCodeExpired),
			errors.Is(err, auth.ErrResetCodeIncorrect):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "failed to verify code")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "code verified"})
}

// HandleResetPassword handles POST /api/auth/reset-password
func (h *PasswordHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
		respondWithError(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if err := h.recovery.ResetPassword(r.Context(), req.Email, req.NewPassword, req.ConfirmPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrPasswordMismatch), errors.Is(err, auth.ErrWeakPassword):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repo.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "No account with that email")
		default:
			respondWithError(w, http.StatusInternalServerError, "failed to reset password")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
