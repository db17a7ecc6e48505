package handlers

import (
	"log"
	"net/http"

	"github.com/lingobuddy/server/internal/auth"
	"github.com/lingobuddy/server/internal/middleware"
)

const oauthStateCookie = "oauth_state"

// OAuthHandler handles the Google sign-in redirect flow
type OAuthHandler struct {
	google     *auth.GoogleAuth
	successURL string
	failureURL string
	devMode    bool
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(google *auth.GoogleAuth, successURL, failureURL string, devMode bool) *OAuthHandler {
	return &OAuthHandler{
		google:     google,
		successURL: successURL,
		failureURL: failureURL,
		devMode:    devMode,
	}
}

// HandleStart handles GET /api/auth/google
func (h *OAuthHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !h.google.Enabled() {
		respondWithError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}

	state, err := auth.NewOAuthState()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to start sign-in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   !h.devMode,
		SameSite: http.SameSiteLaxMode,
	})

	url, err := h.google.AuthCodeURL(state)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to start sign-in")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// HandleCallback handles GET /api/auth/google/callback. Any failure aborts
// the sign-in and redirects to the failure destination; no partial user is
// left behind.
func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if !h.google.Enabled() {
		respondWithError(w, http.StatusNotFound, "google sign-in is not configured")
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.fail(w, r, "state mismatch")
		return
	}
	clearSessionCookie(w, oauthStateCookie)

	code := r.URL.Query().Get("code")
	if code == "" {
		h.fail(w, r, "missing code")
		return
	}

	user, token, err := h.google.CompleteSignIn(r.Context(), code)
	if err != nil {
		h.fail(w, r, err.Error())
		return
	}

	log.Printf("Google sign-in: %s", logMaskedEmail(user.Email))
	setSessionCookie(w, middleware.SessionCookieName, token, h.devMode)
	http.Redirect(w, r, h.successURL, http.StatusFound)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, r *http.Request, reason string) {
	log.Printf("Google sign-in failed: %s", reason)
	http.Redirect(w, r, h.failureURL, http.StatusFound)
}
