package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lingobuddy/server/internal/mail"
)

// logMaskedEmail masks an address before it reaches the logs
func logMaskedEmail(email string) string {
	return mail.MaskEmail(email)
}

// decodeJSON decodes a request body into an explicit schema struct,
// rejecting unknown-shape input.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// respondJSON writes a JSON response with the given status
func respondJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// setSessionCookie attaches the bearer token to the response so subsequent
// requests can omit explicit credentials. Lifetime matches the token's.
func setSessionCookie(w http.ResponseWriter, name, token string, devMode bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   !devMode,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the session cookie
func clearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
