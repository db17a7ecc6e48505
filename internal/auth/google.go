package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/lingobuddy/server/internal/avatar"
	"github.com/lingobuddy/server/internal/model"
	"github.com/lingobuddy/server/internal/repo"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// ErrOAuthNotConfigured is returned when the Google client credentials are
// absent from the configuration.
var ErrOAuthNotConfigured = errors.New("google sign-in is not configured")

// GoogleProfile is the subset of the provider's userinfo this system trusts.
// The asserted email is accepted without additional verification.
type GoogleProfile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleAuth exchanges an external Google profile for a local account.
type GoogleAuth struct {
	cfg      *oauth2.Config
	jwt      *JWTService
	userRepo repo.UserRepo
}

// NewGoogleAuth creates the adapter. Empty clientID disables the flow.
func NewGoogleAuth(clientID, clientSecret, redirectURL string, jwt *JWTService, userRepo repo.UserRepo) *GoogleAuth {
	var cfg *oauth2.Config
	if clientID != "" {
		cfg = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}
	return &GoogleAuth{cfg: cfg, jwt: jwt, userRepo: userRepo}
}

// Enabled reports whether client credentials are configured
func (g *GoogleAuth) Enabled() bool {
	return g.cfg != nil
}

// AuthCodeURL returns the consent-screen redirect for the given state nonce
func (g *GoogleAuth) AuthCodeURL(state string) (string, error) {
	if g.cfg == nil {
		return "", ErrOAuthNotConfigured
	}
	return g.cfg.AuthCodeURL(state), nil
}

// CompleteSignIn exchanges the authorization code, fetches the profile and
// resolves it to a local account, issuing a session token. Account creation
// is the last step before token issuance so a failed sign-in leaves no
// partial user behind.
func (g *GoogleAuth) CompleteSignIn(ctx context.Context, code string) (model.User, string, error) {
	if g.cfg == nil {
		return model.User{}, "", ErrOAuthNotConfigured
	}

	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to exchange code: %w", err)
	}

	profile, err := g.fetchProfile(ctx, tok)
	if err != nil {
		return model.User{}, "", err
	}
	if profile.Email == "" {
		return model.User{}, "", fmt.Errorf("provider profile has no email")
	}

	user, err := g.resolveByEmail(ctx, profile)
	if err != nil {
		return model.User{}, "", err
	}

	token, err := g.jwt.SignToken(user.ID)
	if err != nil {
		return model.User{}, "", fmt.Errorf("failed to generate token: %w", err)
	}
	return user, token, nil
}

// resolveByEmail is the identity-merge policy: an existing account with the
// asserted email is reused unconditionally, regardless of how it was
// created; otherwise a new account is created with the federated password
// marker.
func (g *GoogleAuth) resolveByEmail(ctx context.Context, profile GoogleProfile) (model.User, error) {
	user, err := g.userRepo.GetByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repo.ErrUserNotFound) {
		return model.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	pic := profile.Picture
	if pic == "" {
		pic = avatar.For(profile.Name)
	}
	user, err = g.userRepo.Create(ctx, profile.Email, model.PasswordMarkerGoogle, profile.Name, pic)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (g *GoogleAuth) fetchProfile(ctx context.Context, tok *oauth2.Token) (GoogleProfile, error) {
	client := g.cfg.Client(ctx, tok)
	resp, err := client.Get(googleUserinfoURL)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return GoogleProfile{}, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var profile GoogleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return GoogleProfile{}, fmt.Errorf("failed to decode userinfo: %w", err)
	}
	return profile, nil
}

// NewOAuthState returns a random URL-safe nonce for the state parameter
func NewOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
