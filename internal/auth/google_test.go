package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingobuddy/server/internal/model"
)

func TestGoogleAuth_ResolveByEmail_ReusesExistingAccount(t *testing.T) {
	users := newStubUserRepo()
	ctx := context.Background()

	// Account originally created with a password.
	hash, err := HashPassword("password123")
	require.NoError(t, err)
	existing, err := users.Create(ctx, "alice@x.com", hash, "Alice", "pic")
	require.NoError(t, err)

	g := NewGoogleAuth("client-id", "secret", "http://localhost/cb", NewJWTService("s"), users)

	// Reuse-by-email: the password account is reused unconditionally.
	resolved, err := g.resolveByEmail(ctx, GoogleProfile{Email: "alice@x.com", Name: "Alice G"})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, resolved.ID)
	assert.Equal(t, hash, resolved.PasswordHash, "existing credentials untouched")
}

func TestGoogleAuth_ResolveByEmail_CreatesWithMarker(t *testing.T) {
	users := newStubUserRepo()
	g := NewGoogleAuth("client-id", "secret", "http://localhost/cb", NewJWTService("s"), users)

	created, err := g.resolveByEmail(context.Background(), GoogleProfile{
		Email:   "new@x.com",
		Name:    "New User",
		Picture: "https://example.com/p.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PasswordMarkerGoogle, created.PasswordHash)
	assert.Equal(t, "https://example.com/p.jpg", created.ProfilePic)

	// Missing picture falls back to the placeholder avatar.
	created2, err := g.resolveByEmail(context.Background(), GoogleProfile{Email: "other@x.com", Name: "Other"})
	require.NoError(t, err)
	assert.NotEmpty(t, created2.ProfilePic)
}

func TestGoogleAuth_Disabled(t *testing.T) {
	g := NewGoogleAuth("", "", "", NewJWTService("s"), newStubUserRepo())
	assert.False(t, g.Enabled())

	_, err := g.AuthCodeURL("state")
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)

	_, _, err = g.CompleteSignIn(context.Background(), "code")
	assert.ErrorIs(t, err, ErrOAuthNotConfigured)
}
