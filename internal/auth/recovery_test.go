package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingobuddy/server/internal/repo"
)

// recordingSender captures sent mail and can be told to fail delivery.
type recordingSender struct {
	to      []string
	bodies  []string
	failErr error
}

func (s *recordingSender) Send(toAddress, subject, body string) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.to = append(s.to, toAddress)
	s.bodies = append(s.bodies, body)
	return nil
}

func newRecoveryFixture(t *testing.T) (*RecoveryService, *stubUserRepo, *recordingSender) {
	t.Helper()
	users := newStubUserRepo()
	_, err := users.Create(context.Background(), "alice@x.com", "$2a$10$hash", "Alice", "")
	require.NoError(t, err)

	sender := &recordingSender{}
	svc := NewRecoveryService(users, sender)
	return svc, users, sender
}

func storedCode(t *testing.T, users *stubUserRepo, email string) string {
	t.Helper()
	u, err := users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, u.ResetCode, "a code should be stored")
	require.NotNil(t, u.ResetCodeExpiresAt, "expiry must accompany the code")
	return *u.ResetCode
}

func TestRecovery_RequestReset(t *testing.T) {
	svc, users, sender := newRecoveryFixture(t)
	ctx := context.Background()

	mailErr, err := svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.NoError(t, mailErr)

	code := storedCode(t, users, "alice@x.com")
	assert.Len(t, code, 6)
	require.Len(t, sender.to, 1)
	assert.Equal(t, "alice@x.com", sender.to[0])
	assert.Contains(t, sender.bodies[0], code)
}

func TestRecovery_RequestResetUnknownEmail(t *testing.T) {
	svc, _, _ := newRecoveryFixture(t)

	_, err := svc.RequestReset(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, repo.ErrUserNotFound)
}

func TestRecovery_MailFailureIsNonFatal(t *testing.T) {
	svc, users, sender := newRecoveryFixture(t)
	sender.failErr = errors.New("smtp down")

	mailErr, err := svc.RequestReset(context.Background(), "alice@x.com")
	require.NoError(t, err, "delivery failure must not fail the request")
	assert.Error(t, mailErr)
	assert.NotEmpty(t, storedCode(t, users, "alice@x.com"), "code must be stored regardless")
}

func TestRecovery_VerifyCodeIsSingleUse(t *testing.T) {
	svc, users, _ := newRecoveryFixture(t)
	ctx := context.Background()

	_, err := svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)
	code := storedCode(t, users, "alice@x.com")

	require.NoError(t, svc.VerifyCode(ctx, "alice@x.com", code))

	// Consumed: the same code no longer verifies.
	err = svc.VerifyCode(ctx, "alice@x.com", code)
	assert.ErrorIs(t, err, ErrResetCodeInvalid)
}

func TestRecovery_VerifyCodeIncorrect(t *testing.T) {
	svc, users, _ := newRecoveryFixture(t)
	ctx := context.Background()

	_, err := svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)
	code := storedCode(t, users, "alice@x.com")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	assert.ErrorIs(t, svc.VerifyCode(ctx, "alice@x.com", wrong), ErrResetCodeIncorrect)

	// A wrong guess does not consume the code.
	assert.NoError(t, svc.VerifyCode(ctx, "alice@x.com", code))
}

func TestRecovery_VerifyCodeExpired(t *testing.T) {
	svc, users, _ := newRecoveryFixture(t)
	ctx := context.Background()

	_, err := svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)
	code := storedCode(t, users, "alice@x.com")

	svc.now = func() time.Time { return time.Now().Add(resetCodeExpiry + time.Minute) }
	assert.ErrorIs(t, svc.VerifyCode(ctx, "alice@x.com", code), ErrResetCodeExpired)

	// Expiry clears the stored state.
	u, err := users.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Nil(t, u.ResetCode)
	assert.Nil(t, u.ResetCodeExpiresAt)
}

func TestRecovery_VerifyCodeNoneStored(t *testing.T) {
	svc, _, _ := newRecoveryFixture(t)

	err := svc.VerifyCode(context.Background(), "alice@x.com", "123456")
	assert.ErrorIs(t, err, ErrResetCodeInvalid)

	err = svc.VerifyCode(context.Background(), "nobody@x.com", "123456")
	assert.ErrorIs(t, err, ErrResetCodeInvalid)
}

func TestRecovery_ResetPassword(t *testing.T) {
	svc, users, _ := newRecoveryFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.ResetPassword(ctx, "alice@x.com", "newpassword", "different"), ErrPasswordMismatch)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "alice@x.com", "short", "short"), ErrWeakPassword)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "nobody@x.com", "newpassword", "newpassword"), repo.ErrUserNotFound)

	// Leave residual recovery state around, then reset.
	_, err := svc.RequestReset(ctx, "alice@x.com")
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, "alice@x.com", "newpassword", "newpassword"))

	u, err := users.GetByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, CheckPassword(u.PasswordHash, "newpassword"))
	assert.Nil(t, u.ResetCode, "reset must clear residual recovery state")
}

func TestGenerateResetCode_format(t *testing.T) {
	for i := 0; i < 20; i++ {
		code := generateResetCode()
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9', "code %q must be numeric", code)
		}
	}
}
