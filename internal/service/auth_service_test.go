package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
)

func newTestAuthService(f ledgerFixture, secret string) *authService {
	return NewAuthService(f.credentials, NewMemorySessionStore(), f.validate, f.activity, secret, time.Hour, zerolog.Nop()).(*authService)
}

func TestAuthServicePasscodeScenario(t *testing.T) {
	f := newLedgerFixture(t)
	svc := newTestAuthService(f, "secret")
	ctx := context.Background()

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	require.False(t, status.PasscodeSet)

	_, err = svc.Login(ctx, dto.LoginRequest{Passcode: "abc12"})
	require.ErrorIs(t, err, ErrPasscodeTooShort)

	first, err := svc.Login(ctx, dto.LoginRequest{Passcode: "abc123"})
	require.NoError(t, err)
	require.True(t, first.FirstRun)
	require.NotEmpty(t, first.Token)

	status, err = svc.Status(ctx)
	require.NoError(t, err)
	require.True(t, status.PasscodeSet)

	sessionID, err := svc.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, sessionID))
	_, err = svc.Authenticate(ctx, first.Token)
	require.ErrorIs(t, err, ErrSessionInvalid)

	_, err = svc.Login(ctx, dto.LoginRequest{Passcode: "xyz999"})
	require.ErrorIs(t, err, ErrInvalidPasscode)

	second, err := svc.Login(ctx, dto.LoginRequest{Passcode: "abc123"})
	require.NoError(t, err)
	require.False(t, second.FirstRun)

	_, err = svc.Authenticate(ctx, second.Token)
	require.NoError(t, err)
	require.Equal(t, []string{ActionPasscodeSet}, f.activity.actions())
}

func TestAuthServiceStoresHashNotPasscode(t *testing.T) {
	f := newLedgerFixture(t)
	svc := newTestAuthService(f, "secret")

	_, err := svc.Login(context.Background(), dto.LoginRequest{Passcode: "abc123"})
	require.NoError(t, err)

	credential, err := f.credentials.Get(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, "abc123", credential.PasscodeHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(credential.PasscodeHash), passcodeDigest("abc123")))
}

func TestAuthServiceAcceptsLongMultiBytePasscode(t *testing.T) {
	f := newLedgerFixture(t)
	svc := newTestAuthService(f, "secret")
	ctx := context.Background()

	passcode := strings.Repeat("画", 30)
	require.Greater(t, len(passcode), 72)

	first, err := svc.Login(ctx, dto.LoginRequest{Passcode: passcode})
	require.NoError(t, err)
	require.True(t, first.FirstRun)

	again, err := svc.Login(ctx, dto.LoginRequest{Passcode: passcode})
	require.NoError(t, err)
	require.False(t, again.FirstRun)

	_, err = svc.Login(ctx, dto.LoginRequest{Passcode: strings.Repeat("画", 29) + "图"})
	require.ErrorIs(t, err, ErrInvalidPasscode)
}

func TestAuthServiceRejectsForeignAndExpiredTokens(t *testing.T) {
	f := newLedgerFixture(t)
	svc := newTestAuthService(f, "secret")
	other := newTestAuthService(f, "another-secret")
	ctx := context.Background()

	start := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	login, err := svc.Login(ctx, dto.LoginRequest{Passcode: "abc123"})
	require.NoError(t, err)
	require.Equal(t, start.Add(time.Hour), login.ExpiresAt)

	_, err = other.Authenticate(ctx, login.Token)
	require.ErrorIs(t, err, ErrSessionInvalid)

	_, err = svc.Authenticate(ctx, "not-a-token")
	require.ErrorIs(t, err, ErrSessionInvalid)

	svc.now = func() time.Time { return start.Add(2 * time.Hour) }
	_, err = svc.Authenticate(ctx, login.Token)
	require.ErrorIs(t, err, ErrSessionInvalid)
}

func TestAuthServiceResetPasscode(t *testing.T) {
	f := newLedgerFixture(t)
	svc := newTestAuthService(f, "secret")
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginRequest{Passcode: "abc123"})
	require.NoError(t, err)
	require.NoError(t, svc.ResetPasscode(ctx))

	status, err := svc.Status(ctx)
	require.NoError(t, err)
	require.False(t, status.PasscodeSet)

	login, err := svc.Login(ctx, dto.LoginRequest{Passcode: "new-passcode"})
	require.NoError(t, err)
	require.True(t, login.FirstRun)
	require.Equal(t, []string{ActionPasscodeSet, ActionPasscodeReset, ActionPasscodeSet}, f.activity.actions())
}
