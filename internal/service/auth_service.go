package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/lesson-ledger-api/internal/dto"
	"github.com/noah-isme/lesson-ledger-api/internal/ledger"
	"github.com/noah-isme/lesson-ledger-api/internal/models"
	"github.com/noah-isme/lesson-ledger-api/internal/observability"
	"github.com/noah-isme/lesson-ledger-api/internal/repository"
)

var (
	// ErrPasscodeTooShort indicates a first-run passcode below the minimum length.
	ErrPasscodeTooShort = fmt.Errorf("passcode must be at least %d characters", ledger.MinPasscodeLength)
	// ErrInvalidPasscode indicates a passcode that does not match the stored one.
	ErrInvalidPasscode = errors.New("invalid passcode")
	// ErrSessionInvalid indicates a token that is malformed, expired or logged out.
	ErrSessionInvalid = errors.New("session is invalid or expired")
)

const sessionSubject = "ledger-admin"

// AuthService gates the API behind the shared admin passcode.
type AuthService interface {
	Status(ctx context.Context) (dto.AuthStatusResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	Authenticate(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, sessionID string) error
	ResetPasscode(ctx context.Context) error
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type authService struct {
	credentials repository.CredentialRepository
	sessions    SessionStore
	validator   *validator.Validate
	activity    ActivityRecorder
	secret      []byte
	ttl         time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAuthService constructs the passcode gate.
func NewAuthService(credentials repository.CredentialRepository, sessions SessionStore, validate *validator.Validate, activity ActivityRecorder, secret string, ttl time.Duration, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &authService{
		credentials: credentials,
		sessions:    sessions,
		validator:   validate,
		activity:    activity,
		secret:      []byte(secret),
		ttl:         ttl,
		logger:      logger.With().Str("component", "auth_service").Logger(),
		now:         time.Now,
	}
}

func (s *authService) Status(ctx context.Context) (dto.AuthStatusResponse, error) {
	_, err := s.credentials.Get(ctx)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return dto.AuthStatusResponse{PasscodeSet: false, MinimumLength: ledger.MinPasscodeLength}, nil
	case err != nil:
		return dto.AuthStatusResponse{}, err
	}
	return dto.AuthStatusResponse{PasscodeSet: true, MinimumLength: ledger.MinPasscodeLength}, nil
}

// Login grants a session. On first run the submitted passcode becomes the stored
// one; afterwards it must match exactly.
func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	firstRun := false
	credential, err := s.credentials.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.setPasscode(ctx, payload.Passcode)
		switch {
		case err == nil:
			firstRun = true
		case errors.Is(err, repository.ErrCredentialExists):
			// A concurrent first login won; check against its passcode.
			credential, err = s.credentials.Get(ctx)
		}
	}
	if err != nil {
		return dto.LoginResponse{}, err
	}

	if !firstRun {
		if err := bcrypt.CompareHashAndPassword([]byte(credential.PasscodeHash), passcodeDigest(payload.Passcode)); err != nil {
			observability.LoginAttempts().WithLabelValues("rejected").Inc()
			return dto.LoginResponse{}, ErrInvalidPasscode
		}
	}

	resp, err := s.issueSession(ctx)
	if err != nil {
		return dto.LoginResponse{}, err
	}
	resp.FirstRun = firstRun
	observability.LoginAttempts().WithLabelValues("granted").Inc()
	return resp, nil
}

func (s *authService) setPasscode(ctx context.Context, passcode string) error {
	if utf8.RuneCountInString(passcode) < ledger.MinPasscodeLength {
		observability.LoginAttempts().WithLabelValues("too_short").Inc()
		return ErrPasscodeTooShort
	}

	hash, err := bcrypt.GenerateFromPassword(passcodeDigest(passcode), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	credential := models.AdminCredential{PasscodeHash: string(hash)}
	if err := s.credentials.Create(ctx, &credential); err != nil {
		if !errors.Is(err, repository.ErrCredentialExists) {
			s.logger.Error().Err(err).Msg("failed to store passcode")
		}
		return err
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{Action: ActionPasscodeSet, EntityType: "credential"})
	s.logger.Info().Msg("admin passcode set on first login")
	return nil
}

// passcodeDigest is what bcrypt sees. bcrypt rejects keys over 72 bytes, which a
// short passcode in a multi-byte script already exceeds.
func passcodeDigest(passcode string) []byte {
	sum := sha256.Sum256([]byte(passcode))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}

func (s *authService) issueSession(ctx context.Context) (dto.LoginResponse, error) {
	sessionID := newID()
	issued := s.now()
	expires := issued.Add(s.ttl)

	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionSubject,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	if err := s.sessions.Create(ctx, sessionID, s.ttl); err != nil {
		s.logger.Error().Err(err).Msg("failed to store session")
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{Token: token, ExpiresAt: expires.UTC()}, nil
}

// Authenticate validates a bearer token and returns its session id.
func (s *authService) Authenticate(ctx context.Context, token string) (string, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return "", ErrSessionInvalid
	}

	ok, err := s.sessions.Exists(ctx, claims.SessionID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrSessionInvalid
	}
	return claims.SessionID, nil
}

// Logout clears the session flag; unknown sessions are ignored.
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}

// ResetPasscode removes the stored passcode so the next login sets a new one.
// Live sessions are left to expire.
func (s *authService) ResetPasscode(ctx context.Context) error {
	if err := s.credentials.Delete(ctx); err != nil {
		return err
	}
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{Action: ActionPasscodeReset, EntityType: "credential"})
	return nil
}
