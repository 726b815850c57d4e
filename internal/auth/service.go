// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/carterperez-dev/thesis-archive/internal/config"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/notify"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrTooManyAttempts    = errors.New("too many wrong codes, request a new one")
)

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Revoker blacklists an access token until it would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

type ServiceConfig struct {
	Repo         Repository
	JWT          *JWTManager
	Users        UserProvider
	Revoker      Revoker
	Mailer       notify.Sender
	Verification config.VerificationConfig
	Logger       *slog.Logger
}

type Service struct {
	repo    Repository
	jwt     *JWTManager
	users   UserProvider
	revoker Revoker
	mailer  notify.Sender
	codes   config.VerificationConfig
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:    cfg.Repo,
		jwt:     cfg.JWT,
		users:   cfg.Users,
		revoker: cfg.Revoker,
		mailer:  cfg.Mailer,
		codes:   cfg.Verification,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, passwordHash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	// The account exists from here on. A missing code is recovered through
	// resend-verification.
	if err := s.issueVerificationCode(ctx, user); err != nil {
		s.logger.WarnContext(ctx, "verification code not issued at signup",
			"user_id", user.ID,
			"error", err,
		)
	}

	return s.createAuthResponse(user)
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // timing attack prevention - always verify to prevent enumeration
			_, _, _ = core.CheckPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, newHash, err := core.CheckPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return nil, ErrInvalidCredentials
	}

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			s.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		s.logger.WarnContext(ctx, "last login update failed", "user_id", user.ID, "error", err)
	}

	return s.createAuthResponse(user)
}

// Logout revokes the presented token. Tokens without a jti or already past
// expiry need no revocation.
func (s *Service) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" || s.revoker == nil {
		return nil
	}

	if err := s.revoker.Revoke(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (s *Service) VerifyEmail(
	ctx context.Context,
	callerID string,
	req VerifyEmailRequest,
) (*UserInfo, error) {
	lookup := VerificationLookup{UserID: callerID}
	if callerID == "" {
		if req.Email == "" {
			return nil, core.InvalidInputf("email is required")
		}
		lookup.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}

	id, err := s.repo.ConsumeVerificationCode(ctx, lookup, req.Code, s.codes.MaxAttempts)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.mailer.SendWelcome(ctx, user.Email, user.Name); err != nil {
		s.emailFailed(ctx, "welcome", user.ID, err)
	}

	return user, nil
}

func (s *Service) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	return s.issueVerificationCode(ctx, user)
}

// ForgotPassword never reports whether the email exists.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	token, hash, err := core.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	if err := s.repo.SetResetToken(ctx, user.ID, hash, s.now().Add(s.codes.ResetTTL)); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, token); err != nil {
		s.emailFailed(ctx, "password_reset", user.ID, err)
	}

	return nil
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return fmt.Errorf("reset password: %w", ErrInvalidResetToken)
	}

	passwordHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.repo.ConsumeResetToken(ctx, core.HashToken(token), passwordHash); err != nil {
		return err
	}

	return nil
}

func (s *Service) ChangePassword(
	ctx context.Context,
	userID, currentPassword, newPassword string,
) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	valid, _, err := core.CheckPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if !valid {
		return ErrInvalidCredentials
	}

	newHash, err := core.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func (s *Service) issueVerificationCode(ctx context.Context, user *UserInfo) error {
	code, err := core.GenerateVerificationCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}

	expiresAt := s.now().Add(s.codes.CodeTTL)
	if err := s.repo.SetVerificationCode(ctx, user.ID, code, expiresAt); err != nil {
		return err
	}

	if err := s.mailer.SendVerification(ctx, user.Email, user.Name, code); err != nil {
		s.emailFailed(ctx, "verification", user.ID, err)
	}

	return nil
}

func (s *Service) emailFailed(ctx context.Context, kind, userID string, err error) {
	core.EmailFailures.WithLabelValues(kind).Inc()
	s.logger.WarnContext(ctx, "email delivery failed",
		"kind", kind,
		"user_id", userID,
		"error", err,
	)
}

func (s *Service) createAuthResponse(user *UserInfo) (*AuthResponse, error) {
	issued, err := s.jwt.CreateAccessToken(AccessTokenClaims{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	return &AuthResponse{
		User: toUserResponse(user),
		Token: TokenResponse{
			AccessToken: issued.Token,
			TokenType:   "Bearer",
			ExpiresIn:   issued.ExpiresIn(),
			ExpiresAt:   issued.ExpiresAt,
		},
	}, nil
}
