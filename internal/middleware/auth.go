// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

const (
	CallerKey contextKey = "caller"
	ClaimsKey contextKey = "jwt_claims"
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

type AccessTokenClaims struct {
	UserID    string
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// Caller is the account resolved for the current request.
type Caller struct {
	ID         string
	Email      string
	Name       string
	Role       string
	IsVerified bool
	IsBanned   bool
	BanReason  string
}

// CallerResolver loads the live account behind a token subject. It returns
// an error wrapping core.ErrNotFound when the account no longer exists.
type CallerResolver interface {
	ResolveCaller(ctx context.Context, userID string) (*Caller, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type GateConfig struct {
	Verifier    TokenVerifier
	Resolver    CallerResolver
	Revocations RevocationChecker
	CookieName  string
}

// Gate authenticates requests and stores the resolved Caller in the request
// context.
type Gate struct {
	cfg GateConfig
}

func NewGate(cfg GateConfig) *Gate {
	return &Gate{cfg: cfg}
}

// Authenticator rejects missing or invalid credentials with 401 and banned
// accounts with 403.
func (g *Gate) Authenticator(next http.Handler) http.Handler {
	return g.handler(next, true)
}

// SoftAuthenticator is Authenticator without the ban check, so a banned
// client can still learn its own state.
func (g *Gate) SoftAuthenticator(next http.Handler) http.Handler {
	return g.handler(next, false)
}

// OptionalAuth attaches a caller when a valid token is present and never
// rejects the request. Banned callers are attached too; handlers behind it
// must not grant anything beyond the caller's own session.
func (g *Gate) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := g.ExtractToken(r)
		if token != "" {
			if caller, claims, err := g.authenticate(r.Context(), token); err == nil {
				r = r.WithContext(withIdentity(r.Context(), caller, claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) handler(next http.Handler, enforceBan bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := g.ExtractToken(r)
		if token == "" {
			core.JSONError(
				w,
				core.UnauthorizedError("missing authorization token"),
			)
			return
		}

		caller, claims, err := g.authenticate(r.Context(), token)
		if err != nil {
			handleAuthError(w, err)
			return
		}

		if enforceBan && caller.IsBanned {
			core.JSONError(w, core.BannedError(caller.BanReason))
			return
		}

		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), caller, claims)))
	})
}

func (g *Gate) authenticate(
	ctx context.Context,
	token string,
) (*Caller, *AccessTokenClaims, error) {
	claims, err := g.cfg.Verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	if g.cfg.Revocations != nil && claims.JTI != "" {
		revoked, err := g.cfg.Revocations.IsRevoked(ctx, claims.JTI)
		if err != nil {
			slog.WarnContext(ctx, "token revocation check failed, allowing",
				"error", err,
			)
		} else if revoked {
			return nil, nil, core.ErrTokenRevoked
		}
	}

	caller, err := g.cfg.Resolver.ResolveCaller(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, nil, core.ErrTokenInvalid
		}
		return nil, nil, err
	}

	return caller, claims, nil
}

// ExtractToken prefers the Authorization header and falls back to the
// session cookie.
func (g *Gate) ExtractToken(r *http.Request) string {
	if token := BearerToken(r); token != "" {
		return token
	}

	if g.cfg.CookieName == "" {
		return ""
	}

	cookie, err := r.Cookie(g.cfg.CookieName)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(cookie.Value)
}

func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := GetCaller(r.Context())

			if caller == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[caller.Role]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := GetCaller(r.Context())

		if caller == nil {
			core.JSONError(w, core.UnauthorizedError("authentication required"))
			return
		}

		if !caller.IsVerified {
			core.JSONError(w, core.ForbiddenError("email verification required"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func handleAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	default:
		core.InternalServerError(w, err)
	}
}

func withIdentity(
	ctx context.Context,
	caller *Caller,
	claims *AccessTokenClaims,
) context.Context {
	ctx = context.WithValue(ctx, CallerKey, caller)
	ctx = context.WithValue(ctx, ClaimsKey, claims)
	return ctx
}

// WithCaller returns ctx carrying caller.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, CallerKey, caller)
}

func GetCaller(ctx context.Context) *Caller {
	if caller, ok := ctx.Value(CallerKey).(*Caller); ok {
		return caller
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if caller := GetCaller(ctx); caller != nil {
		return caller.ID
	}
	return ""
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}
