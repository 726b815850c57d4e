// AngelaMos | 2026
// handler.go

package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/thesis-archive/internal/config"
	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/middleware"
)

type Handler struct {
	service   *Service
	jwt       *JWTManager
	cookie    config.CookieConfig
	validator *validator.Validate
}

func NewHandler(service *Service, jwt *JWTManager, cookie config.CookieConfig) *Handler {
	return &Handler{
		service:   service,
		jwt:       jwt,
		cookie:    cookie,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Gates groups the middlewares the auth routes need. Throttle guards the
// credential and code guessing endpoints and may be nil.
type Gates struct {
	Required func(http.Handler) http.Handler
	Soft     func(http.Handler) http.Handler
	Optional func(http.Handler) http.Handler
	Throttle func(http.Handler) http.Handler
}

func (g Gates) throttle() func(http.Handler) http.Handler {
	if g.Throttle == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return g.Throttle
}

func (h *Handler) RegisterRoutes(r chi.Router, gates Gates) {
	r.Route("/auth", func(r chi.Router) {
		throttled := r.With(gates.throttle())

		r.Post("/signup", h.Signup)
		throttled.Post("/login", h.Login)
		throttled.Post("/forgot-password", h.ForgotPassword)
		throttled.Post("/reset-password/{token}", h.ResetPassword)
		throttled.With(gates.Optional).Post("/verify-email", h.VerifyEmail)

		r.With(gates.Optional).Post("/logout", h.Logout)
		r.With(gates.Soft).Get("/check-auth", h.CheckAuth)

		r.Group(func(r chi.Router) {
			r.Use(gates.Required)
			r.Post("/resend-verification", h.ResendVerification)
			r.Post("/change-password", h.ChangePassword)
		})
	})
}

// RegisterWellKnown serves the public key set outside the API prefix.
func (h *Handler) RegisterWellKnown(r chi.Router) {
	r.Get("/.well-known/jwks.json", h.jwt.JWKSHandler())
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Signup(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			core.JSONError(w, core.DuplicateError("email"))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.setSessionCookie(w, resp.Token)
	core.Created(w, resp)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.UnauthorizedError("invalid email or password"),
			)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	h.setSessionCookie(w, resp.Token)
	core.OK(w, resp)
}

// Logout always clears the session cookie, banned or expired callers
// included. The token is revoked when one was presented and still verifies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := middleware.GetClaims(r.Context()); claims != nil {
		if err := h.service.Logout(r.Context(), claims.JTI, claims.ExpiresAt); err != nil {
			core.InternalServerError(w, err)
			return
		}
	}

	h.clearSessionCookie(w)
	core.Message(w, "logged out")
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	user, err := h.service.VerifyEmail(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			core.BadRequest(w, ErrInvalidCode.Error())
			return
		}
		if errors.Is(err, ErrTooManyAttempts) {
			core.JSONError(w, core.NewAppError(
				err, ErrTooManyAttempts.Error(), http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS",
			))
			return
		}
		core.HandleError(w, err, "user")
		return
	}

	core.OK(w, toUserResponse(user))
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	err := h.service.ResendVerification(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, ErrAlreadyVerified) {
			core.BadRequest(w, ErrAlreadyVerified.Error())
			return
		}
		core.HandleError(w, err, "user")
		return
	}

	core.Message(w, "verification code sent")
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Message(w, "if the account exists, a reset link has been sent")
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	token := strings.TrimSpace(chi.URLParam(r, "token"))
	if err := h.service.ResetPassword(r.Context(), token, req.Password); err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			core.BadRequest(w, ErrInvalidResetToken.Error())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Message(w, "password updated")
}

// CheckAuth reports the caller behind the soft gate, ban state included.
func (h *Handler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetCaller(r.Context())
	if caller == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, CheckAuthResponse{
		ID:         caller.ID,
		Email:      caller.Email,
		Name:       caller.Name,
		Role:       caller.Role,
		IsVerified: caller.IsVerified,
		IsBanned:   caller.IsBanned,
		BanReason:  caller.BanReason,
	})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	var req ChangePasswordRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	err := h.service.ChangePassword(
		r.Context(),
		userID,
		req.CurrentPassword,
		req.NewPassword,
	)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(
				w,
				core.UnauthorizedError("current password is incorrect"),
			)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token TokenResponse) {
	if h.cookie.Name == "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token.AccessToken,
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  token.ExpiresAt,
		MaxAge:   token.ExpiresIn,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite(h.cookie.SameSite),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	if h.cookie.Name == "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: sameSite(h.cookie.SameSite),
	})
}

func sameSite(mode string) http.SameSite {
	switch strings.ToLower(mode) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
