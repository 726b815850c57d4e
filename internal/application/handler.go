// AngelaMos | 2026
// handler.go

package application

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/applications", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Submit)
		r.Get("/mine", h.ListMine)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, staffOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/applications", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(staffOnly)

		r.Get("/", h.List)
		r.Get("/{applicationID}", h.Get)
		r.Patch("/{applicationID}/approve", h.Approve)
		r.Patch("/{applicationID}/reject", h.Reject)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	app, err := h.service.Submit(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.Created(w, ToApplicationResponse(app))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	page := core.PageFromRequest(r)
	apps, total, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()), page)
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.Paginated(w, ToApplicationResponseList(apps), page.Page, page.PageSize, total)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListParams{
		PageParams: core.PageFromRequest(r),
		Status:     Status(r.URL.Query().Get("status")),
	}

	apps, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.Paginated(w, ToApplicationResponseList(apps), params.Page, params.PageSize, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	app, err := h.service.Get(r.Context(), chi.URLParam(r, "applicationID"))
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.OK(w, ToApplicationResponse(app))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	app, err := h.service.Approve(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "applicationID"),
	)
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.OK(w, ToApplicationResponse(app))
}

// Reject takes an optional reason; an empty body is accepted.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if r.ContentLength != 0 && !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	app, err := h.service.Reject(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "applicationID"),
		req.Reason,
	)
	if err != nil {
		core.HandleError(w, err, "application")
		return
	}

	core.OK(w, ToApplicationResponse(app))
}
