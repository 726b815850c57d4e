// AngelaMos | 2026
// handler.go

package department

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

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/departments", h.List)
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, superadminOnly func(http.Handler) http.Handler,
) {
	r.Route("/superadmin/departments", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(superadminOnly)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{departmentID}", h.Get)
		r.Patch("/{departmentID}", h.Update)
		r.Delete("/{departmentID}", h.Delete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	depts, err := h.service.List(r.Context())
	if err != nil {
		core.HandleError(w, err, "department")
		return
	}

	core.OK(w, ToDepartmentResponseList(depts))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	dept, err := h.service.Get(r.Context(), chi.URLParam(r, "departmentID"))
	if err != nil {
		core.HandleError(w, err, "department")
		return
	}

	core.OK(w, ToDepartmentResponse(dept))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateDepartmentRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	dept, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		core.HandleError(w, err, "department code")
		return
	}

	core.Created(w, ToDepartmentResponse(dept))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateDepartmentRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	dept, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "departmentID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "department")
		return
	}

	core.OK(w, ToDepartmentResponse(dept))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.Delete(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "departmentID"),
	)
	if err != nil {
		core.HandleError(w, err, "department")
		return
	}

	core.NoContent(w)
}
