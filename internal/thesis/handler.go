// AngelaMos | 2026
// handler.go

package thesis

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/thesis-archive/internal/core"
	"github.com/carterperez-dev/thesis-archive/internal/middleware"
	"github.com/carterperez-dev/thesis-archive/internal/policy"
)

// multipartOverhead is allowed on top of the file limit for form fields and
// part headers.
const multipartOverhead = 1 << 20

type Handler struct {
	service   *Service
	maxUpload int64
	validator *validator.Validate
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{
		service:   service,
		maxUpload: maxUploadBytes,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/theses", func(r chi.Router) {
		r.Get("/", h.ListPublic)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Get("/mine", h.ListMine)
			r.Post("/{thesisID}/vote", h.Vote)
			r.With(
				middleware.RequireRole(policy.RoleStudent),
				middleware.RequireVerified,
			).Post("/", h.Upload)
		})

		r.Get("/{thesisID}", h.GetPublic)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, staffOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/theses", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(staffOnly)

		r.Get("/", h.ListAdmin)
		r.Get("/trash", h.ListTrash)
		r.Delete("/rejected", h.PurgeRejected)

		r.Get("/{thesisID}", h.Get)
		r.Patch("/{thesisID}", h.Update)
		r.Delete("/{thesisID}", h.Trash)
		r.Patch("/{thesisID}/approve", h.Approve)
		r.Patch("/{thesisID}/reject", h.Reject)
		r.Post("/{thesisID}/restore", h.Restore)
		r.Delete("/{thesisID}/purge", h.Purge)
	})
}

func listParams(r *http.Request) ListParams {
	q := r.URL.Query()
	return ListParams{
		PageParams: core.PageFromRequest(r),
		Department: strings.ToUpper(strings.TrimSpace(q.Get("department"))),
		Course:     strings.ToUpper(strings.TrimSpace(q.Get("course"))),
		Year:       core.ParseIntQuery(r, "year", 0),
		Query:      strings.TrimSpace(q.Get("q")),
		Status:     Status(q.Get("status")),
	}
}

func (h *Handler) writeList(w http.ResponseWriter, params ListParams, theses []Thesis, total int) {
	params.Normalize()
	core.Paginated(w, ToThesisResponseList(theses), params.Page, params.PageSize, total)
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	theses, total, err := h.service.ListPublic(r.Context(), params)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	h.writeList(w, params, theses, total)
}

func (h *Handler) GetPublic(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.GetPublic(r.Context(), chi.URLParam(r, "thesisID"))
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.OK(w, ToThesisResponse(t))
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	page := core.PageFromRequest(r)
	theses, total, err := h.service.ListMine(r.Context(), middleware.GetUserID(r.Context()), page)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.Paginated(w, ToThesisResponseList(theses), page.Page, page.PageSize, total)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			core.BadRequest(w, "file exceeds upload limit")
			return
		}
		core.BadRequest(w, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll() //nolint:errcheck // temp file cleanup
		}
	}()

	year, _ := strconv.Atoi(r.FormValue("year")) //nolint:errcheck // validated below
	req := UploadRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Author:      r.FormValue("author"),
		Course:      r.FormValue("course"),
		Year:        year,
		Department:  r.FormValue("department"),
	}
	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		core.BadRequest(w, "file is required")
		return
	}
	defer file.Close() //nolint:errcheck // read-only multipart part

	t, err := h.service.Upload(
		r.Context(),
		middleware.GetUserID(r.Context()),
		req,
		header.Filename,
		file,
	)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}

	core.Created(w, ToThesisResponse(t))
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	tally, err := h.service.Vote(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "thesisID"),
		*req.Value,
	)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}

	core.OK(w, VoteResponse{Tally: tally, Value: *req.Value})
}

func (h *Handler) ListAdmin(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	theses, total, err := h.service.ListAdmin(r.Context(), params)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	h.writeList(w, params, theses, total)
}

func (h *Handler) ListTrash(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)
	theses, total, err := h.service.ListTrash(r.Context(), params)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	h.writeList(w, params, theses, total)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), chi.URLParam(r, "thesisID"))
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.OK(w, ToThesisResponse(t))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateThesisRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	t, err := h.service.Update(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "thesisID"),
		req,
	)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.OK(w, ToThesisResponse(t))
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Approve(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "thesisID"),
	)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.OK(w, ToThesisResponse(t))
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if !core.DecodeAndValidate(w, r, h.validator, &req) {
		return
	}

	t, err := h.service.Reject(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "thesisID"),
		req.Reason,
	)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.OK(w, ToThesisResponse(t))
}

func (h *Handler) Trash(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Trash(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "thesisID"),
	)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.OK(w, ToThesisResponse(t))
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Restore(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "thesisID"),
	)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.OK(w, ToThesisResponse(t))
}

func (h *Handler) Purge(w http.ResponseWriter, r *http.Request) {
	err := h.service.Purge(
		r.Context(),
		middleware.GetUserID(r.Context()),
		chi.URLParam(r, "thesisID"),
	)
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.NoContent(w)
}

func (h *Handler) PurgeRejected(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.PurgeRejected(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.HandleError(w, err, "thesis")
		return
	}
	core.OK(w, PurgeRejectedResponse{Count: count})
}
