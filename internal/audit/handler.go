// AngelaMos | 2026
// handler.go

package audit

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/thesis-archive/internal/core"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, staffOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/logs", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(staffOnly)

		r.Get("/", h.List)
	})
}

type ActorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type EntryResponse struct {
	ID        string         `json:"id"`
	Action    Action         `json:"action"`
	Actor     *ActorResponse `json:"actor,omitempty"`
	Details   any            `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

// ToEntryResponse renders details through the action's typed payload so
// every entry of one action has the same shape. Rows that no longer decode
// are passed through as stored.
func ToEntryResponse(e Entry) EntryResponse {
	resp := EntryResponse{
		ID:        e.ID,
		Action:    e.Action,
		CreatedAt: e.CreatedAt,
	}

	d, err := DecodeDetails(e.Action, e.Details)
	switch {
	case err == nil:
		resp.Details = d
	case len(e.Details) > 0:
		resp.Details = e.Details
	}

	if e.ActorID != nil {
		resp.Actor = &ActorResponse{
			ID:    *e.ActorID,
			Name:  deref(e.ActorName),
			Email: deref(e.ActorEmail),
			Role:  deref(e.ActorRole),
		}
	}

	return resp
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := core.PageFromRequest(r)
	action := Action(r.URL.Query().Get("action"))

	entries, total, err := h.service.List(r.Context(), page, action)
	if err != nil {
		core.HandleError(w, err, "audit log")
		return
	}

	items := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, ToEntryResponse(e))
	}

	core.Paginated(w, items, page.Page, page.PageSize, total)
}
