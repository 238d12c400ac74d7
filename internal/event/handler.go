package event

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/platform/httpx"
)

// Handler exposes the event JSON API. Club-scoped routes mount under
// /clubs/{clubID}/events, event-scoped ones under /events.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountClubRoutes attaches the club-scoped event routes.
func (h *Handler) MountClubRoutes(r chi.Router) {
	r.Get("/", h.listByClub)
	r.Post("/", h.create)
}

// MountRoutes attaches the event-scoped routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUpcoming)
	r.Get("/{eventID}", h.get)
	r.Patch("/{eventID}", h.update)
	r.Delete("/{eventID}", h.remove)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	clubID, err := uuid.Parse(chi.URLParam(r, "clubID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	var req CreateEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	e, decision, err := h.service.Create(r.Context(), principal, clubID, req)
	if err != nil {
		h.logger.Error("create event", slog.String("club_id", clubID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) listByClub(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	clubID, err := uuid.Parse(chi.URLParam(r, "clubID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	events, decision, err := h.service.ListByClub(r.Context(), principal, clubID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) listUpcoming(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.service.ListUpcoming(r.Context(), limit)
	if err != nil {
		h.logger.Error("list upcoming events", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	e, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}
	var req UpdateEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	e, decision, err := h.service.Update(r.Context(), principal, id, req)
	if err != nil {
		h.logger.Error("update event", slog.String("event_id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}
	decision, err := h.service.Delete(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) principalAndID(w http.ResponseWriter, r *http.Request) (identity.Principal, uuid.UUID, bool) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return identity.Principal{}, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "eventID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return identity.Principal{}, uuid.Nil, false
	}
	return principal, id, true
}
