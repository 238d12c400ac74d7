package club

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/platform/httpx"
)

// Handler exposes the club JSON API.
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

// MountRoutes attaches club routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{clubID}", h.get)
	r.Delete("/{clubID}", h.remove)
	r.Post("/{clubID}/approve", h.approve)
	r.Post("/{clubID}/reject", h.reject)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req CreateClubRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	c, decision, err := h.service.Create(r.Context(), principal, req)
	if err != nil {
		h.logger.Error("create club", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	clubs, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("list clubs", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"clubs": clubs})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}
	c, decision, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}
	c, decision, err := h.service.Approve(r.Context(), principal, id)
	if err != nil {
		h.logger.Error("approve club", slog.String("club_id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndID(w, r)
	if !ok {
		return
	}
	var req RejectClubRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	c, decision, err := h.service.Reject(r.Context(), principal, id, req)
	if err != nil {
		h.logger.Error("reject club", slog.String("club_id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, c)
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
	id, err := uuid.Parse(chi.URLParam(r, "clubID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return identity.Principal{}, uuid.Nil, false
	}
	return principal, id, true
}
