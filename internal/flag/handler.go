package flag

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/authz"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/platform/httpx"
)

// Handler exposes the flag JSON API under /flags. Filing is addressed by
// target: POST /flags/targets/{targetType}/{targetID}.
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

// MountRoutes attaches flag routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listOpen)
	r.Post("/targets/{targetType}/{targetID}", h.file)
	r.Get("/targets/{targetType}/{targetID}", h.listByTarget)
	r.Post("/{flagID}/review", h.review)
	r.Post("/{flagID}/resolve", h.resolve)
	r.Post("/{flagID}/dismiss", h.dismiss)
	r.Delete("/{flagID}", h.withdraw)
}

func (h *Handler) file(w http.ResponseWriter, r *http.Request) {
	principal, targetType, targetID, ok := h.principalAndTarget(w, r)
	if !ok {
		return
	}
	var req FileFlagRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	f, decision, err := h.service.File(r.Context(), principal, targetType, targetID, req)
	if err != nil {
		h.logger.Error("file flag",
			slog.String("target_type", string(targetType)),
			slog.String("target_id", targetID.String()),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusCreated, f)
}

func (h *Handler) listOpen(w http.ResponseWriter, r *http.Request) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	flags, decision, err := h.service.ListOpen(r.Context(), principal)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"flags": flags})
}

func (h *Handler) listByTarget(w http.ResponseWriter, r *http.Request) {
	principal, targetType, targetID, ok := h.principalAndTarget(w, r)
	if !ok {
		return
	}
	flags, decision, err := h.service.ListByTarget(r.Context(), principal, targetType, targetID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"flags": flags})
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Review)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Resolve)
}

func (h *Handler) dismiss(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Dismiss)
}

type transitionFunc func(ctx context.Context, p identity.Principal, id uuid.UUID, req TransitionFlagRequest) (*Flag, authz.Decision, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op transitionFunc) {
	principal, id, ok := h.principalAndFlag(w, r)
	if !ok {
		return
	}
	req := TransitionFlagRequest{}
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	}
	f, decision, err := op(r.Context(), principal, id, req)
	if err != nil {
		h.logger.Error("transition flag", slog.String("flag_id", id.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, f)
}

func (h *Handler) withdraw(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := h.principalAndFlag(w, r)
	if !ok {
		return
	}
	decision, err := h.service.Withdraw(r.Context(), principal, id)
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

func (h *Handler) principalAndTarget(w http.ResponseWriter, r *http.Request) (identity.Principal, TargetType, uuid.UUID, bool) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return identity.Principal{}, "", uuid.Nil, false
	}
	targetType := TargetType(chi.URLParam(r, "targetType"))
	if !targetType.IsValid() {
		httpx.RespondError(w, httpx.ErrValidation)
		return identity.Principal{}, "", uuid.Nil, false
	}
	targetID, err := uuid.Parse(chi.URLParam(r, "targetID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return identity.Principal{}, "", uuid.Nil, false
	}
	return principal, targetType, targetID, true
}

func (h *Handler) principalAndFlag(w http.ResponseWriter, r *http.Request) (identity.Principal, uuid.UUID, bool) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return identity.Principal{}, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "flagID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return identity.Principal{}, uuid.Nil, false
	}
	return principal, id, true
}
