package membership

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/campushub/campushub/internal/authz"
	"github.com/campushub/campushub/internal/identity"
	"github.com/campushub/campushub/internal/platform/httpx"
)

// Handler exposes the membership JSON API under /clubs/{clubID}/members.
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

// MountRoutes attaches membership routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.join)
	r.Delete("/me", h.leave)
	r.Post("/{userID}/approve", h.approve)
	r.Post("/{userID}/reject", h.reject)
	r.Patch("/{userID}/role", h.setRole)
	r.Delete("/{userID}", h.remove)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	principal, clubID, ok := h.principalAndClub(w, r)
	if !ok {
		return
	}
	m, decision, err := h.service.Join(r.Context(), principal, clubID)
	if err != nil {
		h.logger.Error("join club", slog.String("club_id", clubID.String()), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, clubID, ok := h.principalAndClub(w, r)
	if !ok {
		return
	}
	members, decision, err := h.service.List(r.Context(), principal, clubID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"members": members})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject)
}

type decideFunc func(ctx context.Context, p identity.Principal, clubID uuid.UUID, userID int64) (*Membership, authz.Decision, error)

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op decideFunc) {
	principal, clubID, ok := h.principalAndClub(w, r)
	if !ok {
		return
	}
	userID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	m, decision, err := op(r.Context(), principal, clubID, userID)
	if err != nil {
		h.logger.Error("decide membership",
			slog.String("club_id", clubID.String()),
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

type setRoleRequest struct {
	Role Role `json:"role"`
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	principal, clubID, ok := h.principalAndClub(w, r)
	if !ok {
		return
	}
	userID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	var req setRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if !req.Role.IsValid() {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	m, decision, err := h.service.SetRole(r.Context(), principal, clubID, userID, req.Role)
	if err != nil {
		h.logger.Error("set member role",
			slog.String("club_id", clubID.String()),
			slog.Int64("user_id", userID),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !decision.Allowed {
		httpx.RespondDeny(w, string(decision.Reason))
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	principal, clubID, ok := h.principalAndClub(w, r)
	if !ok {
		return
	}
	userID, ok := h.memberID(w, r)
	if !ok {
		return
	}
	decision, err := h.service.Remove(r.Context(), principal, clubID, userID)
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

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	principal, clubID, ok := h.principalAndClub(w, r)
	if !ok {
		return
	}
	decision, err := h.service.Leave(r.Context(), principal, clubID)
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

func (h *Handler) principalAndClub(w http.ResponseWriter, r *http.Request) (identity.Principal, uuid.UUID, bool) {
	principal, ok := identity.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return identity.Principal{}, uuid.Nil, false
	}
	clubID, err := uuid.Parse(chi.URLParam(r, "clubID"))
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return identity.Principal{}, uuid.Nil, false
	}
	return principal, clubID, true
}

func (h *Handler) memberID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return 0, false
	}
	return userID, true
}
