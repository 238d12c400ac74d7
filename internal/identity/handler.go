package identity

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/campushub/campushub/internal/platform/httpx"
)

// Handler exposes platform role administration. Routes are mounted behind
// the admin-only middleware; the handler itself does not re-check.
type Handler struct {
	logger   *slog.Logger
	resolver *Resolver
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, resolver *Resolver) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, resolver: resolver}
}

// MountRoutes attaches user administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Patch("/{userID}/role", h.setRole)
}

type setRoleRequest struct {
	Role Role `json:"role"`
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
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
	if err := h.resolver.SetRole(r.Context(), userID, req.Role); err != nil {
		h.logger.Error("set role", slog.Int64("user_id", userID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"role":    string(req.Role),
	})
}
