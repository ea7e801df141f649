package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registrar/internal/registration/models"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	authmw "registrar/pkg/platform/middleware/auth"
	"registrar/pkg/requestcontext"
)

// Service defines the registration operations exposed over HTTP.
type Service interface {
	Create(ctx context.Context, req *models.CreateRequest) (*models.Registration, error)
	Get(ctx context.Context, principal *authmw.Principal, rid string) (*models.Registration, error)
	SetStatus(ctx context.Context, principal *authmw.Principal, rid string, req *models.StatusUpdateRequest) (*models.Registration, error)
	RequestAccount(ctx context.Context, principal *authmw.Principal, rid string, req *models.AccountRequest) (*models.Registration, error)
	Delete(ctx context.Context, principal *authmw.Principal, rid string) (*models.Registration, error)
}

// Handler serves /v1/registrations.
type Handler struct {
	service       Service
	authenticator authmw.Authenticator
	logger        *slog.Logger
}

func New(service Service, authenticator authmw.Authenticator, logger *slog.Logger) *Handler {
	return &Handler{
		service:       service,
		authenticator: authenticator,
		logger:        logger,
	}
}

// Register mounts the routes on r. Paths are expected without trailing
// slashes (see chi's StripSlashes).
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleCreate)
	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireBasicAuth(h.authenticator, h.logger))
		r.Get("/{rid}", h.handleGet)
		r.Put("/{rid}", h.handleSetStatus)
		r.Patch("/{rid}", h.handleRequestAccount)
		r.Delete("/{rid}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			h.writeError(ctx, w, err, "invalid create registration request")
			return
		}
	}

	reg, err := h.service.Create(ctx, &req)
	if err != nil {
		h.writeError(ctx, w, err, "failed to create registration")
		return
	}

	resp := models.ToApplicantResponse(reg)
	resp.Token = reg.Token
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal := authmw.GetPrincipal(ctx)

	reg, err := h.service.Get(ctx, principal, chi.URLParam(r, "rid"))
	if err != nil {
		h.writeError(ctx, w, err, "failed to read registration")
		return
	}
	if principal.Role == authmw.RoleManager {
		httputil.WriteJSON(w, http.StatusOK, models.ToManagerResponse(reg))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToApplicantResponse(reg))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.StatusUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid status update request")
		return
	}

	reg, err := h.service.SetStatus(ctx, authmw.GetPrincipal(ctx), chi.URLParam(r, "rid"), &req)
	if err != nil {
		h.writeError(ctx, w, err, "failed to update registration status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToManagerResponse(reg))
}

func (h *Handler) handleRequestAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.AccountRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(ctx, w, err, "invalid account request")
		return
	}

	reg, err := h.service.RequestAccount(ctx, authmw.GetPrincipal(ctx), chi.URLParam(r, "rid"), &req)
	if err != nil {
		h.writeError(ctx, w, err, "failed to request account")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToApplicantResponse(reg))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reg, err := h.service.Delete(ctx, authmw.GetPrincipal(ctx), chi.URLParam(r, "rid"))
	if err != nil {
		h.writeError(ctx, w, err, "failed to delete registration")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToApplicantResponse(reg))
}

// writeError logs client mistakes at warn and everything else at error. A
// registration that vanished after authentication is reported the same way
// as bad credentials.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInternal, dErrors.CodeStorageFailure:
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if dErrors.HasCode(err, dErrors.CodeNotFound) && authmw.GetPrincipal(ctx) != nil {
		authmw.WriteUnauthorized(w)
		return
	}
	httputil.WriteError(w, err)
}
