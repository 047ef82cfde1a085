// Package handler exposes the verification endpoints over HTTP. It stays
// thin: decode, delegate to the service, encode.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"proovd/internal/platform/middleware"
	"proovd/internal/transport/http/shared"
	"proovd/internal/verification/models"
	id "proovd/pkg/domain"
	dErrors "proovd/pkg/domain-errors"
)

// Service defines the verification operations the handler depends on.
type Service interface {
	GetOrInitialize(ctx context.Context, websiteID id.WebsiteID, rawDomain string) (*models.RecordResponse, error)
	ChangeMethod(ctx context.Context, websiteID id.WebsiteID, method string) (*models.RecordResponse, error)
	Verify(ctx context.Context, websiteID id.WebsiteID) (*models.VerifyResponse, error)
	Check(ctx context.Context, websiteID id.WebsiteID, method string) (*models.CheckResponse, error)
}

// Handler handles the verification endpoints.
type Handler struct {
	logger       *slog.Logger
	verification Service
	jwtValidator middleware.JWTValidator
}

// New creates a new verification Handler.
func New(verification Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		verification: verification,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the verification routes with their middleware chain.
func (h *Handler) Register(r chi.Router) {
	vr := chi.NewRouter()
	vr.Use(middleware.Recovery(h.logger))
	vr.Use(middleware.RequestID)
	vr.Use(middleware.Logger(h.logger))
	vr.Use(middleware.Timeout(60 * time.Second))
	vr.Use(middleware.ContentTypeJSON)
	vr.Use(middleware.ClientMetadata)
	vr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	vr.Get("/websites/{websiteID}/verification", h.handleGetRecord)
	vr.Post("/websites/{websiteID}/verification/method", h.handleChangeMethod)
	vr.Post("/websites/{websiteID}/verification/verify", h.handleVerify)
	vr.Post("/websites/{websiteID}/verification/check/{method}", h.handleCheck)

	r.Mount("/", vr)
}

// handleGetRecord returns the record for a website, creating it on first
// request. The website's domain rides in as a query parameter because this
// service does not own the website catalog.
func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	websiteID, ok := h.websiteID(w, r)
	if !ok {
		return
	}

	domain := r.URL.Query().Get("domain")
	if domain == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "domain query parameter is required"))
		return
	}

	resp, err := h.verification.GetOrInitialize(ctx, websiteID, domain)
	if err != nil {
		h.writeServiceError(ctx, w, "get verification record", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleChangeMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	websiteID, ok := h.websiteID(w, r)
	if !ok {
		return
	}

	var req models.ChangeMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid change method request",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.verification.ChangeMethod(ctx, websiteID, req.Method)
	if err != nil {
		h.writeServiceError(ctx, w, "change verification method", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	websiteID, ok := h.websiteID(w, r)
	if !ok {
		return
	}

	// Verification attempts are attributed to the caller in the audit trail,
	// so an authenticated request without a user in context means the
	// middleware chain is broken.
	userID := middleware.GetUserID(ctx)
	if userID.IsZero() {
		h.logger.ErrorContext(ctx, "user missing from authenticated request",
			"request_id", middleware.GetRequestID(ctx),
			"website_id", websiteID,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
		return
	}

	resp, err := h.verification.Verify(ctx, websiteID)
	if err != nil {
		h.writeServiceError(ctx, w, "verify domain", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	websiteID, ok := h.websiteID(w, r)
	if !ok {
		return
	}

	resp, err := h.verification.Check(ctx, websiteID, chi.URLParam(r, "method"))
	if err != nil {
		h.writeServiceError(ctx, w, "check verification setup", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) websiteID(w http.ResponseWriter, r *http.Request) (id.WebsiteID, bool) {
	websiteID, err := id.ParseWebsiteID(chi.URLParam(r, "websiteID"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid website id"))
		return id.WebsiteID{}, false
	}
	return websiteID, true
}

// writeServiceError logs at a severity matching the error class and writes
// the envelope. Coded errors pass through; everything else becomes a 500
// with a generic message.
func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	requestID := middleware.GetRequestID(ctx)
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		h.logger.ErrorContext(ctx, "operation failed",
			"op", op,
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
		return
	}
	h.logger.WarnContext(ctx, "request rejected",
		"op", op,
		"request_id", requestID,
		"error", err.Error(),
	)
	shared.WriteError(w, err)
}
