package verification

import (
	"log/slog"

	"proovd/internal/platform/middleware"
	"proovd/internal/verification/handler"
	"proovd/internal/verification/service"
	"proovd/internal/verification/store"
)

// Service orchestrates the domain verification lifecycle.
type Service = service.Service

// Handler wires the verification HTTP endpoints to the service.
type Handler = handler.Handler

// NewService constructs the verification service.
func NewService(st store.Store, v service.DomainVerifier, opts ...service.Option) *Service {
	return service.New(st, v, opts...)
}

// NewHandler constructs the HTTP handler for the verification routes.
func NewHandler(s *Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return handler.New(s, logger, jwtValidator)
}
