// Package service orchestrates the verification lifecycle: record
// initialization, method switching, verify attempts and diagnostic checks.
// It owns persistence and audit emission; proof checking itself lives in
// the verifier.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"proovd/internal/audit"
	"proovd/internal/platform/metrics"
	"proovd/internal/verification/domainname"
	"proovd/internal/verification/instructions"
	"proovd/internal/verification/models"
	"proovd/internal/verification/store"
	"proovd/internal/verification/token"
	"proovd/internal/verification/verifier"
	id "proovd/pkg/domain"
	dErrors "proovd/pkg/domain-errors"
	"proovd/pkg/platform/sentinel"
	"proovd/pkg/requestcontext"
)

// DomainVerifier is the proof-checking surface the service needs. Verify is
// the retrying DNS entry point; the Check methods are single-shot lookups.
type DomainVerifier interface {
	Verify(ctx context.Context, rawDomain, token string) verifier.Result
	CheckDNS(ctx context.Context, rawDomain, token string) verifier.Result
	CheckFile(ctx context.Context, rawDomain, token string) verifier.Result
	CheckMeta(ctx context.Context, rawDomain, token string) verifier.Result
}

type Service struct {
	store    store.Store
	verifier DomainVerifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	auditPub audit.Publisher
	tracer   trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p audit.Publisher) Option {
	return func(s *Service) { s.auditPub = p }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func New(st store.Store, v DomainVerifier, opts ...Option) *Service {
	s := &Service{
		store:    st,
		verifier: v,
		logger:   slog.Default(),
		tracer:   noop.NewTracerProvider().Tracer("verification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrInitialize returns the verification record for a website, creating
// one with a fresh token on first sight. A changed domain resets the record:
// the old proof does not transfer, so token, status and attempts start over.
func (s *Service) GetOrInitialize(ctx context.Context, websiteID id.WebsiteID, rawDomain string) (*models.RecordResponse, error) {
	domain := domainname.Normalize(rawDomain)
	if err := domainname.Validate(domain); err != nil {
		return nil, err
	}

	record, err := s.store.Get(ctx, websiteID)
	switch {
	case err == nil && record.Domain == domain:
		return s.recordResponse(record), nil
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load verification record")
	}

	record, err = s.initialize(ctx, websiteID, domain)
	if err != nil {
		return nil, err
	}
	return s.recordResponse(record), nil
}

func (s *Service) initialize(ctx context.Context, websiteID id.WebsiteID, domain string) (*models.VerificationRecord, error) {
	tok, err := token.Generate()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "generate verification token")
	}

	record, err := models.NewRecord(websiteID, domain, tok, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save verification record")
	}

	s.metrics.IncrementRecordsCreated()
	s.emit(ctx, audit.EventRecordCreated, record, audit.Event{})
	s.logger.InfoContext(ctx, "verification record created",
		"website_id", websiteID, "domain", domain)
	return record, nil
}

// ChangeMethod switches the challenge mechanism. The token survives the
// switch, so instructions already placed for another method stay valid if
// the user switches back.
func (s *Service) ChangeMethod(ctx context.Context, websiteID id.WebsiteID, methodStr string) (*models.RecordResponse, error) {
	method, err := models.ParseMethod(methodStr)
	if err != nil {
		return nil, err
	}

	record, err := s.load(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	record.ApplyMethodChange(method, requestcontext.Now(ctx))
	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save verification record")
	}

	s.metrics.IncrementMethodChange(string(method))
	s.emit(ctx, audit.EventMethodChanged, record, audit.Event{Method: string(method)})
	s.logger.InfoContext(ctx, "verification method changed",
		"website_id", websiteID, "method", method)
	return s.recordResponse(record), nil
}

// Verify runs a DNS verification attempt against the stored record and
// persists the outcome. Each call increments the attempt counter exactly
// once, whatever the result.
func (s *Service) Verify(ctx context.Context, websiteID id.WebsiteID) (*models.VerifyResponse, error) {
	ctx, span := s.tracer.Start(ctx, "verification.Verify")
	defer span.End()

	record, err := s.load(ctx, websiteID)
	if err != nil {
		return nil, err
	}
	if err := record.CanAttempt(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, "verification attempt rejected")
	}

	span.SetAttributes(
		attribute.String("verification.domain", record.Domain),
		attribute.String("verification.method", string(record.Method)),
	)

	started := requestcontext.Now(ctx)
	result := s.verifier.Verify(ctx, record.Domain, record.Token)
	record.ApplyAttempt(result.Verified, result.Reason, requestcontext.Now(ctx))

	if err := s.store.Save(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save verification record")
	}

	outcome := "failed"
	if result.Verified {
		outcome = "verified"
	}
	s.metrics.IncrementAttempt(outcome)
	s.metrics.ObserveVerification(requestcontext.Now(ctx).Sub(started))
	s.emit(ctx, audit.EventAttemptRecorded, record, audit.Event{
		Method:   string(record.Method),
		Outcome:  outcome,
		Reason:   result.Reason,
		Attempts: record.Attempts,
	})
	s.logger.InfoContext(ctx, "verification attempt recorded",
		"website_id", websiteID,
		"domain", record.Domain,
		"outcome", outcome,
		"attempts", record.Attempts)

	return &models.VerifyResponse{
		IsVerified: result.Verified,
		Method:     record.Method,
		Reason:     result.Reason,
		Record:     record,
	}, nil
}

// Check runs a single diagnostic pass for the named method without touching
// the stored record. It lets a user confirm their setup before spending a
// verify attempt.
func (s *Service) Check(ctx context.Context, websiteID id.WebsiteID, methodStr string) (*models.CheckResponse, error) {
	method, err := models.ParseMethod(methodStr)
	if err != nil {
		return nil, err
	}

	record, err := s.load(ctx, websiteID)
	if err != nil {
		return nil, err
	}

	var result verifier.Result
	switch method {
	case models.MethodDNS:
		result = s.verifier.CheckDNS(ctx, record.Domain, record.Token)
	case models.MethodFile:
		result = s.verifier.CheckFile(ctx, record.Domain, record.Token)
	case models.MethodMeta:
		result = s.verifier.CheckMeta(ctx, record.Domain, record.Token)
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidMethod, "unsupported method %q", method)
	}

	return &models.CheckResponse{
		Method:  method,
		Matched: result.Verified,
		Reason:  result.Reason,
	}, nil
}

func (s *Service) load(ctx context.Context, websiteID id.WebsiteID) (*models.VerificationRecord, error) {
	record, err := s.store.Get(ctx, websiteID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound,
			fmt.Sprintf("no verification record for website %s", websiteID))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load verification record")
	}
	return record, nil
}

func (s *Service) recordResponse(record *models.VerificationRecord) *models.RecordResponse {
	return &models.RecordResponse{
		Record:       record,
		Instructions: instructions.For(record.Domain, record.Method, record.Token),
		Methods:      models.Methods(),
	}
}

// emit publishes an audit event enriched with request metadata. Audit
// failure never fails the operation.
func (s *Service) emit(ctx context.Context, action audit.AuditEvent, record *models.VerificationRecord, overlay audit.Event) {
	if s.auditPub == nil {
		return
	}
	event := audit.Event{
		Category:  audit.CategoryFor(action),
		Timestamp: requestcontext.Now(ctx),
		Action:    string(action),
		UserID:    requestcontext.UserID(ctx),
		WebsiteID: record.WebsiteID,
		Domain:    record.Domain,
		Method:    overlay.Method,
		Outcome:   overlay.Outcome,
		Reason:    overlay.Reason,
		Attempts:  overlay.Attempts,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		UserAgent: requestcontext.UserAgent(ctx),
	}
	if err := s.auditPub.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", action, "error", err)
	}
}
