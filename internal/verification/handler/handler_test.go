package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"proovd/internal/audit"
	"proovd/internal/jwtauth"
	"proovd/internal/platform/logger"
	"proovd/internal/verification/models"
	"proovd/internal/verification/service"
	"proovd/internal/verification/store"
	"proovd/internal/verification/verifier"
)

const signingKey = "test-signing-key-0123456789abcdef"

// stubVerifier returns canned results so handler tests run without DNS.
type stubVerifier struct {
	verify verifier.Result
	check  verifier.Result
}

func (v *stubVerifier) Verify(context.Context, string, string) verifier.Result   { return v.verify }
func (v *stubVerifier) CheckDNS(context.Context, string, string) verifier.Result { return v.check }
func (v *stubVerifier) CheckFile(context.Context, string, string) verifier.Result {
	return v.check
}
func (v *stubVerifier) CheckMeta(context.Context, string, string) verifier.Result {
	return v.check
}

type env struct {
	router http.Handler
	token  string
	userID uuid.UUID
}

func newEnv(t *testing.T, v service.DomainVerifier) *env {
	t.Helper()

	jwtService := jwtauth.New(signingKey, "proovd", "proovd-api")
	userID := uuid.New()
	token, err := jwtService.GenerateToken(userID, time.Hour)
	require.NoError(t, err)

	log := logger.NewDiscard()
	svc := service.New(store.NewMemory(), v, service.WithLogger(log))

	h := New(svc, log, jwtService)
	r := chi.NewRouter()
	h.Register(r)

	return &env{router: r, token: token, userID: userID}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t, &stubVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/websites/"+uuid.NewString()+"/verification?domain=acme.io", nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetRecordInitializesOnFirstRequest(t *testing.T) {
	e := newEnv(t, &stubVerifier{})
	websiteID := uuid.NewString()

	rec := e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=ACME.io", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.RecordResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "acme.io", resp.Record.Domain)
	require.Equal(t, models.MethodDNS, resp.Record.Method)
	require.Equal(t, models.StatusPending, resp.Record.Status)
	require.NotEmpty(t, resp.Record.Token)
	require.Contains(t, resp.Instructions, "_proovd.acme.io")
	require.Len(t, resp.Methods, 3)

	// A second request returns the same record, token included.
	again := e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=acme.io", nil)
	require.Equal(t, http.StatusOK, again.Code)
	var second models.RecordResponse
	require.NoError(t, json.NewDecoder(again.Body).Decode(&second))
	require.Equal(t, resp.Record.Token, second.Record.Token)
}

func TestGetRecordRejectsMissingDomain(t *testing.T) {
	e := newEnv(t, &stubVerifier{})

	rec := e.do(t, http.MethodGet, "/websites/"+uuid.NewString()+"/verification", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRecordRejectsInvalidWebsiteID(t *testing.T) {
	e := newEnv(t, &stubVerifier{})

	rec := e.do(t, http.MethodGet, "/websites/not-a-uuid/verification?domain=acme.io", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	require.Equal(t, "invalid_input", errResp.Error)
}

func TestChangeMethod(t *testing.T) {
	e := newEnv(t, &stubVerifier{})
	websiteID := uuid.NewString()

	first := e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=acme.io", nil)
	require.Equal(t, http.StatusOK, first.Code)
	var created models.RecordResponse
	require.NoError(t, json.NewDecoder(first.Body).Decode(&created))

	rec := e.do(t, http.MethodPost, "/websites/"+websiteID+"/verification/method",
		models.ChangeMethodRequest{Method: "file"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.RecordResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, models.MethodFile, resp.Record.Method)
	require.Equal(t, created.Record.Token, resp.Record.Token)
	require.Contains(t, resp.Instructions, ".html")
}

func TestChangeMethodRejectsUnknownMethod(t *testing.T) {
	e := newEnv(t, &stubVerifier{})
	websiteID := uuid.NewString()

	e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=acme.io", nil)

	rec := e.do(t, http.MethodPost, "/websites/"+websiteID+"/verification/method",
		models.ChangeMethodRequest{Method: "carrier-pigeon"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errResp struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	require.Equal(t, "invalid_method", errResp.Error)
}

func TestChangeMethodWithoutRecordIsNotFound(t *testing.T) {
	e := newEnv(t, &stubVerifier{})

	rec := e.do(t, http.MethodPost, "/websites/"+uuid.NewString()+"/verification/method",
		models.ChangeMethodRequest{Method: "dns"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifySuccess(t *testing.T) {
	e := newEnv(t, &stubVerifier{
		verify: verifier.Result{Verified: true, Method: models.MethodDNS},
	})
	websiteID := uuid.NewString()

	e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=acme.io", nil)

	rec := e.do(t, http.MethodPost, "/websites/"+websiteID+"/verification/verify", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.VerifyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.IsVerified)
	require.Equal(t, models.StatusVerified, resp.Record.Status)
	require.Equal(t, 1, resp.Record.Attempts)
	require.NotNil(t, resp.Record.VerifiedAt)
}

func TestVerifyFailureRecordsAttempt(t *testing.T) {
	e := newEnv(t, &stubVerifier{
		verify: verifier.Result{Method: models.MethodDNS, Reason: "no matching record"},
	})
	websiteID := uuid.NewString()

	e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=acme.io", nil)

	for attempt := 1; attempt <= 2; attempt++ {
		rec := e.do(t, http.MethodPost, "/websites/"+websiteID+"/verification/verify", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.VerifyResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.False(t, resp.IsVerified)
		require.Equal(t, attempt, resp.Record.Attempts)
		require.Equal(t, models.StatusFailed, resp.Record.Status)
		require.Equal(t, "no matching record", resp.Record.Reason)
	}
}

func TestVerifyAfterVerifiedIsConflict(t *testing.T) {
	e := newEnv(t, &stubVerifier{
		verify: verifier.Result{Verified: true, Method: models.MethodDNS},
	})
	websiteID := uuid.NewString()

	e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=acme.io", nil)

	first := e.do(t, http.MethodPost, "/websites/"+websiteID+"/verification/verify", nil)
	require.Equal(t, http.StatusOK, first.Code)

	second := e.do(t, http.MethodPost, "/websites/"+websiteID+"/verification/verify", nil)
	require.Equal(t, http.StatusConflict, second.Code)
}

func TestCheckDoesNotMutateRecord(t *testing.T) {
	e := newEnv(t, &stubVerifier{
		check: verifier.Result{Verified: true, Method: models.MethodFile},
	})
	websiteID := uuid.NewString()

	e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=acme.io", nil)

	rec := e.do(t, http.MethodPost, "/websites/"+websiteID+"/verification/check/file", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp models.CheckResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, models.MethodFile, resp.Method)
	require.True(t, resp.Matched)

	// The stored record is untouched: still pending with zero attempts.
	after := e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=acme.io", nil)
	var record models.RecordResponse
	require.NoError(t, json.NewDecoder(after.Body).Decode(&record))
	require.Equal(t, models.StatusPending, record.Record.Status)
	require.Equal(t, 0, record.Record.Attempts)
}

// auditRecorder captures emitted audit events synchronously.
type auditRecorder struct {
	events []audit.Event
}

func (p *auditRecorder) Emit(_ context.Context, event audit.Event) error {
	p.events = append(p.events, event)
	return nil
}

func TestAuditEventsCarryCondensedUserAgent(t *testing.T) {
	jwtService := jwtauth.New(signingKey, "proovd", "proovd-api")
	token, err := jwtService.GenerateToken(uuid.New(), time.Hour)
	require.NoError(t, err)

	recorder := &auditRecorder{}
	log := logger.NewDiscard()
	svc := service.New(store.NewMemory(), &stubVerifier{},
		service.WithLogger(log),
		service.WithAuditPublisher(recorder),
	)
	r := chi.NewRouter()
	New(svc, log, jwtService).Register(r)

	req := httptest.NewRequest(http.MethodGet, "/websites/"+uuid.NewString()+"/verification?domain=acme.io", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, recorder.events, 1)
	require.Equal(t, "Firefox/128.0 on Linux x86_64", recorder.events[0].UserAgent)
}

// A request that cleared auth but lost its user on the way in points at a
// broken middleware chain and must fail closed.
func TestVerifyWithoutUserInContextIsInternalError(t *testing.T) {
	log := logger.NewDiscard()
	svc := service.New(store.NewMemory(), &stubVerifier{}, service.WithLogger(log))
	h := New(svc, log, jwtauth.New(signingKey, "proovd", "proovd-api"))

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("websiteID", uuid.NewString())
	req := httptest.NewRequest(http.MethodPost, "/websites/x/verification/verify", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h.handleVerify(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCheckRejectsUnknownMethod(t *testing.T) {
	e := newEnv(t, &stubVerifier{})
	websiteID := uuid.NewString()

	e.do(t, http.MethodGet, "/websites/"+websiteID+"/verification?domain=acme.io", nil)

	rec := e.do(t, http.MethodPost, "/websites/"+websiteID+"/verification/check/smoke-signal", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
