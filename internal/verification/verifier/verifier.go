// Package verifier performs the live ownership checks against a user's
// domain.
//
// The primary entry point, Verify, checks DNS only, regardless of the method
// stored on the verification record. File and meta checks exist as library
// functions (CheckFile, CheckMeta) surfaced through the diagnostic endpoint,
// but are not part of the verify decision: dashboards in the wild were built
// against the DNS-only contract, so wiring them in is a behavior change, not
// a fix.
//
// All dependencies with side effects (resolver, HTTP client, clock, sleep)
// are injected so tests run deterministically and without the network.
package verifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"proovd/internal/platform/metrics"
	"proovd/internal/verification/contract"
	"proovd/internal/verification/domainname"
	"proovd/internal/verification/models"
)

const (
	defaultMaxAttempts = 3
	// defaultRetryDelay is fixed, not exponential: with three attempts the
	// worst case stays around four seconds of waiting, which keeps the
	// dashboard's Verify button responsive. Resolvers that have not caught a
	// freshly published record within ~8s will not catch it within 30s
	// either; the user is told to wait for propagation instead.
	defaultRetryDelay = 2000 * time.Millisecond
)

// Resolver issues TXT lookups. net.Resolver satisfies this; tests inject
// fakes; internal/platform/dnsresolver provides a miekg/dns implementation
// for deployments that pin a resolver.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// Result is the verdict of a verification check. Verify never returns an
// error: every failure mode, including resolver crashes, collapses into a
// Result with a human-readable reason.
type Result struct {
	Verified bool
	Method   models.Method
	Reason   string
}

// Verifier runs ownership checks with injected dependencies.
type Verifier struct {
	resolver    Resolver
	httpClient  HTTPDoer
	logger      *slog.Logger
	metrics     *metrics.Metrics
	production  bool
	maxAttempts int
	retryDelay  time.Duration
	httpTimeout time.Duration
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures a Verifier.
type Option func(v *Verifier)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) { v.logger = logger }
}

// WithMetrics enables lookup and bypass metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Verifier) { v.metrics = m }
}

// WithHTTPClient sets the client used by the file and meta checks.
func WithHTTPClient(c HTTPDoer) Option {
	return func(v *Verifier) { v.httpClient = c }
}

// WithProduction disables the local-development bypass. Must be set in any
// production deployment.
func WithProduction(production bool) Option {
	return func(v *Verifier) { v.production = production }
}

// WithHTTPTimeout bounds the file and meta check fetches.
func WithHTTPTimeout(d time.Duration) Option {
	return func(v *Verifier) { v.httpTimeout = d }
}

// WithSleep replaces the inter-attempt sleep. For tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(v *Verifier) { v.sleep = sleep }
}

// WithClock replaces the wall clock. For tests.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) { v.now = now }
}

// New constructs a Verifier around a resolver.
func New(resolver Resolver, opts ...Option) *Verifier {
	v := &Verifier{
		resolver:    resolver,
		logger:      slog.New(slog.DiscardHandler),
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		httpTimeout: 10 * time.Second,
		now:         time.Now,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks whether the domain publishes the token in a TXT record at
// _proovd.<domain> or _proovd.www.<domain>. Up to three lookup rounds are
// made with a fixed delay between them; any match returns immediately.
func (v *Verifier) Verify(ctx context.Context, rawDomain, token string) (result Result) {
	result = Result{Method: models.MethodDNS}

	// The verify surface never propagates a panic or error to its caller;
	// the dashboard shows result.Reason and nothing else.
	defer func() {
		if rec := recover(); rec != nil {
			v.logger.ErrorContext(ctx, "verification panicked",
				"domain", rawDomain,
				"panic", rec,
			)
			result = Result{
				Method: models.MethodDNS,
				Reason: fmt.Sprintf("Verification error: %v", rec),
			}
		}
	}()

	domain := domainname.Normalize(rawDomain)
	if err := domainname.Validate(domain); err != nil {
		result.Reason = fmt.Sprintf("Verification error: %v", err)
		return result
	}

	if !v.production && isDevelopmentHost(domain) {
		v.logger.InfoContext(ctx, "development bypass active, skipping DNS check",
			"domain", domain,
		)
		v.metrics.IncrementDevBypass()
		result.Verified = true
		return result
	}

	recordName := contract.TXTRecordName(domain)
	want := strings.ToLower(strings.TrimSpace(token))

	for attempt := 1; attempt <= v.maxAttempts; attempt++ {
		values := v.lookupAll(ctx, domain)

		for _, value := range values {
			if strings.ToLower(strings.TrimSpace(value)) == want {
				v.logger.InfoContext(ctx, "domain verified",
					"domain", domain,
					"attempt", attempt,
				)
				result.Verified = true
				return result
			}
		}

		v.logger.DebugContext(ctx, "verification attempt did not match",
			"domain", domain,
			"attempt", attempt,
			"records_found", len(values),
		)

		if attempt < v.maxAttempts {
			if err := v.sleep(ctx, v.retryDelay); err != nil {
				result.Reason = "Verification was cancelled before completing. Please try again."
				return result
			}
		}
	}

	result.Reason = fmt.Sprintf(
		"We could not find a TXT record at %s with the value %s. "+
			"Double-check the record name and value in your DNS settings. "+
			"Note that DNS changes can take up to 24 hours to propagate.",
		recordName, token)
	return result
}

// lookupAll queries the bare and www-prefixed record names concurrently and
// flattens every successfully resolved value into one list. The two lookups
// settle independently: one failing or timing out never cancels the other,
// and only a total absence of values counts as "no records" upstream.
func (v *Verifier) lookupAll(ctx context.Context, domain string) []string {
	names := []string{contract.TXTRecordName(domain)}
	// Sites serving from www often scope DNS automation to the www host;
	// accept the proof there too. A bare label like "localhost" has no
	// meaningful www form.
	if strings.Contains(domain, ".") {
		names = append(names, contract.TXTRecordPrefix+"www."+domain)
	}

	results := make([][]string, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			// A panicking resolver must degrade to "no values from this
			// name"; a goroutine panic would otherwise kill the process.
			defer func() {
				if rec := recover(); rec != nil {
					v.logger.ErrorContext(ctx, "TXT lookup panicked",
						"name", name,
						"panic", rec,
					)
				}
			}()
			start := v.now()
			values, err := v.resolver.LookupTXT(ctx, name)
			v.metrics.ObserveDNSLookup(v.now().Sub(start))
			if err != nil {
				// Resolver errors are expected here (NXDOMAIN for the www
				// form, transient network failures); they reduce to "no
				// values from this name" and the retry loop handles the rest.
				v.logger.DebugContext(ctx, "TXT lookup failed",
					"name", name,
					"error", err,
				)
				return
			}
			results[i] = values
		}(i, name)
	}
	wg.Wait()

	var flat []string
	for _, values := range results {
		flat = append(flat, values...)
	}
	return flat
}

// CheckDNS runs a single lookup round without retries or delays. Used by the
// diagnostic endpoint so support staff can inspect current DNS state quickly.
func (v *Verifier) CheckDNS(ctx context.Context, rawDomain, token string) Result {
	domain := domainname.Normalize(rawDomain)
	if err := domainname.Validate(domain); err != nil {
		return Result{Method: models.MethodDNS, Reason: fmt.Sprintf("Verification error: %v", err)}
	}

	want := strings.ToLower(strings.TrimSpace(token))
	for _, value := range v.lookupAll(ctx, domain) {
		if strings.ToLower(strings.TrimSpace(value)) == want {
			return Result{Verified: true, Method: models.MethodDNS}
		}
	}
	return Result{
		Method: models.MethodDNS,
		Reason: fmt.Sprintf("No TXT record at %s currently matches the token.", contract.TXTRecordName(domain)),
	}
}

// isDevelopmentHost reports whether the host is a local development name that
// can never be publicly verified. Only consulted outside production.
func isDevelopmentHost(domain string) bool {
	if domain == "localhost" || domain == "example.com" {
		return true
	}
	return strings.HasSuffix(domain, ".test") || strings.HasSuffix(domain, ".local")
}

// sleepContext waits for d or until ctx is cancelled. The wait is cooperative:
// it only parks this verification's goroutine, so concurrent verifications
// for other websites proceed unaffected.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
