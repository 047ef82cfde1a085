package verifier

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"proovd/internal/verification/contract"
	"proovd/internal/verification/domainname"
	"proovd/internal/verification/models"
)

// HTTPDoer is the slice of http.Client the file and meta checks need.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxCheckBody caps how much of a response the meta check reads. The tag
// belongs in <head>; a page that buries it beyond 512KiB is not verifying.
const maxCheckBody = 512 * 1024

// CheckFile fetches the well-known verification file and compares its body
// against the token. Resolves to an unverified Result on any network error,
// non-200 status or timeout; it never returns an error.
func (v *Verifier) CheckFile(ctx context.Context, rawDomain, token string) Result {
	domain := domainname.Normalize(rawDomain)
	if err := domainname.Validate(domain); err != nil {
		return Result{Method: models.MethodFile, Reason: fmt.Sprintf("Verification error: %v", err)}
	}

	url := "https://" + domain + contract.WellKnownPath
	body, status, err := v.fetch(ctx, url)
	if err != nil {
		v.logger.DebugContext(ctx, "file check fetch failed", "url", url, "error", err)
		return Result{
			Method: models.MethodFile,
			Reason: fmt.Sprintf("Could not fetch %s. Check that the file is uploaded and the site is reachable over HTTPS.", url),
		}
	}
	if status != http.StatusOK {
		return Result{
			Method: models.MethodFile,
			Reason: fmt.Sprintf("Fetching %s returned HTTP %d; expected 200.", url, status),
		}
	}
	if strings.TrimSpace(string(body)) != strings.TrimSpace(token) {
		return Result{
			Method: models.MethodFile,
			Reason: fmt.Sprintf("The file at %s exists but its contents do not match your verification token.", url),
		}
	}
	return Result{Verified: true, Method: models.MethodFile}
}

// CheckMeta fetches the homepage and scans it for the verification meta tag
// in either attribute order. Same failure policy as CheckFile.
func (v *Verifier) CheckMeta(ctx context.Context, rawDomain, token string) Result {
	domain := domainname.Normalize(rawDomain)
	if err := domainname.Validate(domain); err != nil {
		return Result{Method: models.MethodMeta, Reason: fmt.Sprintf("Verification error: %v", err)}
	}

	url := "https://" + domain + "/"
	body, status, err := v.fetch(ctx, url)
	if err != nil {
		v.logger.DebugContext(ctx, "meta check fetch failed", "url", url, "error", err)
		return Result{
			Method: models.MethodMeta,
			Reason: fmt.Sprintf("Could not fetch %s. Check that the site is reachable over HTTPS.", url),
		}
	}
	if status != http.StatusOK {
		return Result{
			Method: models.MethodMeta,
			Reason: fmt.Sprintf("Fetching %s returned HTTP %d; expected 200.", url, status),
		}
	}
	if !metaTagPattern(token).Match(body) {
		return Result{
			Method: models.MethodMeta,
			Reason: fmt.Sprintf(
				"The homepage does not contain <meta name=%q content=%q> in its <head>.",
				contract.MetaTagName, token),
		}
	}
	return Result{Verified: true, Method: models.MethodMeta}
}

func (v *Verifier) fetch(ctx context.Context, url string) ([]byte, int, error) {
	client := v.httpClient
	if client == nil {
		client = &http.Client{Timeout: v.httpTimeout}
	}

	ctx, cancel := context.WithTimeout(ctx, v.httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", "Proovd-Verification/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCheckBody))
	if err != nil {
		return nil, 0, err
	}
	return body, resp.StatusCode, nil
}

// metaTagPattern matches the verification meta tag case-insensitively with
// name and content in either order.
func metaTagPattern(token string) *regexp.Regexp {
	name := regexp.QuoteMeta(contract.MetaTagName)
	value := regexp.QuoteMeta(token)
	pattern := fmt.Sprintf(
		`(?i)<meta[^>]*(?:name=["']%s["'][^>]*content=["']%s["']|content=["']%s["'][^>]*name=["']%s["'])[^>]*/?>`,
		name, value, value, name)
	return regexp.MustCompile(pattern)
}
