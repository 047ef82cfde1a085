// Package dnsresolver provides the TXT lookup implementations used by
// domain verification. Net delegates to the system resolver; Miekg talks
// to a specific DNS server directly, which keeps lookups deterministic in
// environments where the host resolver caches aggressively.
package dnsresolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"proovd/pkg/platform/sentinel"
)

// Net wraps the standard library resolver.
type Net struct {
	resolver *net.Resolver
}

// NewNet returns a resolver backed by the system configuration.
func NewNet() *Net {
	return &Net{resolver: net.DefaultResolver}
}

func (r *Net) LookupTXT(ctx context.Context, name string) ([]string, error) {
	records, err := r.resolver.LookupTXT(ctx, name)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, fmt.Errorf("lookup %s: %w", name, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("lookup %s: %w", name, err)
	}
	return records, nil
}

// Miekg queries a fixed DNS server over UDP with a TCP retry on truncation.
type Miekg struct {
	server  string
	timeout time.Duration
}

// NewMiekg returns a resolver that queries server, given as host:port.
// A bare host gets port 53.
func NewMiekg(server string, timeout time.Duration) *Miekg {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Miekg{server: server, timeout: timeout}
}

func (r *Miekg) LookupTXT(ctx context.Context, name string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: r.timeout}
	resp, _, err := client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, fmt.Errorf("query %s against %s: %w", name, r.server, err)
	}
	if resp.Truncated {
		client.Net = "tcp"
		resp, _, err = client.ExchangeContext(ctx, msg, r.server)
		if err != nil {
			return nil, fmt.Errorf("tcp retry for %s against %s: %w", name, r.server, err)
		}
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, fmt.Errorf("lookup %s: %w", name, sentinel.ErrNotFound)
	default:
		return nil, fmt.Errorf("lookup %s: server returned %s", name, dns.RcodeToString[resp.Rcode])
	}

	var records []string
	for _, rr := range resp.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		// Character-string chunks of one record join without a separator,
		// matching what net.Resolver returns.
		records = append(records, strings.Join(txt.Txt, ""))
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("lookup %s: %w", name, sentinel.ErrNotFound)
	}
	return records, nil
}
