// Package token generates domain verification tokens.
//
// The token is a security credential: it proves DNS control, so a predictable
// value could be guessed or front-run by an attacker racing the owner. Both
// generators therefore draw from crypto/rand. The alphabet is restricted to
// [a-zA-Z0-9-] so tokens never need escaping in TXT record values, file names
// or HTML attributes.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// serverTokenBytes yields 12 hex characters, the form stored on records
	// created inside the authenticated API path.
	serverTokenBytes = 6

	displaySuffixLen = 8
	displayAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Generate returns a 12-character lowercase hex token.
func Generate() (string, error) {
	buf := make([]byte, serverTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("could not generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateDisplay returns a human-debuggable token of the form
// proovd-<domain-with-dashes>-<random suffix>. The domain prefix makes it
// obvious which site a pasted token belongs to; the suffix carries the
// entropy.
func GenerateDisplay(domain string) (string, error) {
	suffix := make([]byte, displaySuffixLen)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("could not generate token suffix: %w", err)
	}
	for i, b := range suffix {
		suffix[i] = displayAlphabet[int(b)%len(displayAlphabet)]
	}

	slug := strings.ReplaceAll(strings.ToLower(domain), ".", "-")
	return fmt.Sprintf("proovd-%s-%s", slug, suffix), nil
}
