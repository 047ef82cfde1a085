// Package instructions renders the setup text shown to users for each
// verification method.
//
// The record names, file paths and tag names here are contractual: they must
// match what the verifier checks, or users who follow the instructions will
// configure proofs the verifier never finds. The literals live in one place
// (contract.go) shared with the verifier for exactly that reason.
package instructions

import (
	"fmt"

	"proovd/internal/verification/contract"
	"proovd/internal/verification/models"
)

// InvalidMethodText is returned for an unrecognized method. Rendering is
// presentation-layer and must never fail on a bad enum value; the manager
// validates methods upstream.
const InvalidMethodText = "Invalid verification method. Choose DNS, file or meta verification in your dashboard."

// For produces the human-readable setup text for a method. Pure and
// deterministic: same inputs, same bytes.
func For(domain string, method models.Method, token string) string {
	switch method {
	case models.MethodDNS:
		return fmt.Sprintf(
			"Add a TXT record to your DNS configuration:\n\n"+
				"  Host:  %s%s\n"+
				"  Value: %s\n"+
				"  TTL:   3600 (or your provider's default)\n\n"+
				"DNS changes usually propagate within minutes, but can take up to "+
				"24-48 hours depending on your provider. Once the record is live, "+
				"click Verify in your dashboard.",
			contract.TXTRecordPrefix, domain, token)
	case models.MethodFile:
		return fmt.Sprintf(
			"Upload a verification file to your web root:\n\n"+
				"  File name: %s\n"+
				"  Contents:  %s\n\n"+
				"The file must be reachable at https://%s/%s. "+
				"Once it is in place, click Verify in your dashboard.",
			contract.FileName(token), token, domain, contract.FileName(token))
	case models.MethodMeta:
		return fmt.Sprintf(
			"Add a meta tag to the <head> section of your homepage:\n\n"+
				"  <meta name=%q content=%q>\n\n"+
				"The tag must appear on https://%s/. "+
				"Once it is deployed, click Verify in your dashboard.",
			contract.MetaTagName, token, domain)
	default:
		return InvalidMethodText
	}
}
