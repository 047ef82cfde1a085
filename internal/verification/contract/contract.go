// Package contract pins the literal strings shared between the setup
// instructions and the verifier. Existing users already have TXT records,
// files and meta tags configured against these exact values; changing any of
// them silently breaks every configured proof in the wild.
package contract

// TXTRecordPrefix is prepended to the domain to form the TXT record host.
const TXTRecordPrefix = "_proovd."

// WellKnownPath is where the file checker looks for the token body.
const WellKnownPath = "/.well-known/proovd-verification.txt"

// MetaTagName is the name attribute of the verification meta tag.
const MetaTagName = "proovd-verification"

// TXTRecordName returns the full TXT record host for a normalized domain.
func TXTRecordName(domain string) string {
	return TXTRecordPrefix + domain
}

// FileName returns the web-root verification file name shown in the file
// method instructions.
func FileName(token string) string {
	return "proovd-" + token + ".html"
}
