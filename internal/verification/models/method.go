package models

import (
	"strings"

	dErrors "proovd/pkg/domain-errors"
)

// Method is the challenge mechanism a user chooses to prove domain control.
type Method string

const (
	MethodDNS  Method = "dns"
	MethodFile Method = "file"
	MethodMeta Method = "meta"
)

// Methods lists every supported method in the order the dashboard offers them.
func Methods() []Method {
	return []Method{MethodDNS, MethodFile, MethodMeta}
}

// ParseMethod validates an externally supplied method string at the boundary.
// Matching is case-insensitive; anything outside the enum is rejected with a
// CodeInvalidMethod domain error.
func ParseMethod(raw string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(raw))) {
	case MethodDNS:
		return MethodDNS, nil
	case MethodFile:
		return MethodFile, nil
	case MethodMeta:
		return MethodMeta, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidMethod, "unknown verification method %q", raw)
	}
}
