package models

import (
	"time"

	id "proovd/pkg/domain"
	dErrors "proovd/pkg/domain-errors"
)

// VerificationRecord tracks a website domain's ownership-proof state.
//
// Invariants:
//   - Exactly one record exists per website; the record is keyed by WebsiteID
//     and cascades with website deletion.
//   - Token is immutable once generated. Changing the method never
//     regenerates it: a user who already published the token via one
//     mechanism must be able to switch mechanisms without re-publishing.
//   - Attempts only increases, and only through ApplyAttempt. Initialization
//     and method changes never touch it.
//   - VerifiedAt is set exactly once, on the transition to verified.
type VerificationRecord struct {
	WebsiteID  id.WebsiteID `json:"website_id"`
	Domain     string       `json:"domain"`
	Token      string       `json:"token"`
	Method     Method       `json:"method"`
	Status     Status       `json:"status"`
	Attempts   int          `json:"attempts"`
	Reason     string       `json:"reason,omitempty"`
	VerifiedAt *time.Time   `json:"verified_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewRecord creates a pending record with the default DNS method. The domain
// must already be normalized and the token already generated; the record does
// not know how to do either.
func NewRecord(websiteID id.WebsiteID, domain, token string, now time.Time) (*VerificationRecord, error) {
	if websiteID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "website id is required")
	}
	if domain == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "domain is required")
	}
	if token == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "token is required")
	}
	return &VerificationRecord{
		WebsiteID: websiteID,
		Domain:    domain,
		Token:     token,
		Method:    MethodDNS,
		Status:    StatusPending,
		Attempts:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsVerified reports whether the domain has been proven.
func (r *VerificationRecord) IsVerified() bool {
	return r.Status == StatusVerified
}

// ApplyMethodChange switches the challenge mechanism. Token, status and
// attempts are deliberately untouched.
func (r *VerificationRecord) ApplyMethodChange(m Method, now time.Time) {
	r.Method = m
	r.UpdatedAt = now
}

// CanAttempt checks whether another verification attempt makes sense.
// Verified is terminal; re-verifying an already proven domain is a caller bug.
func (r *VerificationRecord) CanAttempt() error {
	if r.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "domain is already verified")
	}
	return nil
}

// ApplyAttempt records the outcome of one verify call. Attempts increments
// unconditionally; this is the only place it moves.
func (r *VerificationRecord) ApplyAttempt(verified bool, reason string, now time.Time) {
	r.Attempts++
	r.UpdatedAt = now
	if verified {
		r.Status = StatusVerified
		r.Reason = ""
		r.VerifiedAt = &now
		return
	}
	r.Status = StatusFailed
	r.Reason = reason
}

// Clone returns a deep copy so stores can hand out records without sharing
// mutable state with callers.
func (r *VerificationRecord) Clone() *VerificationRecord {
	clone := *r
	if r.VerifiedAt != nil {
		t := *r.VerifiedAt
		clone.VerifiedAt = &t
	}
	return &clone
}
