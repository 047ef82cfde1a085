// Package domain provides typed identifiers shared across modules.
//
// IDs are distinct types over uuid.UUID so a WebsiteID can never be passed
// where a UserID is expected. Parse helpers enforce the invariant that IDs
// are valid, non-nil UUIDs at trust boundaries (HTTP paths, tokens).
package domain

import (
	"github.com/google/uuid"

	dErrors "proovd/pkg/domain-errors"
)

type (
	// WebsiteID identifies a website registered by a user. The verification
	// record is keyed by it.
	WebsiteID uuid.UUID

	// UserID identifies the authenticated dashboard user.
	UserID uuid.UUID
)

func (id WebsiteID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string    { return uuid.UUID(id).String() }

func (id WebsiteID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps the UUID string form in JSON and document stores.
// Defined types do not inherit uuid.UUID's methods, so these are explicit.

func (id WebsiteID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *WebsiteID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = WebsiteID(u)
	return nil
}

func (id UserID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*id = UserID(u)
	return nil
}

// ParseWebsiteID parses and validates a website ID from its string form.
func ParseWebsiteID(s string) (WebsiteID, error) {
	u, err := parse(s)
	return WebsiteID(u), err
}

// ParseUserID parses and validates a user ID from its string form.
func ParseUserID(s string) (UserID, error) {
	u, err := parse(s)
	return UserID(u), err
}

func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}
