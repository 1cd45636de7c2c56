// Package domain holds the value types shared by the registry modules:
// typed identifiers, fixed-point units and locations.
//
// Identifiers are opaque strings. Construct them with the Parse* functions at
// trust boundaries; a direct conversion bypasses validation.
package domain

import (
	dErrors "arbor/pkg/domain-errors"
)

// MaxIDLength bounds every identifier.
const MaxIDLength = 64

type (
	// TreeID identifies a registered tree.
	TreeID string
	// SiteID identifies a planting site.
	SiteID string
	// InitiativeID identifies a planting initiative.
	InitiativeID string
	// EventID identifies a planting event within its initiative.
	EventID string
	// Principal is an authenticated caller identity.
	Principal string
)

func (id TreeID) String() string       { return string(id) }
func (id SiteID) String() string       { return string(id) }
func (id InitiativeID) String() string { return string(id) }
func (id EventID) String() string      { return string(id) }
func (p Principal) String() string     { return string(p) }

// IsNil reports whether the principal is unset.
func (p Principal) IsNil() bool { return p == "" }

func ParseTreeID(s string) (TreeID, error) {
	v, err := parseIdentifier("tree id", s)
	return TreeID(v), err
}

func ParseSiteID(s string) (SiteID, error) {
	v, err := parseIdentifier("site id", s)
	return SiteID(v), err
}

func ParseInitiativeID(s string) (InitiativeID, error) {
	v, err := parseIdentifier("initiative id", s)
	return InitiativeID(v), err
}

func ParseEventID(s string) (EventID, error) {
	v, err := parseIdentifier("event id", s)
	return EventID(v), err
}

// ParsePrincipal validates a caller identity (token subject or transfer target).
func ParsePrincipal(s string) (Principal, error) {
	v, err := parseIdentifier("principal", s)
	return Principal(v), err
}

// parseIdentifier enforces 1-64 characters of [A-Za-z0-9._:-].
func parseIdentifier(kind, s string) (string, error) {
	if s == "" {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", kind)
	}
	if len(s) > MaxIDLength {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "%s exceeds %d characters", kind, MaxIDLength)
	}
	for i := 0; i < len(s); i++ {
		if !isIDByte(s[i]) {
			return "", dErrors.Newf(dErrors.CodeInvalidInput, "%s contains invalid characters", kind)
		}
	}
	return s, nil
}

func isIDByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '_', c == ':', c == '-':
		return true
	}
	return false
}
