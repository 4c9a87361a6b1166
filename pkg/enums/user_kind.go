package enums

import (
	"fmt"
	"strings"
)

// UserKind distinguishes interactive accounts from machine (API key) accounts.
type UserKind string

const (
	UserKindInternal UserKind = "INTERNAL"
	UserKindAPI      UserKind = "API"
)

var validUserKinds = []UserKind{
	UserKindInternal,
	UserKindAPI,
}

// String implements fmt.Stringer.
func (k UserKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known UserKind.
func (k UserKind) IsValid() bool {
	for _, candidate := range validUserKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseUserKind converts raw input into a UserKind. Matching ignores case.
func ParseUserKind(value string) (UserKind, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validUserKinds {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user kind %q", value)
}
