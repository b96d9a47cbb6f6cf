package domain

import "strings"

// IdentifierKind classifies an email-or-phone login string
type IdentifierKind int

const (
	IdentifierUnknown IdentifierKind = iota
	IdentifierEmail
	IdentifierPhone
)

// NormalizeIdentifier trims the value and lowercases emails so keys match
// regardless of how the caller typed them
func NormalizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "@") {
		return strings.ToLower(s)
	}
	return strings.ReplaceAll(s, " ", "")
}

// DetectIdentifier reports whether s looks like an email or a phone number
func DetectIdentifier(s string) IdentifierKind {
	switch {
	case s == "":
		return IdentifierUnknown
	case strings.Contains(s, "@"):
		return IdentifierEmail
	case s[0] == '+' || (s[0] >= '0' && s[0] <= '9'):
		return IdentifierPhone
	default:
		return IdentifierUnknown
	}
}
