package domain

import "strings"

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// ClassifyCredential infers the format of a credential stored before rows
// carried an explicit format column
func ClassifyCredential(value string) CredentialFormat {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(value, prefix) {
			return CredentialHashed
		}
	}
	return CredentialLegacyPlaintext
}

// StoredCredential builds a Credential from a raw column pair, falling back to
// classification when the format column is empty
func StoredCredential(value, format string) Credential {
	f := CredentialFormat(format)
	if f != CredentialHashed && f != CredentialLegacyPlaintext {
		f = ClassifyCredential(value)
	}
	return Credential{Value: value, Format: f}
}
