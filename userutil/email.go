package userutil

import (
	"strings"
	"unicode"
)

// isEmailSpace covers Unicode white space plus the byte order mark
func isEmailSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// ValidateEmail reports whether email has the basic local@domain.tld shape:
// one @, no white space anywhere, and a dot inside the domain with text on
// both sides. It is a syntactic check only.
func ValidateEmail(email string) bool {
	if strings.IndexFunc(email, isEmailSpace) >= 0 {
		return false
	}

	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}

	// a dot that is neither the first nor the last character of the domain
	return len(domain) >= 3 && strings.Contains(domain[1:len(domain)-1], ".")
}
