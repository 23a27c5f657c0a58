package storeauth

import (
	"net/mail"
	"strings"
	"unicode"
)

const maxDisplayNameLen = 100

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	// mail.ParseAddress accepts local addresses without a dot in the
	// domain; the storefront requires a routable-looking one.
	at := strings.LastIndexByte(email, '@')
	return at > 0 && strings.Contains(email[at+1:], ".")
}

// checkPasswordPolicy applies the acceptance rules and returns nil or a
// *PasswordPolicyError listing every failed rule. The error text names
// rules only and never echoes the candidate.
func (e *Engine) checkPasswordPolicy(candidate string) error {
	var failed []string
	if len(candidate) < e.config.Policy.MinLength {
		failed = append(failed, "length")
	}
	var upper, lower, digit, symbol bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if !upper {
		failed = append(failed, "uppercase")
	}
	if !lower {
		failed = append(failed, "lowercase")
	}
	if !digit {
		failed = append(failed, "digit")
	}
	if !symbol {
		failed = append(failed, "symbol")
	}
	if len(failed) > 0 {
		return &PasswordPolicyError{Failed: failed}
	}
	return nil
}
