package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// ErrInvalidDigits is returned when the requested code width is outside
// the supported 4..10 range.
var ErrInvalidDigits = errors.New("invalid otp digits")

// Generate returns a fixed-width numeric code drawn from crypto/rand.
// Each digit is sampled independently so the result is uniform over the
// full 10^digits space, including leading zeros.
func Generate(digits int) (string, error) {
	if digits < 4 || digits > 10 {
		return "", ErrInvalidDigits
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	code := b.String()
	if len(code) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return code, nil
}

// ExpiryFromNow returns the expiry timestamp for a code issued now.
func ExpiryFromNow(window time.Duration) time.Time {
	return time.Now().Add(window)
}

// IsExpired reports whether a code expiry has passed at the given instant.
// The comparison is strict: a code checked exactly at its expiry is still
// accepted.
func IsExpired(expiry, now time.Time) bool {
	return now.After(expiry)
}

// Matches compares a submitted code against the stored one. Codes are
// numeric, so this is a plain equality check; there is no partial match.
func Matches(submitted, stored string) bool {
	return stored != "" && submitted == stored
}
