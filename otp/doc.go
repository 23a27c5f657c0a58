// Package otp generates the short numeric codes used for email
// verification and password reset challenges.
//
// Codes are fixed width, drawn from crypto/rand, and paired with an
// explicit expiry timestamp. Expiry checks are strict: a code presented
// exactly at its expiry instant is still valid.
package otp
