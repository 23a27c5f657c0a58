// Package token signs and verifies the access/refresh token pair.
//
// Both kinds are stateless HS256 JWTs: a short-lived access token for API
// calls and a long-lived refresh token tagged with a rotation family id.
// The two kinds are signed with separate secrets and discriminated by a
// typ claim, so neither can stand in for the other. Verification fails
// closed - callers see a single ErrInvalidToken for every defect.
package token
