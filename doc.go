// Package storeauth is the authentication and session-lifecycle core of a
// storefront backend: password registration with OTP email verification,
// login with rotating refresh-token families that detect token reuse,
// silent access-token refresh, password reset, federated (OAuth) sign-in,
// and role-based authorization over the fixed hierarchy
// CUSTOMER < SUPPORT < ADMIN < SUPER_ADMIN.
//
// Engine methods are safe to call from multiple goroutines after
// construction through [Builder.Build]. All state lives in the
// [CredentialStore]; the engine itself holds no cross-request mutable
// state beyond its counters.
//
// # Architecture boundaries
//
// storeauth is the public surface. It exposes [Engine], [Builder],
// [Config], the [CredentialStore] and [NotificationDispatcher] contracts,
// and value types. Rate limiting, audit dispatch, and the counter set live
// under internal/ and are reachable only through re-exported aliases.
//
// # What this package must NOT do
//
//   - Persist or log plaintext passwords, OTP values, or token secrets;
//     audit events and errors carry identifiers and outcomes only.
//   - Keep a server-side token table. Revocation works exclusively through
//     the account's refresh-family set.
//   - Hard-delete accounts. Deactivation and blocking are field flips.
package storeauth
