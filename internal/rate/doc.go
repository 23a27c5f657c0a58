// Package rate provides Redis-backed fixed-window rate limiting for the
// authentication endpoints, which sit behind a stricter request ceiling
// than general API traffic.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - sa:rl:lu: - login per-email
//   - sa:rl:li: - login per-IP
//   - sa:rl:rf: - refresh per-account
//   - sa:rl:rq: - challenge requests (register, resend, forgot) per-email/IP
//   - sa:rl:cf: - challenge confirms (verify, reset) per-email/IP
//
// # What this package must NOT do
//
//   - Decide which operations are limited - the Engine owns that policy.
//   - Be imported outside the storeauth module.
package rate
