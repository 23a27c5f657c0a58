// Package middleware is the HTTP authorization gate over a storeauth
// Engine: bearer-token authentication, role checks against the fixed
// hierarchy, the uniform JSON response envelope, and the refresh-token
// cookie helpers.
//
// Handlers compose in the usual net/http middleware shape and work with
// any router that accepts func(http.Handler) http.Handler.
package middleware
