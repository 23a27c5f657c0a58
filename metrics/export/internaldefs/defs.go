package internaldefs

import (
	storeauth "github.com/MrEthical07/storeauth"
)

// CounterDef binds a storeauth counter to its exported metric name.
type CounterDef struct {
	ID   storeauth.MetricID
	Name string
	Help string
}

// CounterDefs is the canonical, ordered list of exported counters. Both
// exporters iterate it so Prometheus and OTel surfaces always agree.
var CounterDefs = []CounterDef{
	{ID: storeauth.MetricRegisterSuccess, Name: "storeauth_register_success_total", Help: "Successful registrations."},
	{ID: storeauth.MetricRegisterDuplicate, Name: "storeauth_register_duplicate_total", Help: "Registrations rejected for a duplicate email."},
	{ID: storeauth.MetricRegisterRateLimited, Name: "storeauth_register_rate_limited_total", Help: "Rate-limited registration attempts."},
	{ID: storeauth.MetricVerificationRequest, Name: "storeauth_verification_request_total", Help: "Verification code requests, initial and resent."},
	{ID: storeauth.MetricVerificationSuccess, Name: "storeauth_verification_success_total", Help: "Successful email verifications."},
	{ID: storeauth.MetricVerificationFailure, Name: "storeauth_verification_failure_total", Help: "Failed email verification attempts."},
	{ID: storeauth.MetricLoginSuccess, Name: "storeauth_login_success_total", Help: "Successful password logins."},
	{ID: storeauth.MetricLoginFailure, Name: "storeauth_login_failure_total", Help: "Failed password login attempts."},
	{ID: storeauth.MetricLoginRateLimited, Name: "storeauth_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: storeauth.MetricFederatedLoginSuccess, Name: "storeauth_federated_login_success_total", Help: "Successful federated sign-ins."},
	{ID: storeauth.MetricRefreshSuccess, Name: "storeauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: storeauth.MetricRefreshFailure, Name: "storeauth_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: storeauth.MetricRefreshReuseDetected, Name: "storeauth_refresh_reuse_detected_total", Help: "Refresh-token reuse detections (lineage revocations)."},
	{ID: storeauth.MetricRefreshRateLimited, Name: "storeauth_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: storeauth.MetricLogout, Name: "storeauth_logout_total", Help: "Logout operations."},
	{ID: storeauth.MetricResetRequest, Name: "storeauth_reset_request_total", Help: "Password reset requests."},
	{ID: storeauth.MetricResetSuccess, Name: "storeauth_reset_success_total", Help: "Successful password resets."},
	{ID: storeauth.MetricResetFailure, Name: "storeauth_reset_failure_total", Help: "Failed password reset confirmations."},
	{ID: storeauth.MetricRoleChange, Name: "storeauth_role_change_total", Help: "Role changes applied."},
	{ID: storeauth.MetricStatusChange, Name: "storeauth_status_change_total", Help: "Account status changes applied."},
	{ID: storeauth.MetricGateDenied, Name: "storeauth_gate_denied_total", Help: "Authorization gate denials."},
}
