package storeauth

import "github.com/MrEthical07/storeauth/internal/metrics"

// MetricID re-exports the engine counter identifiers for exporter wiring.
type MetricID = metrics.MetricID

const (
	MetricRegisterSuccess       = metrics.MetricRegisterSuccess
	MetricRegisterDuplicate     = metrics.MetricRegisterDuplicate
	MetricRegisterRateLimited   = metrics.MetricRegisterRateLimited
	MetricVerificationRequest   = metrics.MetricVerificationRequest
	MetricVerificationSuccess   = metrics.MetricVerificationSuccess
	MetricVerificationFailure   = metrics.MetricVerificationFailure
	MetricLoginSuccess          = metrics.MetricLoginSuccess
	MetricLoginFailure          = metrics.MetricLoginFailure
	MetricLoginRateLimited      = metrics.MetricLoginRateLimited
	MetricFederatedLoginSuccess = metrics.MetricFederatedLoginSuccess
	MetricRefreshSuccess        = metrics.MetricRefreshSuccess
	MetricRefreshFailure        = metrics.MetricRefreshFailure
	MetricRefreshReuseDetected  = metrics.MetricRefreshReuseDetected
	MetricRefreshRateLimited    = metrics.MetricRefreshRateLimited
	MetricLogout                = metrics.MetricLogout
	MetricResetRequest          = metrics.MetricResetRequest
	MetricResetSuccess          = metrics.MetricResetSuccess
	MetricResetFailure          = metrics.MetricResetFailure
	MetricRoleChange            = metrics.MetricRoleChange
	MetricStatusChange          = metrics.MetricStatusChange
	MetricGateDenied            = metrics.MetricGateDenied
)

func (e *Engine) metric(id MetricID) {
	e.metrics.Inc(id)
}
