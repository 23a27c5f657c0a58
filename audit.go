package storeauth

import (
	"context"

	"github.com/MrEthical07/storeauth/internal/audit"
)

// Audit event types emitted by the engine. Stable strings; sinks key off
// them.
const (
	AuditRegister           = "auth.register"
	AuditResendVerification = "auth.verification.resend"
	AuditVerifyEmail        = "auth.verification.confirm"
	AuditLogin              = "auth.login"
	AuditFederatedLogin     = "auth.login.federated"
	AuditRefresh            = "auth.refresh"
	AuditRefreshReuse       = "auth.refresh.reuse_detected"
	AuditLogout             = "auth.logout"
	AuditForgotPassword     = "auth.reset.request"
	AuditResetPassword      = "auth.reset.confirm"
	AuditRoleChange         = "account.role_change"
	AuditStatusChange       = "account.status_change"
	AuditNotifyFailure      = "notify.delivery_failure"
)

// emitAudit records one engine operation outcome. Events carry identifiers
// and outcomes only; passwords, hashes, OTP values, and token material must
// never reach this function.
func (e *Engine) emitAudit(ctx context.Context, eventType, accountID, email string, success bool, opErr error, metadata map[string]string) {
	if e.audit == nil {
		return
	}
	event := audit.Event{
		Timestamp: e.clock(),
		EventType: eventType,
		AccountID: accountID,
		Email:     email,
		IP:        ClientIP(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if opErr != nil {
		event.Error = ErrorCode(opErr)
	}
	e.audit.Emit(ctx, event)
}
