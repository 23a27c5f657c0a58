package storeauth

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the engine. Errors are matched with
// errors.Is; transports map them to stable machine codes via [ErrorCode].
var (
	ErrValidation         = errors.New("validation failed")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountBlocked     = errors.New("account blocked")
	ErrAccountInactive    = errors.New("account inactive")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrNoToken            = errors.New("no token provided")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrInvalidUser        = errors.New("token subject invalid")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrNoOtpPending       = errors.New("no verification pending")
	ErrOtpExpired         = errors.New("verification code expired")
	ErrOtpInvalid         = errors.New("verification code invalid")
	ErrInsufficientRole   = errors.New("insufficient role")
	ErrRateLimited        = errors.New("rate limited")
	ErrSuperAdminExists   = errors.New("super admin already assigned")
	ErrSuperAdminDemotion = errors.New("cannot demote sole super admin")
	ErrVersionConflict    = errors.New("account version conflict")
	ErrStoreUnavailable   = errors.New("credential store unavailable")
	ErrEngineNotReady     = errors.New("engine not configured")
)

// PasswordPolicyError reports which password policy checks failed. It
// matches [ErrWeakPassword] under errors.Is. Failed entries name the rule
// ("length", "uppercase", "lowercase", "digit", "symbol") and never echo
// the password.
type PasswordPolicyError struct {
	Failed []string
}

func (e *PasswordPolicyError) Error() string {
	return fmt.Sprintf("password policy: failed %s", strings.Join(e.Failed, ", "))
}

func (e *PasswordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

// RoleError reports an authorization denial with the role that was
// required and the role the caller actually holds. It matches
// [ErrInsufficientRole] under errors.Is.
type RoleError struct {
	Required Role
	Actual   Role
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("requires %s, have %s", e.Required, e.Actual)
}

func (e *RoleError) Is(target error) bool {
	return target == ErrInsufficientRole
}

// ErrorCode maps an engine error to its stable machine code. Unrecognized
// errors (store failures, context cancellation) collapse to
// INFRASTRUCTURE_ERROR so internals never leak through the API surface.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrWeakPassword):
		return "WEAK_PASSWORD"
	case errors.Is(err, ErrEmailExists):
		return "EMAIL_EXISTS"
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrAccountBlocked):
		return "ACCOUNT_BLOCKED"
	case errors.Is(err, ErrAccountInactive):
		return "ACCOUNT_INACTIVE"
	case errors.Is(err, ErrEmailNotVerified):
		return "EMAIL_NOT_VERIFIED"
	case errors.Is(err, ErrNoToken):
		return "NO_TOKEN"
	case errors.Is(err, ErrTokenInvalid):
		return "INVALID_TOKEN"
	case errors.Is(err, ErrTokenRevoked):
		return "TOKEN_REVOKED"
	case errors.Is(err, ErrInvalidUser):
		return "INVALID_USER"
	case errors.Is(err, ErrAccountNotFound):
		return "USER_NOT_FOUND"
	case errors.Is(err, ErrAlreadyVerified):
		return "ALREADY_VERIFIED"
	case errors.Is(err, ErrNoOtpPending):
		return "NO_OTP_PENDING"
	case errors.Is(err, ErrOtpExpired):
		return "OTP_EXPIRED"
	case errors.Is(err, ErrOtpInvalid):
		return "INVALID_OTP"
	case errors.Is(err, ErrInsufficientRole):
		return "INSUFFICIENT_PERMISSIONS"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrSuperAdminExists):
		return "SUPER_ADMIN_EXISTS"
	case errors.Is(err, ErrSuperAdminDemotion):
		return "SUPER_ADMIN_DEMOTION"
	case errors.Is(err, ErrVersionConflict):
		return "VERSION_CONFLICT"
	default:
		return "INFRASTRUCTURE_ERROR"
	}
}
