package storeauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/storeauth/otp"
)

// ForgotPassword starts the password reset challenge. It reports success
// for every well-formed address, registered or not, so the endpoint cannot
// be used to enumerate accounts. When the account exists a reset code is
// stored and mailed; federated accounts without a password still get one,
// since completing the reset gives them a local credential.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = normalizeEmail(email)
	if !validEmail(email) {
		return fmt.Errorf("%w: email", ErrValidation)
	}
	if err := e.checkRequestBudget(ctx, "rst", email); err != nil {
		return err
	}
	e.metric(MetricResetRequest)

	acct, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, AuditForgotPassword, "", email, true, nil, map[string]string{"outcome": "unknown_email"})
			return nil
		}
		return err
	}

	code, err := otp.Generate(e.config.Reset.OTPDigits)
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	acct.ResetCode = code
	acct.ResetExpiry = e.clock().Add(e.config.Reset.TTL)
	if err := e.saveAccount(ctx, acct); err != nil {
		return err
	}

	e.sendNotification(ctx, acct, TemplatePasswordReset, map[string]string{
		"code":    code,
		"minutes": fmt.Sprintf("%d", int(e.config.Reset.TTL.Minutes())),
	})
	e.emitAudit(ctx, AuditForgotPassword, acct.ID, email, true, nil, nil)
	return nil
}

// ResetPassword completes the reset challenge and installs a new password.
// The failure order mirrors VerifyEmail: unknown account, no pending
// challenge, expired code, wrong code; the new password must pass policy
// before any of the credential state changes. Success clears the challenge
// and wipes every refresh lineage, forcing re-login everywhere.
func (e *Engine) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = normalizeEmail(email)
	if !validEmail(email) || code == "" {
		return fmt.Errorf("%w: email or code", ErrValidation)
	}
	if err := e.checkPasswordPolicy(newPassword); err != nil {
		return err
	}
	if err := e.checkConfirmBudget(ctx, "rst", email); err != nil {
		return err
	}

	acct, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metric(MetricResetFailure)
			return ErrAccountNotFound
		}
		return err
	}

	switch {
	case acct.ResetCode == "":
		e.metric(MetricResetFailure)
		e.emitAudit(ctx, AuditResetPassword, acct.ID, email, false, ErrNoOtpPending, nil)
		return ErrNoOtpPending
	case otp.IsExpired(acct.ResetExpiry, e.clock()):
		e.metric(MetricResetFailure)
		e.emitAudit(ctx, AuditResetPassword, acct.ID, email, false, ErrOtpExpired, nil)
		return ErrOtpExpired
	case !otp.Matches(code, acct.ResetCode):
		e.metric(MetricResetFailure)
		e.emitAudit(ctx, AuditResetPassword, acct.ID, email, false, ErrOtpInvalid, nil)
		return ErrOtpInvalid
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acct.PasswordHash = hash
	acct.ResetCode = ""
	acct.ResetExpiry = time.Time{}
	acct.RefreshFamilies = nil
	if err := e.saveAccount(ctx, acct); err != nil {
		return err
	}

	e.metric(MetricResetSuccess)
	e.emitAudit(ctx, AuditResetPassword, acct.ID, email, true, nil, nil)
	return nil
}
