package storeauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/storeauth/otp"
)

// VerifyEmail confirms ownership of a registered address. The checks run
// in a fixed order so callers see one deterministic failure: unknown
// account, already verified, no pending challenge, expired code, wrong
// code. Success clears the stored challenge, so a replay of the same code
// lands on ErrAlreadyVerified rather than minting a second welcome mail.
func (e *Engine) VerifyEmail(ctx context.Context, email, code string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = normalizeEmail(email)
	if !validEmail(email) || code == "" {
		return fmt.Errorf("%w: email or code", ErrValidation)
	}
	if err := e.checkConfirmBudget(ctx, "ver", email); err != nil {
		return err
	}

	acct, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metric(MetricVerificationFailure)
			return ErrAccountNotFound
		}
		return err
	}

	switch {
	case acct.EmailVerified:
		e.emitAudit(ctx, AuditVerifyEmail, acct.ID, email, false, ErrAlreadyVerified, nil)
		return ErrAlreadyVerified
	case acct.VerificationCode == "":
		e.metric(MetricVerificationFailure)
		e.emitAudit(ctx, AuditVerifyEmail, acct.ID, email, false, ErrNoOtpPending, nil)
		return ErrNoOtpPending
	case otp.IsExpired(acct.VerificationExpiry, e.clock()):
		e.metric(MetricVerificationFailure)
		e.emitAudit(ctx, AuditVerifyEmail, acct.ID, email, false, ErrOtpExpired, nil)
		return ErrOtpExpired
	case !otp.Matches(code, acct.VerificationCode):
		e.metric(MetricVerificationFailure)
		e.emitAudit(ctx, AuditVerifyEmail, acct.ID, email, false, ErrOtpInvalid, nil)
		return ErrOtpInvalid
	}

	acct.EmailVerified = true
	acct.VerificationCode = ""
	acct.VerificationExpiry = time.Time{}
	if err := e.saveAccount(ctx, acct); err != nil {
		return err
	}

	e.sendNotification(ctx, acct, TemplateWelcome, map[string]string{
		"displayName": acct.DisplayName,
	})
	e.metric(MetricVerificationSuccess)
	e.emitAudit(ctx, AuditVerifyEmail, acct.ID, email, true, nil, nil)
	return nil
}
