package storeauth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/storeauth/internal/rate"
	"github.com/MrEthical07/storeauth/otp"
	"github.com/google/uuid"
)

// Register creates a local-credential account in the CUSTOMER role and
// starts the email verification challenge. The result never carries the
// OTP or any password material; the code travels only through the
// notification dispatcher.
//
// Returns ErrValidation for malformed input, ErrWeakPassword (as a
// *PasswordPolicyError) for policy failures, ErrEmailExists for duplicate
// addresses, and ErrRateLimited when the registration budget for this
// address or IP is exhausted.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (RegisterResult, error) {
	if err := e.ready(); err != nil {
		return RegisterResult{}, err
	}

	email := normalizeEmail(req.Email)
	displayName := strings.TrimSpace(req.DisplayName)
	if !validEmail(email) {
		return RegisterResult{}, fmt.Errorf("%w: email", ErrValidation)
	}
	if displayName == "" || len(displayName) > maxDisplayNameLen {
		return RegisterResult{}, fmt.Errorf("%w: display name", ErrValidation)
	}
	if err := e.checkPasswordPolicy(req.Password); err != nil {
		return RegisterResult{}, err
	}

	if err := e.checkRequestBudget(ctx, "reg", email); err != nil {
		e.metric(MetricRegisterRateLimited)
		return RegisterResult{}, err
	}

	if _, err := e.store.FindByEmail(ctx, email); err == nil {
		e.metric(MetricRegisterDuplicate)
		e.emitAudit(ctx, AuditRegister, "", email, false, ErrEmailExists, nil)
		return RegisterResult{}, ErrEmailExists
	} else if !errors.Is(err, ErrAccountNotFound) {
		return RegisterResult{}, err
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("hash password: %w", err)
	}
	code, err := otp.Generate(e.config.Verification.OTPDigits)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("generate verification code: %w", err)
	}

	now := e.clock()
	acct := &Account{
		ID:                 uuid.NewString(),
		Email:              email,
		DisplayName:        displayName,
		PasswordHash:       hash,
		Provider:           ProviderLocal,
		Role:               RoleCustomer,
		VerificationCode:   code,
		VerificationExpiry: now.Add(e.config.Verification.TTL),
		Active:             true,
		CreatedAt:          now,
	}
	if err := e.store.Create(ctx, acct); err != nil {
		if errors.Is(err, ErrEmailExists) {
			e.metric(MetricRegisterDuplicate)
			return RegisterResult{}, ErrEmailExists
		}
		return RegisterResult{}, err
	}

	e.sendNotification(ctx, acct, TemplateEmailVerification, map[string]string{
		"code":    code,
		"minutes": fmt.Sprintf("%d", int(e.config.Verification.TTL.Minutes())),
	})

	e.metric(MetricRegisterSuccess)
	e.emitAudit(ctx, AuditRegister, acct.ID, email, true, nil, nil)
	return RegisterResult{
		AccountID:                 acct.ID,
		Email:                     email,
		RequiresEmailVerification: true,
	}, nil
}

// ResendVerification issues a fresh verification code for a pending
// account. It always reports success for well-formed addresses so callers
// cannot probe which emails are registered; missing and already-verified
// accounts are silent no-ops.
func (e *Engine) ResendVerification(ctx context.Context, email string) error {
	if err := e.ready(); err != nil {
		return err
	}
	email = normalizeEmail(email)
	if !validEmail(email) {
		return fmt.Errorf("%w: email", ErrValidation)
	}
	if err := e.checkRequestBudget(ctx, "ver", email); err != nil {
		return err
	}
	e.metric(MetricVerificationRequest)

	acct, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.emitAudit(ctx, AuditResendVerification, "", email, true, nil, map[string]string{"outcome": "unknown_email"})
			return nil
		}
		return err
	}
	if acct.EmailVerified {
		e.emitAudit(ctx, AuditResendVerification, acct.ID, email, true, nil, map[string]string{"outcome": "already_verified"})
		return nil
	}

	code, err := otp.Generate(e.config.Verification.OTPDigits)
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	acct.VerificationCode = code
	acct.VerificationExpiry = e.clock().Add(e.config.Verification.TTL)
	if err := e.saveAccount(ctx, acct); err != nil {
		return err
	}

	e.sendNotification(ctx, acct, TemplateEmailVerification, map[string]string{
		"code":    code,
		"minutes": fmt.Sprintf("%d", int(e.config.Verification.TTL.Minutes())),
	})
	e.emitAudit(ctx, AuditResendVerification, acct.ID, email, true, nil, nil)
	return nil
}

// checkRequestBudget consults the fixed-window request limiter when one is
// configured. Kind namespaces the budget per operation family.
func (e *Engine) checkRequestBudget(ctx context.Context, kind, email string) error {
	if e.limiter == nil {
		return nil
	}
	err := e.limiter.CheckRequest(ctx, kind, email, ClientIP(ctx))
	if errors.Is(err, rate.ErrRateLimited) {
		return ErrRateLimited
	}
	return err
}

func (e *Engine) checkConfirmBudget(ctx context.Context, kind, email string) error {
	if e.limiter == nil {
		return nil
	}
	err := e.limiter.CheckConfirm(ctx, kind, email, ClientIP(ctx))
	if errors.Is(err, rate.ErrRateLimited) {
		return ErrRateLimited
	}
	return err
}

// sendNotification performs a best-effort delivery. Failures are audited
// and counted but never fail the calling operation.
func (e *Engine) sendNotification(ctx context.Context, acct *Account, kind TemplateKind, payload map[string]string) {
	if e.dispatcher.Send(ctx, acct.Email, kind, payload) {
		return
	}
	e.emitAudit(ctx, AuditNotifyFailure, acct.ID, acct.Email, false, nil, map[string]string{
		"template": string(kind),
	})
}
