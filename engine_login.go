package storeauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/storeauth/internal/rate"
	"github.com/google/uuid"
)

// Login authenticates a local-credential account. Unknown email, an
// OAuth-only account with no password, and a wrong password all surface
// the same ErrInvalidCredentials so the response reveals nothing about
// which addresses exist. Blocked and inactive accounts are reported
// distinctly; knowing the password is precondition enough for that much.
//
// Success replaces the account's refresh-family set with a single fresh
// family and returns a new access/refresh pair, which invalidates any
// lineage minted by a previous login.
func (e *Engine) Login(ctx context.Context, email, passwordPlain string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}
	email = normalizeEmail(email)
	if !validEmail(email) || passwordPlain == "" {
		return LoginResult{}, fmt.Errorf("%w: email or password", ErrValidation)
	}
	ip := ClientIP(ctx)
	if err := e.checkLoginBudget(ctx, email, ip); err != nil {
		e.metric(MetricLoginRateLimited)
		return LoginResult{}, err
	}

	acct, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return LoginResult{}, e.failLogin(ctx, email, ip, ErrInvalidCredentials)
		}
		return LoginResult{}, err
	}

	if acct.Blocked {
		return LoginResult{}, e.failLogin(ctx, email, ip, ErrAccountBlocked)
	}
	if !acct.Active {
		return LoginResult{}, e.failLogin(ctx, email, ip, ErrAccountInactive)
	}

	// OAuth-only accounts carry no hash; password login is impossible for
	// them and indistinguishable from a bad password.
	if acct.PasswordHash == "" {
		return LoginResult{}, e.failLogin(ctx, email, ip, ErrInvalidCredentials)
	}
	ok, err := e.hasher.Verify(passwordPlain, acct.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, e.failLogin(ctx, email, ip, ErrInvalidCredentials)
	}

	if e.config.Verification.RequireForLogin && !acct.EmailVerified {
		return LoginResult{}, e.failLogin(ctx, email, ip, ErrEmailNotVerified)
	}

	if upgrade, _ := e.hasher.NeedsUpgrade(acct.PasswordHash); upgrade {
		if rehash, rehashErr := e.hasher.Hash(passwordPlain); rehashErr == nil {
			acct.PasswordHash = rehash
		}
	}

	result, err := e.establishSession(ctx, acct)
	if err != nil {
		return LoginResult{}, err
	}

	if e.limiter != nil {
		_ = e.limiter.ResetLogin(ctx, email, ip)
	}
	e.metric(MetricLoginSuccess)
	e.emitAudit(ctx, AuditLogin, acct.ID, email, true, nil, nil)
	return result, nil
}

// FederatedLogin signs in a provider-asserted identity, creating the
// account on first contact. Provider-created accounts are born verified;
// the provider already proved address ownership. An existing local account
// with the same email is linked rather than duplicated.
func (e *Engine) FederatedLogin(ctx context.Context, identity FederatedIdentity) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}
	email := normalizeEmail(identity.Email)
	if identity.Provider == "" || identity.Provider == ProviderLocal ||
		identity.FederatedID == "" || !validEmail(email) {
		return LoginResult{}, fmt.Errorf("%w: federated identity", ErrValidation)
	}

	acct, err := e.store.FindByFederatedID(ctx, identity.Provider, identity.FederatedID)
	if errors.Is(err, ErrAccountNotFound) {
		acct, err = e.linkOrCreateFederated(ctx, identity, email)
	}
	if err != nil {
		return LoginResult{}, err
	}

	if acct.Blocked {
		e.emitAudit(ctx, AuditFederatedLogin, acct.ID, email, false, ErrAccountBlocked, nil)
		return LoginResult{}, ErrAccountBlocked
	}
	if !acct.Active {
		e.emitAudit(ctx, AuditFederatedLogin, acct.ID, email, false, ErrAccountInactive, nil)
		return LoginResult{}, ErrAccountInactive
	}

	result, err := e.establishSession(ctx, acct)
	if err != nil {
		return LoginResult{}, err
	}
	e.metric(MetricFederatedLoginSuccess)
	e.emitAudit(ctx, AuditFederatedLogin, acct.ID, email, true, nil, map[string]string{
		"provider": string(identity.Provider),
	})
	return result, nil
}

func (e *Engine) linkOrCreateFederated(ctx context.Context, identity FederatedIdentity, email string) (*Account, error) {
	existing, err := e.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Provider = identity.Provider
		existing.FederatedID = identity.FederatedID
		existing.EmailVerified = true
		if err := e.saveAccount(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	case errors.Is(err, ErrAccountNotFound):
	default:
		return nil, err
	}

	now := e.clock()
	acct := &Account{
		ID:            uuid.NewString(),
		Email:         email,
		DisplayName:   identity.DisplayName,
		Provider:      identity.Provider,
		FederatedID:   identity.FederatedID,
		Role:          RoleCustomer,
		EmailVerified: true,
		Active:        true,
		CreatedAt:     now,
	}
	if acct.DisplayName == "" {
		acct.DisplayName = email
	}
	if err := e.store.Create(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// establishSession mints a fresh refresh family, persists it as the
// account's only lineage, and issues the token pair.
func (e *Engine) establishSession(ctx context.Context, acct *Account) (LoginResult, error) {
	familyID := uuid.NewString()
	acct.RefreshFamilies = []string{familyID}
	acct.LastLoginAt = e.clock()
	if err := e.saveAccount(ctx, acct); err != nil {
		return LoginResult{}, err
	}
	return e.issuePair(acct, familyID)
}

func (e *Engine) issuePair(acct *Account, familyID string) (LoginResult, error) {
	access, err := e.tokens.IssueAccess(acct.ID, acct.Email, acct.Role.String())
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := e.tokens.IssueRefresh(acct.ID, acct.Email, acct.Role.String(), familyID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Account:      acct.Public(),
	}, nil
}

func (e *Engine) checkLoginBudget(ctx context.Context, email, ip string) error {
	if e.limiter == nil {
		return nil
	}
	err := e.limiter.CheckLogin(ctx, email, ip)
	if errors.Is(err, rate.ErrRateLimited) {
		return ErrRateLimited
	}
	return err
}

// failLogin charges the limiter, records the failure, and returns cause.
func (e *Engine) failLogin(ctx context.Context, email, ip string, cause error) error {
	if e.limiter != nil {
		_ = e.limiter.IncrementLogin(ctx, email, ip)
	}
	e.metric(MetricLoginFailure)
	e.emitAudit(ctx, AuditLogin, "", email, false, cause, nil)
	return cause
}
