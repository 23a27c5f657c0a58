package storeauth

import (
	"context"
	"errors"
)

// ResolveAccess verifies an access token and resolves it against the
// live account record, so a block or deactivation applied after issuance
// takes effect immediately instead of at token expiry. Failures are
// distinct: ErrNoToken, ErrTokenInvalid, ErrAccountNotFound,
// ErrAccountBlocked, ErrAccountInactive.
func (e *Engine) ResolveAccess(ctx context.Context, accessToken string) (Identity, error) {
	if err := e.ready(); err != nil {
		return Identity{}, err
	}
	identity, err := e.resolveAccess(ctx, accessToken)
	if err != nil {
		e.metric(MetricGateDenied)
		return Identity{}, err
	}
	return identity, nil
}

func (e *Engine) resolveAccess(ctx context.Context, accessToken string) (Identity, error) {
	if accessToken == "" {
		return Identity{}, ErrNoToken
	}
	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		return Identity{}, ErrTokenInvalid
	}

	acct, err := e.store.FindByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Identity{}, ErrAccountNotFound
		}
		return Identity{}, err
	}
	if acct.Blocked {
		return Identity{}, ErrAccountBlocked
	}
	if !acct.Active {
		return Identity{}, ErrAccountInactive
	}

	// Role comes from the store, not the claim; a role change mid-token
	// must not let the old role linger for the access TTL.
	return Identity{
		AccountID:     acct.ID,
		Email:         acct.Email,
		Role:          acct.Role,
		EmailVerified: acct.EmailVerified,
	}, nil
}

// GetAccount returns the API-safe projection of one account.
func (e *Engine) GetAccount(ctx context.Context, accountID string) (PublicAccount, error) {
	if err := e.ready(); err != nil {
		return PublicAccount{}, err
	}
	acct, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		return PublicAccount{}, err
	}
	return acct.Public(), nil
}
