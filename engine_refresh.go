package storeauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/storeauth/internal/rate"
	"github.com/google/uuid"
)

// Refresh redeems a refresh token for a new access/refresh pair and
// rotates the token's lineage: the presented family is retired and a fresh
// one takes its place as the account's only valid lineage.
//
// A structurally valid token whose family is no longer in the account's
// set is treated as evidence of theft. Someone holds a token from a
// lineage that already rotated, and there is no way to tell whether it is
// the thief or the victim presenting it, so the entire family set is wiped
// and ErrTokenRevoked returned. Every holder must re-authenticate.
//
// Two concurrent redemptions race on the store's version CAS; the loser
// re-reads once and then lands on the revocation path, since the winner's
// rotation removed the shared family.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	if err := e.ready(); err != nil {
		return LoginResult{}, err
	}
	if refreshToken == "" {
		return LoginResult{}, ErrNoToken
	}

	claims, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil {
		e.metric(MetricRefreshFailure)
		return LoginResult{}, ErrTokenInvalid
	}

	if e.limiter != nil {
		err := e.limiter.CheckRefresh(ctx, claims.AccountID)
		if errors.Is(err, rate.ErrRateLimited) {
			e.metric(MetricRefreshRateLimited)
			return LoginResult{}, ErrRateLimited
		}
		if err != nil {
			return LoginResult{}, err
		}
	}

	for attempt := 0; ; attempt++ {
		acct, err := e.store.FindByID(ctx, claims.AccountID)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				e.metric(MetricRefreshFailure)
				e.emitAudit(ctx, AuditRefresh, claims.AccountID, "", false, ErrInvalidUser, nil)
				return LoginResult{}, ErrInvalidUser
			}
			return LoginResult{}, err
		}
		if acct.Blocked || !acct.Active {
			e.metric(MetricRefreshFailure)
			e.emitAudit(ctx, AuditRefresh, acct.ID, acct.Email, false, ErrInvalidUser, nil)
			return LoginResult{}, ErrInvalidUser
		}

		if !acct.HasFamily(claims.FamilyID) {
			return LoginResult{}, e.revokeLineage(ctx, acct, claims.FamilyID)
		}

		familyID := uuid.NewString()
		acct.RefreshFamilies = []string{familyID}
		err = e.saveAccount(ctx, acct)
		if errors.Is(err, ErrVersionConflict) && attempt == 0 {
			continue
		}
		if err != nil {
			return LoginResult{}, err
		}

		result, err := e.issuePair(acct, familyID)
		if err != nil {
			return LoginResult{}, err
		}
		e.metric(MetricRefreshSuccess)
		e.emitAudit(ctx, AuditRefresh, acct.ID, acct.Email, true, nil, nil)
		return result, nil
	}
}

// revokeLineage wipes every active family after a reuse detection. The
// wipe is best-effort under CAS contention; a conflicting writer has
// already replaced the set, which achieves the same end.
func (e *Engine) revokeLineage(ctx context.Context, acct *Account, staleFamily string) error {
	acct.RefreshFamilies = nil
	if err := e.saveAccount(ctx, acct); err != nil && !errors.Is(err, ErrVersionConflict) {
		return err
	}
	e.metric(MetricRefreshReuseDetected)
	e.emitAudit(ctx, AuditRefreshReuse, acct.ID, acct.Email, false, ErrTokenRevoked, map[string]string{
		"stale_family": staleFamily,
	})
	return ErrTokenRevoked
}

// Logout invalidates every refresh lineage for the account. Access tokens
// already issued remain valid until they expire; the account simply cannot
// mint new pairs. Logging out an account with no active lineage succeeds.
func (e *Engine) Logout(ctx context.Context, accountID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if accountID == "" {
		return fmt.Errorf("%w: account id", ErrValidation)
	}

	acct, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if len(acct.RefreshFamilies) == 0 {
		return nil
	}
	acct.RefreshFamilies = nil
	if err := e.saveAccount(ctx, acct); err != nil {
		return err
	}
	e.metric(MetricLogout)
	e.emitAudit(ctx, AuditLogout, acct.ID, acct.Email, true, nil, nil)
	return nil
}
