package storeauth

import (
	"context"
	"errors"
	"fmt"
)

// ChangeRole moves an account to a new role on behalf of actor. Actors
// must hold ADMIN or above; granting or revoking ADMIN itself takes
// SUPER_ADMIN. Promotion to SUPER_ADMIN goes through the store's
// single-holder guard, and the sole SUPER_ADMIN can never be demoted.
func (e *Engine) ChangeRole(ctx context.Context, actor Identity, accountID string, newRole Role) error {
	if err := e.ready(); err != nil {
		return err
	}
	if accountID == "" || newRole > RoleSuperAdmin {
		return fmt.Errorf("%w: account id or role", ErrValidation)
	}
	if !actor.Role.AtLeast(RoleAdmin) {
		return &RoleError{Required: RoleAdmin, Actual: actor.Role}
	}

	acct, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct.Role == newRole {
		return nil
	}
	if acct.Role == RoleSuperAdmin {
		return ErrSuperAdminDemotion
	}
	if (acct.Role == RoleAdmin || newRole.AtLeast(RoleAdmin)) && actor.Role != RoleSuperAdmin {
		return &RoleError{Required: RoleSuperAdmin, Actual: actor.Role}
	}

	previous := acct.Role
	acct.Role = newRole
	if err := e.saveAccount(ctx, acct); err != nil {
		if errors.Is(err, ErrSuperAdminExists) {
			return ErrSuperAdminExists
		}
		return err
	}

	e.metric(MetricRoleChange)
	e.emitAudit(ctx, AuditRoleChange, acct.ID, acct.Email, true, nil, map[string]string{
		"actor": actor.AccountID,
		"from":  previous.String(),
		"to":    newRole.String(),
	})
	return nil
}

// SetAccountActive flips the soft-delete flag. Deactivation blocks both
// login and refresh but keeps the record; this core never hard-deletes.
func (e *Engine) SetAccountActive(ctx context.Context, actor Identity, accountID string, active bool) error {
	return e.setStatus(ctx, actor, accountID, func(acct *Account) {
		acct.Active = active
	})
}

// SetAccountBlocked flips the administrative block. Blocking also wipes
// the refresh lineage so the lockout takes effect before the next access
// token expires.
func (e *Engine) SetAccountBlocked(ctx context.Context, actor Identity, accountID string, blocked bool) error {
	return e.setStatus(ctx, actor, accountID, func(acct *Account) {
		acct.Blocked = blocked
		if blocked {
			acct.RefreshFamilies = nil
		}
	})
}

func (e *Engine) setStatus(ctx context.Context, actor Identity, accountID string, mutate func(*Account)) error {
	if err := e.ready(); err != nil {
		return err
	}
	if accountID == "" {
		return fmt.Errorf("%w: account id", ErrValidation)
	}
	if !actor.Role.AtLeast(RoleAdmin) {
		return &RoleError{Required: RoleAdmin, Actual: actor.Role}
	}

	acct, err := e.store.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	// The SUPER_ADMIN account is immune to status changes, its own
	// included; locking out the root of the hierarchy is unrecoverable.
	if acct.Role == RoleSuperAdmin {
		return ErrInsufficientRole
	}
	if acct.Role.AtLeast(actor.Role) && actor.Role != RoleSuperAdmin {
		return &RoleError{Required: RoleSuperAdmin, Actual: actor.Role}
	}

	mutate(acct)
	if err := e.saveAccount(ctx, acct); err != nil {
		return err
	}

	e.metric(MetricStatusChange)
	e.emitAudit(ctx, AuditStatusChange, acct.ID, acct.Email, true, nil, map[string]string{
		"actor":   actor.AccountID,
		"active":  fmt.Sprintf("%t", acct.Active),
		"blocked": fmt.Sprintf("%t", acct.Blocked),
	})
	return nil
}
