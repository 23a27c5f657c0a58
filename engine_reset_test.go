package storeauth

import (
	"context"
	"testing"
	"time"
)

func TestForgotPasswordGenericSuccess(t *testing.T) {
	engine, _, dispatcher, _ := newTestEngine(t)
	ctx := context.Background()

	registerVerified(t, engine, dispatcher, "a@x.com", "GoodPass1!")

	// Registered and unregistered addresses get the same nil result.
	if err := engine.ForgotPassword(ctx, "a@x.com"); err != nil {
		t.Fatalf("known email: %v", err)
	}
	if err := engine.ForgotPassword(ctx, "ghost@x.com"); err != nil {
		t.Fatalf("unknown email: %v", err)
	}

	if dispatcher.countKind(TemplatePasswordReset) != 1 {
		t.Fatalf("reset mail count %d", dispatcher.countKind(TemplatePasswordReset))
	}
}

func TestResetPassword(t *testing.T) {
	engine, store, dispatcher, _ := newTestEngine(t)
	ctx := context.Background()

	id := registerVerified(t, engine, dispatcher, "a@x.com", "GoodPass1!")
	login := mustLogin(t, engine, "a@x.com", "GoodPass1!")

	if err := engine.ForgotPassword(ctx, "a@x.com"); err != nil {
		t.Fatal(err)
	}
	code := dispatcher.lastCode(t, "a@x.com")

	if err := engine.ResetPassword(ctx, "a@x.com", code, "NewStr0ng!Pass"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	acct := store.get(t, id)
	if acct.ResetCode != "" || !acct.ResetExpiry.IsZero() {
		t.Fatalf("challenge not cleared: %+v", acct)
	}
	if len(acct.RefreshFamilies) != 0 {
		t.Fatalf("families survived reset: %v", acct.RefreshFamilies)
	}

	// Old refresh token and old password are both dead.
	_, err := engine.Refresh(ctx, login.RefreshToken)
	wantErrIs(t, err, ErrTokenRevoked)
	_, err = engine.Login(ctx, "a@x.com", "GoodPass1!")
	wantErrIs(t, err, ErrInvalidCredentials)

	mustLogin(t, engine, "a@x.com", "NewStr0ng!Pass")
}

func TestResetPasswordFailures(t *testing.T) {
	engine, _, dispatcher, clock := newTestEngine(t)
	ctx := context.Background()

	registerVerified(t, engine, dispatcher, "a@x.com", "GoodPass1!")

	// No pending challenge yet.
	wantErrIs(t, engine.ResetPassword(ctx, "a@x.com", "123456", "NewStr0ng!Pass"), ErrNoOtpPending)
	wantErrIs(t, engine.ResetPassword(ctx, "ghost@x.com", "123456", "NewStr0ng!Pass"), ErrAccountNotFound)

	if err := engine.ForgotPassword(ctx, "a@x.com"); err != nil {
		t.Fatal(err)
	}
	code := dispatcher.lastCode(t, "a@x.com")

	// Weak replacement is rejected before any state changes.
	wantErrIs(t, engine.ResetPassword(ctx, "a@x.com", code, "weak"), ErrWeakPassword)

	wantErrIs(t, engine.ResetPassword(ctx, "a@x.com", "000000", "NewStr0ng!Pass"), ErrOtpInvalid)

	// Strict expiry: valid at the boundary, dead one second past it.
	clock.Advance(engine.config.Reset.TTL + time.Second)
	wantErrIs(t, engine.ResetPassword(ctx, "a@x.com", code, "NewStr0ng!Pass"), ErrOtpExpired)

	// The failed attempts did not burn the password.
	mustLogin(t, engine, "a@x.com", "GoodPass1!")
}

func TestResetPasswordForFederatedAccountAddsLocalCredential(t *testing.T) {
	engine, _, dispatcher, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.FederatedLogin(ctx, FederatedIdentity{
		Provider: ProviderGoogle, FederatedID: "goog-1", Email: "oauth@x.com",
	}); err != nil {
		t.Fatal(err)
	}

	if err := engine.ForgotPassword(ctx, "oauth@x.com"); err != nil {
		t.Fatal(err)
	}
	code := dispatcher.lastCode(t, "oauth@x.com")
	if err := engine.ResetPassword(ctx, "oauth@x.com", code, "NewStr0ng!Pass"); err != nil {
		t.Fatal(err)
	}

	// The account can now log in with a password as well.
	mustLogin(t, engine, "oauth@x.com", "NewStr0ng!Pass")
}
