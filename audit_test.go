package storeauth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newAuditedEngine(t *testing.T) (*Engine, *fakeDispatcher, *ChannelSink) {
	t.Helper()
	cfg := testConfig()
	cfg.Audit = AuditConfig{Enabled: true, BufferSize: 64}

	sink := NewChannelSink(64)
	dispatcher := newFakeDispatcher()
	engine, err := New().
		WithConfig(cfg).
		WithStore(newFakeStore()).
		WithNotifications(dispatcher).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	return engine, dispatcher, sink
}

func drainEvents(engine *Engine, sink *ChannelSink) []AuditEvent {
	engine.Close()
	var events []AuditEvent
	for {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		default:
			return events
		}
	}
}

func findEvent(t *testing.T, events []AuditEvent, eventType string) AuditEvent {
	t.Helper()
	for _, e := range events {
		if e.EventType == eventType {
			return e
		}
	}
	t.Fatalf("no %q event in %d events", eventType, len(events))
	return AuditEvent{}
}

func TestAuditTrail(t *testing.T) {
	engine, dispatcher, sink := newAuditedEngine(t)
	ctx := WithClientIP(context.Background(), "203.0.113.9")

	res, err := engine.Register(ctx, RegisterRequest{
		Email:       "a@x.com",
		Password:    "GoodPass1!",
		DisplayName: "A",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := engine.VerifyEmail(ctx, "a@x.com", dispatcher.lastCode(t, "a@x.com")); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := engine.Login(ctx, "a@x.com", "wrong-password-1!A"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login: %v", err)
	}

	events := drainEvents(engine, sink)

	reg := findEvent(t, events, AuditRegister)
	if !reg.Success || reg.AccountID != res.AccountID || reg.Email != "a@x.com" {
		t.Fatalf("register event %+v", reg)
	}
	if reg.IP != "203.0.113.9" {
		t.Fatalf("client ip %q", reg.IP)
	}
	if reg.Timestamp.IsZero() {
		t.Fatal("event timestamp missing")
	}

	verify := findEvent(t, events, AuditVerifyEmail)
	if !verify.Success || verify.Error != "" {
		t.Fatalf("verify event %+v", verify)
	}

	login := findEvent(t, events, AuditLogin)
	if login.Success || login.Error != "INVALID_CREDENTIALS" {
		t.Fatalf("login event %+v", login)
	}
}

// Audit records describe outcomes, never secrets. A leaked OTP or password
// in the trail would defeat the point of keeping them out of logs.
func TestAuditEventsCarryNoSecrets(t *testing.T) {
	engine, dispatcher, sink := newAuditedEngine(t)
	ctx := context.Background()

	const pass = "GoodPass1!"
	if _, err := engine.Register(ctx, RegisterRequest{
		Email:       "a@x.com",
		Password:    pass,
		DisplayName: "A",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	code := dispatcher.lastCode(t, "a@x.com")
	if err := engine.VerifyEmail(ctx, "a@x.com", code); err != nil {
		t.Fatalf("verify: %v", err)
	}

	for _, e := range drainEvents(engine, sink) {
		for _, field := range []string{e.Error, e.EventType} {
			if strings.Contains(field, pass) || strings.Contains(field, code) {
				t.Fatalf("secret leaked in event %+v", e)
			}
		}
		for k, v := range e.Metadata {
			if strings.Contains(v, pass) || strings.Contains(v, code) {
				t.Fatalf("secret leaked in metadata %q of %+v", k, e)
			}
		}
	}
}

func TestAuditDisabledEmitsNothing(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.Register(ctx, RegisterRequest{
		Email:       "a@x.com",
		Password:    "GoodPass1!",
		DisplayName: "A",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if engine.AuditDropped() != 0 {
		t.Fatal("disabled dispatcher must not count drops")
	}
	engine.Close()
}

func TestNotificationFailureIsAudited(t *testing.T) {
	engine, dispatcher, sink := newAuditedEngine(t)
	dispatcher.fail = true

	if _, err := engine.Register(context.Background(), RegisterRequest{
		Email:       "a@x.com",
		Password:    "GoodPass1!",
		DisplayName: "A",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	events := drainEvents(engine, sink)
	failure := findEvent(t, events, AuditNotifyFailure)
	if failure.Success {
		t.Fatalf("delivery failure marked success: %+v", failure)
	}
	// Registration itself still succeeds when mail delivery does not.
	if reg := findEvent(t, events, AuditRegister); !reg.Success {
		t.Fatalf("register event %+v", reg)
	}
}
