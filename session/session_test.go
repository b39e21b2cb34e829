package session

import (
	"context"
	"errors"
	"testing"

	"tributeboard/identity"
	"tributeboard/identity/identitytest"
)

func TestBootstrapEstablishesAnonymousSession(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	if got := c.Current().State; got != Uninitialized {
		t.Fatalf("Bad state before bootstrap; got %v, want %v", got, Uninitialized)
	}

	c.Bootstrap(ctx)

	snap := c.Current()
	if snap.State != AnonymousActive {
		t.Errorf("Bad state after bootstrap; got %v, want %v", snap.State, AnonymousActive)
	}
	if snap.Privileged {
		t.Errorf("Anonymous session must not be privileged")
	}
	if !snap.Identity.Anonymous || snap.Identity.UID == "" {
		t.Errorf("Bad identity after bootstrap: %+v", snap.Identity)
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	c.Bootstrap(ctx)
	c.Bootstrap(ctx)
	c.Bootstrap(ctx)

	if got := provider.AnonymousCalls(); got != 1 {
		t.Errorf("Expected a single anonymous sign-in; got %d", got)
	}
}

func TestBootstrapFailureIsRetryable(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	provider.AnonymousErr = errors.New("network down")

	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	c.Bootstrap(ctx)

	if got := c.Current().State; got != ConnectivityError {
		t.Fatalf("Bad state after failed bootstrap; got %v, want %v", got, ConnectivityError)
	}
	if c.ConnectivityErr() == nil {
		t.Errorf("Expected a recorded connectivity error")
	}

	// The outage ends; a retry recovers without a restart.
	provider.AnonymousErr = nil
	c.RetryConnectivity(ctx)

	snap := c.Current()
	if snap.State != AnonymousActive {
		t.Errorf("Bad state after retry; got %v, want %v", snap.State, AnonymousActive)
	}
	if c.ConnectivityErr() != nil {
		t.Errorf("Connectivity error should clear on recovery; got %v", c.ConnectivityErr())
	}
}

func TestRetryLeavesActiveSessionAlone(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	c.Bootstrap(ctx)
	before := provider.AnonymousCalls()

	c.RetryConnectivity(ctx)
	c.RetryConnectivity(ctx)

	if got := provider.AnonymousCalls(); got != before {
		t.Errorf("Retry on an active session must be a no-op; sign-ins went %d -> %d", before, got)
	}
}

func TestSignInPromotesToPrivileged(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	c.Bootstrap(ctx)

	if err := c.SignIn(ctx, "admin@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	snap := c.Current()
	if snap.State != PrivilegedActive {
		t.Errorf("Bad state after sign-in; got %v, want %v", snap.State, PrivilegedActive)
	}
	if !snap.Privileged {
		t.Errorf("Expected a privileged session after sign-in")
	}
}

func TestFailedSignInLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	c.Bootstrap(ctx)
	before := c.Current()

	provider.PasswordErr = identity.ErrInvalidCredentials
	err := c.SignIn(ctx, "admin@example.com", "wrong")
	if !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("Bad error from rejected sign-in; got %v, want %v", err, identity.ErrInvalidCredentials)
	}

	after := c.Current()
	if after != before {
		t.Errorf("Rejected sign-in changed the session; got %+v, want %+v", after, before)
	}
}

func TestFailedSignInConnectivityErrorIsDistinguishable(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	c.Bootstrap(ctx)

	provider.PasswordErr = errors.New("dial tcp: connection refused")
	err := c.SignIn(ctx, "admin@example.com", "secret")
	if err == nil {
		t.Fatalf("Expected an error from a failed sign-in")
	}
	if errors.Is(err, identity.ErrInvalidCredentials) {
		t.Errorf("Connectivity failure must not be reported as bad credentials: %v", err)
	}
}

func TestSignOutReauthenticatesAnonymously(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	c.Bootstrap(ctx)
	if err := c.SignIn(ctx, "admin@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := c.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	snap := c.Current()
	if snap.State != AnonymousActive {
		t.Errorf("Bad state after sign-out; got %v, want %v", snap.State, AnonymousActive)
	}
	if snap.Privileged {
		t.Errorf("Session must drop privilege on sign-out")
	}
}

func TestSignOutWithoutReauthGoesUninitialized(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: false})
	defer c.Close()

	c.Bootstrap(ctx)
	if err := c.SignIn(ctx, "admin@example.com", "secret"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	if err := c.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	if got := c.Current().State; got != Uninitialized {
		t.Errorf("Bad state after sign-out; got %v, want %v", got, Uninitialized)
	}
}

func TestObserversSeeEveryTransition(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	var states []State
	cancel := c.OnChange(func(s Snapshot) { states = append(states, s.State) })
	defer cancel()

	c.Bootstrap(ctx)

	want := []State{AnonymousPending, AnonymousActive}
	if len(states) != len(want) {
		t.Fatalf("Bad transition count; got %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("Bad transition %d; got %v, want %v", i, states[i], want[i])
		}
	}
}

func TestCancelledObserverStopsFiring(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})
	defer c.Close()

	fired := 0
	cancel := c.OnChange(func(Snapshot) { fired++ })
	cancel()

	c.Bootstrap(ctx)

	if fired != 0 {
		t.Errorf("Cancelled observer fired %d times", fired)
	}
}

func TestNoNotificationAfterClose(t *testing.T) {
	ctx := context.Background()
	provider := identitytest.New()
	c := New(provider, Options{ReauthAnonymous: true})

	fired := 0
	c.OnChange(func(Snapshot) { fired++ })

	c.Bootstrap(ctx)
	firedBeforeClose := fired

	c.Close()

	// Provider-side changes after Close must not reach observers.
	if _, err := provider.SignInWithPassword(ctx, "admin@example.com", "secret"); err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}

	if fired != firedBeforeClose {
		t.Errorf("Observer fired after Close; %d -> %d", firedBeforeClose, fired)
	}
}
