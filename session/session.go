// Package session owns the authentication lifecycle: anonymous bootstrap,
// privileged sign-in, sign-out, and the privilege flag the rest of the
// application gates its writes on.
//
// Exactly one Controller exists per running process.  It is the only
// cross-cutting shared mutable state; everything else reads snapshots.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tributeboard/identity"
)

// State is the controller's lifecycle state.
type State int

const (
	// Uninitialized means no bootstrap has happened, or sign-out completed
	// with anonymous re-auth disabled.
	Uninitialized State = iota
	// AnonymousPending means an anonymous identity request is in flight.
	AnonymousPending
	// AnonymousActive means an anonymous identity is established.  The
	// guestbook is writable; admin operations are not.
	AnonymousActive
	// PrivilegedActive means a non-anonymous identity is established.
	PrivilegedActive
	// ConnectivityError means the anonymous bootstrap failed.  Retryable
	// via RetryConnectivity; never fatal.
	ConnectivityError
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case AnonymousPending:
		return "AnonymousPending"
	case AnonymousActive:
		return "AnonymousActive"
	case PrivilegedActive:
		return "PrivilegedActive"
	case ConnectivityError:
		return "ConnectivityError"
	}
	return "Unknown"
}

// Snapshot is the session value observers receive.  Privileged is derived:
// an identity is present and it is not anonymous.
type Snapshot struct {
	State      State
	Identity   identity.Identity
	Privileged bool
}

// Options configure behavior the source left ambiguous.
type Options struct {
	// ReauthAnonymous controls what happens after sign-out: true
	// immediately re-establishes an anonymous identity so the guestbook
	// stays writable; false leaves the session Uninitialized until the
	// next bootstrap.
	ReauthAnonymous bool
}

// Controller produces and maintains the process-wide session value and
// notifies observers synchronously on every change.
type Controller struct {
	provider identity.Provider
	opts     Options

	mu           sync.Mutex
	state        State
	ident        identity.Identity
	connErr      error
	bootstrapped bool
	closed       bool
	cancelWatch  func()
	nextObs      int
	observers    map[int]func(Snapshot)
}

func New(provider identity.Provider, opts Options) *Controller {
	return &Controller{
		provider:  provider,
		opts:      opts,
		observers: map[int]func(Snapshot){},
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:      c.state,
		Identity:   c.ident,
		Privileged: c.state == PrivilegedActive,
	}
}

// observersLocked copies the observer list so notification can run outside
// the lock.
func (c *Controller) observersLocked() []func(Snapshot) {
	obs := make([]func(Snapshot), 0, len(c.observers))
	for _, o := range c.observers {
		obs = append(obs, o)
	}
	return obs
}

func notify(obs []func(Snapshot), snap Snapshot) {
	for _, o := range obs {
		o(snap)
	}
}

// Bootstrap subscribes to the identity-change stream and establishes an
// anonymous identity if none exists.  Called once at startup; later calls
// are no-ops.  A failed anonymous request leaves the controller in
// ConnectivityError, not a fatal state.
func (c *Controller) Bootstrap(ctx context.Context) {
	c.mu.Lock()
	if c.bootstrapped {
		c.mu.Unlock()
		return
	}
	c.bootstrapped = true
	c.mu.Unlock()

	cancel := c.provider.OnIdentityChange(func(ident identity.Identity, present bool) {
		c.identityChanged(ctx, ident, present)
	})

	c.mu.Lock()
	c.cancelWatch = cancel
	if c.closed {
		c.mu.Unlock()
		cancel()
		return
	}
	c.mu.Unlock()
}

// identityChanged is the single place session state transitions happen in
// response to the provider.
func (c *Controller) identityChanged(ctx context.Context, ident identity.Identity, present bool) {
	var needAnonymous bool

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	switch {
	case present && ident.Anonymous:
		c.state = AnonymousActive
		c.ident = ident
		c.connErr = nil
	case present:
		c.state = PrivilegedActive
		c.ident = ident
		c.connErr = nil
	default:
		// No identity.  On first bootstrap we always request an anonymous
		// one; after sign-out the ReauthAnonymous option decides.
		c.ident = identity.Identity{}
		if c.state == Uninitialized || c.opts.ReauthAnonymous {
			c.state = AnonymousPending
			needAnonymous = true
		} else {
			c.state = Uninitialized
		}
	}
	snap := c.snapshotLocked()
	obs := c.observersLocked()
	c.mu.Unlock()

	notify(obs, snap)

	if needAnonymous {
		c.establishAnonymous(ctx)
	}
}

// establishAnonymous requests an anonymous identity.  Success is observed
// through the identity-change stream; failure is a connectivity error.
func (c *Controller) establishAnonymous(ctx context.Context) {
	if _, err := c.provider.SignInAnonymous(ctx); err != nil {
		slog.WarnContext(ctx, "Anonymous bootstrap failed", slog.Any("err", err))

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.state = ConnectivityError
		c.connErr = err
		snap := c.snapshotLocked()
		obs := c.observersLocked()
		c.mu.Unlock()

		notify(obs, snap)
	}
}

// SignIn exchanges admin credentials for a privileged identity.  On failure
// the existing session is untouched: identity.ErrInvalidCredentials for a
// rejected pair, a wrapped connectivity error otherwise.
func (c *Controller) SignIn(ctx context.Context, email, secret string) error {
	if _, err := c.provider.SignInWithPassword(ctx, email, secret); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return err
		}
		return fmt.Errorf("while exchanging credentials: %w", err)
	}
	// State advances through the identity-change stream.
	return nil
}

// SignOut discards the privileged identity.  Post-sign-out state follows
// Options.ReauthAnonymous.
func (c *Controller) SignOut(ctx context.Context) error {
	if err := c.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("while signing out: %w", err)
	}
	return nil
}

// RetryConnectivity re-attempts the anonymous bootstrap.  Idempotent and
// callable repeatedly; a session that is already active is left alone.
func (c *Controller) RetryConnectivity(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.state == AnonymousActive || c.state == PrivilegedActive {
		c.mu.Unlock()
		return
	}
	c.state = AnonymousPending
	snap := c.snapshotLocked()
	obs := c.observersLocked()
	c.mu.Unlock()

	notify(obs, snap)
	c.establishAnonymous(ctx)
}

// Current returns the session snapshot.
func (c *Controller) Current() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Privileged reports whether administrative writes should be offered.  The
// store is the actual enforcement point; this flag only gates the attempt.
func (c *Controller) Privileged() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == PrivilegedActive
}

// ConnectivityErr returns the error behind a ConnectivityError state, nil
// otherwise.
func (c *Controller) ConnectivityErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connErr
}

// OnChange registers an observer, notified synchronously on every session
// change until cancel runs.
func (c *Controller) OnChange(o func(Snapshot)) (cancel func()) {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = o
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Close tears down the identity watch.  No observer fires after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancelWatch
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}
