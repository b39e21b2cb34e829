// Package identity abstracts the external identity provider: anonymous
// identities for public visitors, credential exchange for the admin.
//
// Credential verification always happens at the provider.  No secret is
// compared locally.
package identity

import (
	"context"
	"errors"
)

// ErrInvalidCredentials means the provider rejected the id/secret pair.  It
// is distinct from connectivity failures: a sign-in attempt that fails this
// way must leave the existing session untouched.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Identity is one provider-issued identity.
type Identity struct {
	UID       string
	Anonymous bool
}

// ChangeHandler observes identity changes.  present is false when no
// identity is currently established.
type ChangeHandler func(ident Identity, present bool)

// Provider is the narrow identity-provider contract.
type Provider interface {
	// OnIdentityChange registers h and fires it immediately with the
	// current state, then on every change, until cancel is called.
	OnIdentityChange(h ChangeHandler) (cancel func())

	// SignInAnonymous establishes a fresh anonymous identity.
	SignInAnonymous(ctx context.Context) (Identity, error)

	// SignInWithPassword exchanges credentials for a privileged identity.
	// Returns ErrInvalidCredentials when the pair is wrong; any other
	// failure is a connectivity or service error.
	SignInWithPassword(ctx context.Context, email, password string) (Identity, error)

	// SignOut discards the current identity.
	SignOut(ctx context.Context) error
}
