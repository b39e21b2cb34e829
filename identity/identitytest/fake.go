// Package identitytest provides an in-memory identity.Provider for tests.
package identitytest

import (
	"context"
	"fmt"
	"sync"

	"tributeboard/identity"
)

// FakeProvider implements identity.Provider with scriptable failures.
type FakeProvider struct {
	mu       sync.Mutex
	current  identity.Identity
	present  bool
	nextSub  int
	nextUID  int
	handlers map[int]identity.ChangeHandler

	// AnonymousErr, when non-nil, makes SignInAnonymous fail.
	AnonymousErr error
	// PasswordErr, when non-nil, makes SignInWithPassword fail.
	PasswordErr error

	anonymousCalls int
	passwordCalls  int
}

var _ identity.Provider = (*FakeProvider)(nil)

func New() *FakeProvider {
	return &FakeProvider{handlers: map[int]identity.ChangeHandler{}}
}

func (p *FakeProvider) OnIdentityChange(h identity.ChangeHandler) (cancel func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.handlers[id] = h
	current, present := p.current, p.present
	p.mu.Unlock()

	h(current, present)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
	}
}

func (p *FakeProvider) set(ident identity.Identity, present bool) {
	p.mu.Lock()
	p.current = ident
	p.present = present
	handlers := make([]identity.ChangeHandler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(ident, present)
	}
}

func (p *FakeProvider) SignInAnonymous(ctx context.Context) (identity.Identity, error) {
	p.mu.Lock()
	p.anonymousCalls++
	err := p.AnonymousErr
	if err != nil {
		p.mu.Unlock()
		return identity.Identity{}, err
	}
	p.nextUID++
	ident := identity.Identity{UID: fmt.Sprintf("anon%d", p.nextUID), Anonymous: true}
	p.mu.Unlock()

	p.set(ident, true)
	return ident, nil
}

func (p *FakeProvider) SignInWithPassword(ctx context.Context, email, password string) (identity.Identity, error) {
	p.mu.Lock()
	p.passwordCalls++
	err := p.PasswordErr
	if err != nil {
		p.mu.Unlock()
		return identity.Identity{}, err
	}
	p.nextUID++
	ident := identity.Identity{UID: fmt.Sprintf("admin%d", p.nextUID), Anonymous: false}
	p.mu.Unlock()

	p.set(ident, true)
	return ident, nil
}

func (p *FakeProvider) SignOut(ctx context.Context) error {
	p.set(identity.Identity{}, false)
	return nil
}

// Current returns the provider's current identity.
func (p *FakeProvider) Current() (identity.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.present
}

// AnonymousCalls reports how many anonymous sign-ins were attempted.
func (p *FakeProvider) AnonymousCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.anonymousCalls
}
