package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// GoogleProvider implements Provider against the Identity Toolkit REST API,
// the same surface the original web client's auth SDK speaks.  It keeps the
// current identity in memory and notifies registered handlers on change.
type GoogleProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	mu       sync.Mutex
	current  Identity
	present  bool
	nextSub  int
	handlers map[int]ChangeHandler
}

var _ Provider = (*GoogleProvider)(nil)

// GoogleProviderConfig carries the fixed provider configuration consumed at
// startup.
type GoogleProviderConfig struct {
	// APIKey is the web API key of the project.
	APIKey string
	// BaseURL overrides the Identity Toolkit endpoint.  Empty means the
	// production endpoint.
	BaseURL string
	// Timeout bounds each request.  Zero means 30s.
	Timeout time.Duration
}

func NewGoogleProvider(cfg GoogleProviderConfig) *GoogleProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &GoogleProvider{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		handlers:   map[int]ChangeHandler{},
	}
}

func (p *GoogleProvider) OnIdentityChange(h ChangeHandler) (cancel func()) {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.handlers[id] = h
	current, present := p.current, p.present
	p.mu.Unlock()

	// Fire immediately with current state, per contract.
	h(current, present)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
	}
}

// setIdentity replaces the current identity and notifies handlers outside
// the lock.
func (p *GoogleProvider) setIdentity(ident Identity, present bool) {
	p.mu.Lock()
	p.current = ident
	p.present = present
	handlers := make([]ChangeHandler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		h(ident, present)
	}
}

type signUpResponse struct {
	LocalID string `json:"localId"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// post issues one Identity Toolkit call and decodes the response into out.
// A non-2xx response is returned as an error carrying the API error message.
func (p *GoogleProvider) post(ctx context.Context, method string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("while encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/accounts:%s?key=%s", p.baseURL, method, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("while building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("while calling identity provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("while reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		if err := json.Unmarshal(raw, &ae); err == nil && ae.Error.Message != "" {
			return &statusError{status: resp.StatusCode, message: ae.Error.Message}
		}
		return &statusError{status: resp.StatusCode, message: resp.Status}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("while decoding response: %w", err)
	}
	return nil
}

type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.status, e.message)
}

// credentialRejection reports whether the API error message names a bad
// id/secret pair rather than a service problem.
func credentialRejection(message string) bool {
	switch {
	case strings.HasPrefix(message, "EMAIL_NOT_FOUND"),
		strings.HasPrefix(message, "INVALID_PASSWORD"),
		strings.HasPrefix(message, "INVALID_LOGIN_CREDENTIALS"),
		strings.HasPrefix(message, "INVALID_EMAIL"),
		strings.HasPrefix(message, "USER_DISABLED"):
		return true
	}
	return false
}

func (p *GoogleProvider) SignInAnonymous(ctx context.Context) (Identity, error) {
	var resp signUpResponse
	if err := p.post(ctx, "signUp", map[string]any{"returnSecureToken": true}, &resp); err != nil {
		return Identity{}, fmt.Errorf("while signing in anonymously: %w", err)
	}

	ident := Identity{UID: resp.LocalID, Anonymous: true}
	p.setIdentity(ident, true)
	return ident, nil
}

func (p *GoogleProvider) SignInWithPassword(ctx context.Context, email, password string) (Identity, error) {
	var resp signUpResponse
	err := p.post(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && credentialRejection(se.message) {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, fmt.Errorf("while signing in with password: %w", err)
	}

	ident := Identity{UID: resp.LocalID, Anonymous: false}
	p.setIdentity(ident, true)
	return ident, nil
}

// SignOut discards the current identity locally.  The provider holds no
// server-side session for this flow, so there is nothing remote to revoke.
func (p *GoogleProvider) SignOut(ctx context.Context) error {
	p.setIdentity(Identity{}, false)
	return nil
}
