package browser

import (
	"context"
	"sync"
	"time"

	"catalog-admin/internal/auth"
)

// Session is the in-memory session state. It is lost when the process exits.
//
// This is a demo gate in front of an internal tool, not an authentication system.
// A real deployment should sit behind an identity provider.
type Session struct {
	Authenticated bool
	Token         string
	ExpiresAt     time.Time
}

// Authenticator turns a password into a Session.
type Authenticator interface {
	Login(ctx context.Context, password string) (Session, error)
	Logout(ctx context.Context, s Session) error
}

// SharedSecret compares the password with a configured secret locally. No token is
// issued, so it only fits backends that do not require a session.
type SharedSecret struct {
	secret string
}

// NewSharedSecret creates a SharedSecret authenticator.
func NewSharedSecret(secret string) *SharedSecret {
	return &SharedSecret{secret: secret}
}

func (a *SharedSecret) Login(_ context.Context, password string) (Session, error) {
	if !auth.CheckSharedSecret(password, a.secret) {
		return Session{}, ErrInvalidPassword
	}
	return Session{Authenticated: true}, nil
}

func (a *SharedSecret) Logout(context.Context, Session) error {
	return nil
}

// Remote logs in through POST /api/session and revokes through DELETE /api/session.
type Remote struct {
	client *Client
}

// NewRemote creates a Remote authenticator.
func NewRemote(client *Client) *Remote {
	return &Remote{client: client}
}

func (a *Remote) Login(ctx context.Context, password string) (Session, error) {
	token, expiresAt, err := a.client.Login(ctx, password)
	if err != nil {
		return Session{}, err
	}
	return Session{Authenticated: true, Token: token, ExpiresAt: expiresAt}, nil
}

func (a *Remote) Logout(ctx context.Context, _ Session) error {
	return a.client.Logout(ctx)
}

// Gate owns the Session and hands its token to the API client.
type Gate struct {
	auth Authenticator

	mu      sync.RWMutex
	session Session
	now     func() time.Time
}

// NewGate creates a closed Gate.
func NewGate(a Authenticator) *Gate {
	return &Gate{auth: a, now: time.Now}
}

// Login opens the gate on success. A failed login leaves the current session as is.
func (g *Gate) Login(ctx context.Context, password string) error {
	s, err := g.auth.Login(ctx, password)
	if err != nil {
		return asOpError(OpLogin, err)
	}
	g.mu.Lock()
	g.session = s
	g.mu.Unlock()
	return nil
}

// Logout closes the gate. The local session is dropped even if revocation fails.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	s := g.session
	g.mu.Unlock()
	if !s.Authenticated {
		return nil
	}
	err := g.auth.Logout(ctx, s)
	g.mu.Lock()
	g.session = Session{}
	g.mu.Unlock()
	if err != nil {
		return asOpError(OpLogout, err)
	}
	return nil
}

// Session returns a copy of the current session.
func (g *Gate) Session() Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// Authenticated reports whether the gate is open. An expired token closes it.
func (g *Gate) Authenticated() bool {
	s := g.Session()
	if !s.Authenticated {
		return false
	}
	return s.ExpiresAt.IsZero() || g.now().Before(s.ExpiresAt)
}

// Token implements TokenSource.
func (g *Gate) Token() string {
	return g.Session().Token
}
