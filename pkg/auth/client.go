package auth

import (
	"context"

	"ledgerdesk/pkg/models"
)

// TokenClient binds the auth service to a single console session token,
// giving the session store the collaborator shape it expects: resolve
// the current session, sign out, and watch for changes to this session
// only.
type TokenClient struct {
	svc   *Service
	token string
}

// NewTokenClient wraps svc for one session token.
func NewTokenClient(svc *Service, token string) *TokenClient {
	return &TokenClient{svc: svc, token: token}
}

// GetCurrentSession returns this token's live session, or nil when
// absent/expired.
func (c *TokenClient) GetCurrentSession(ctx context.Context) (*models.Session, error) {
	return c.svc.GetCurrentSession(ctx, c.token)
}

// SignOut revokes this token's session.
func (c *TokenClient) SignOut(ctx context.Context) error {
	return c.svc.SignOut(ctx, c.token)
}

// Subscribe delivers auth-state changes for this token: the new session
// on sign-in/refresh, nil on sign-out. Returns the unsubscribe handle.
func (c *TokenClient) Subscribe(fn func(*models.Session)) func() {
	return c.svc.Subscribe(func(ev Event) {
		if ev.Token == c.token {
			fn(ev.Session)
		}
	})
}
