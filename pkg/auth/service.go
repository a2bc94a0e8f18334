// Package auth implements the console's authentication service: password
// sign-up/sign-in, opaque session tokens, and an auth-state change feed
// consumed by the session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ledgerdesk/pkg/logger"
	"ledgerdesk/pkg/models"
	"ledgerdesk/pkg/store"
	"ledgerdesk/pkg/utils"
)

// ErrInvalidCredentials is returned verbatim to sign-in callers; it does
// not reveal whether the email exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrRateLimited is returned when an email/IP exceeds the sign-in budget.
var ErrRateLimited = errors.New("too many sign-in attempts, try again later")

// Event is one auth-state change: sign-in and token refresh carry the
// session, sign-out carries nil. Token identifies the console session the
// event concerns.
type Event struct {
	Token   string
	Session *models.Session
}

// SignUpMeta carries the profile fields collected at sign-up.
type SignUpMeta struct {
	FullName string
	Role     models.Role
}

// Service issues and resolves sessions against the store. Construct once
// in the composition root.
type Service struct {
	ttl      time.Duration
	limiters *limiterPool

	mu      sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewService builds an auth service. ttl bounds session lifetime (zero
// means sessions never expire); rps/burst bound sign-in attempts per email.
func NewService(ttl time.Duration, rps float64, burst int) *Service {
	return &Service{
		ttl:      ttl,
		limiters: &limiterPool{rps: rps, burst: burst},
		subs:     map[int]func(Event){},
	}
}

// SignUp creates a profile and credential for a new user. The error text
// is user-visible; callers surface it verbatim.
func (s *Service) SignUp(ctx context.Context, email, password string, meta SignUpMeta) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	role := meta.Role
	if role == "" {
		role = models.RoleStaff
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role: %s", role)
	}
	if _, err := store.GetCredential(email); err == nil {
		return nil, fmt.Errorf("an account with this email already exists")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	p := models.Profile{
		ID:        utils.NewID(),
		Email:     email,
		FullName:  strings.TrimSpace(meta.FullName),
		Role:      role,
		Avatar:    utils.Initials(meta.FullName),
		CreatedTS: time.Now().UTC().UnixNano(),
	}
	if err := store.SaveProfile(p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	if err := store.SaveCredential(email, models.Credential{ProfileID: p.ID, PasswordHash: string(hash)}); err != nil {
		return nil, fmt.Errorf("failed to save credential: %w", err)
	}
	logger.Info("user_signed_up", "user", p.ID, "role", p.Role)
	return &p, nil
}

// SignIn verifies the password and issues a session. Auth errors surface
// verbatim; nothing is retried.
func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !s.limiters.Allow(email) {
		logger.Warn("signin_rate_limited", "email", email)
		return nil, ErrRateLimited
	}
	cred, err := store.GetCredential(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)) != nil {
		logger.Warn("signin_bad_password", "email", email)
		return nil, ErrInvalidCredentials
	}
	now := time.Now().UTC()
	sess := models.Session{
		Token:     utils.NewID(),
		UserID:    cred.ProfileID,
		CreatedTS: now.UnixNano(),
	}
	if s.ttl > 0 {
		sess.ExpiresTS = now.Add(s.ttl).UnixNano()
	}
	if err := store.SaveSession(sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	logger.Info("user_signed_in", "user", sess.UserID)
	s.emit(Event{Token: sess.Token, Session: &sess})
	return &sess, nil
}

// SignOut revokes the session. Listeners are notified even when the
// store delete fails so local state is never left holding a stale
// identity.
func (s *Service) SignOut(ctx context.Context, token string) error {
	err := store.DeleteSession(token)
	if err != nil {
		logger.Warn("signout_delete_failed", "error", err)
	}
	s.emit(Event{Token: token})
	return err
}

// GetCurrentSession resolves a token to its live session. Absent,
// unknown and expired tokens all yield (nil, nil): no session, not an
// error.
func (s *Service) GetCurrentSession(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := store.GetSession(token)
	if err != nil {
		return nil, nil
	}
	if sess.ExpiresTS != 0 && sess.ExpiresTS < time.Now().UTC().UnixNano() {
		_ = store.DeleteSession(token)
		return nil, nil
	}
	return &sess, nil
}

// Refresh extends a session's expiry and notifies listeners, mirroring a
// token refresh from a hosted auth provider.
func (s *Service) Refresh(ctx context.Context, token string) (*models.Session, error) {
	sess, err := s.GetCurrentSession(ctx, token)
	if err != nil || sess == nil {
		return nil, fmt.Errorf("no session to refresh")
	}
	if s.ttl > 0 {
		sess.ExpiresTS = time.Now().UTC().Add(s.ttl).UnixNano()
	}
	if err := store.SaveSession(*sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	s.emit(Event{Token: sess.Token, Session: sess})
	return sess, nil
}

// GetProfileByID is the profile collaborator: fetch the durable identity
// record for a session's user id.
func (s *Service) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	p, err := store.GetProfile(id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Subscribe registers fn for auth-state change events and returns the
// cancellation handle. Events are delivered synchronously, one at a time.
func (s *Service) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Service) emit(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
