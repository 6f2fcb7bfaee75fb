package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type State int

const (
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

const MsgSignUpConfirm = "account created, check your email to confirm"

// RefreshMargin is how long before the access token runs out the session is
// refreshed.
const RefreshMargin = 5 * time.Minute

// Authenticator is the hosted auth service.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (*entity.Session, error)
	// SignUp returns a nil session when the account still needs email confirmation.
	SignUp(ctx context.Context, email, password string) (*entity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*entity.User, error)
	// Refresh exchanges a refresh token for a new session. A rejected token is
	// an *usecase.UpstreamError.
	Refresh(ctx context.Context, refreshToken string) (*entity.Session, error)
}

// Storage keeps a device's session between requests and restarts.
type Storage interface {
	Load(ctx context.Context, deviceID string) (*entity.Session, error)
	Save(ctx context.Context, deviceID string, s *entity.Session) error
	Delete(ctx context.Context, deviceID string) error
}

// Listener is called after every transition with the new session, or nil.
type Listener func(*entity.Session)

// Gate is the per-device authentication state machine. It owns the workspace
// of the authenticated identity and rebuilds it when the identity changes.
type Gate struct {
	DeviceID string

	auth         Authenticator
	storage      Storage
	newWorkspace func(entity.User) *Workspace
	logger       *zap.Logger

	mu        sync.Mutex
	state     State
	session   *entity.Session
	workspace *Workspace
	listeners []Listener
	lastSeen  time.Time
}

func NewGate(deviceID string, auth Authenticator, storage Storage, newWorkspace func(entity.User) *Workspace, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		DeviceID:     deviceID,
		auth:         auth,
		storage:      storage,
		newWorkspace: newWorkspace,
		logger:       logger.With(zap.String("device_id", deviceID)),
		lastSeen:     time.Now(),
	}
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) Session() *entity.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// Workspace is nil unless the gate is authenticated.
func (g *Gate) Workspace() *Workspace {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.workspace
}

func (g *Gate) OnChange(l Listener) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, l)
}

// Resolve performs the first session check. It only does work in the Unknown
// state; afterwards it reports the current state.
func (g *Gate) Resolve(ctx context.Context) State {
	if s := g.State(); s != StateUnknown {
		return s
	}

	stored, err := g.storage.Load(ctx, g.DeviceID)
	if err != nil {
		g.logger.Warn("session storage unavailable", zap.Error(err))
	}

	renewed := false
	if stored != nil && stored.Expired(time.Now()) {
		stored = g.refreshStored(ctx, stored)
		renewed = stored != nil
	}

	if stored != nil {
		user, err := g.auth.GetUser(ctx, stored.AccessToken)
		if err != nil {
			g.logger.Info("stored session rejected", zap.Error(err))
			g.forget(ctx)
			stored = nil
		} else {
			stored.User = *user
		}
	}

	// a sign-in that landed while storage was being read wins
	restored := g.applyIf(ctx, stored, func() bool { return g.state == StateUnknown })
	if restored && stored != nil {
		if renewed {
			if err := g.storage.Save(ctx, g.DeviceID, stored); err != nil {
				g.logger.Warn("refreshed session not persisted", zap.Error(err))
			}
		}
		g.logger.Info("session restored", zap.String("user_id", stored.User.ID))
	}
	return g.State()
}

// refreshStored exchanges an expired stored session for a fresh one. A
// rejected refresh token is dropped from storage.
func (g *Gate) refreshStored(ctx context.Context, stored *entity.Session) *entity.Session {
	if stored.RefreshToken == "" {
		g.forget(ctx)
		return nil
	}

	refreshed, err := g.auth.Refresh(ctx, stored.RefreshToken)
	if err != nil {
		g.logger.Info("stored session could not be refreshed", zap.Error(err))
		if usecase.IsUpstreamError(err) {
			g.forget(ctx)
		}
		return nil
	}
	if refreshed.User.ID == "" {
		refreshed.User = stored.User
	}
	return refreshed
}

func (g *Gate) SignIn(ctx context.Context, email, password string) (*entity.Session, error) {
	if errs := usecase.ValidateCredentials(email, password); len(errs) > 0 {
		return nil, errs[0]
	}

	s, err := g.auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := g.storage.Save(ctx, g.DeviceID, s); err != nil {
		g.logger.Warn("session not persisted", zap.Error(err))
	}
	g.apply(ctx, s)
	return s, nil
}

// SignUp creates the account. When the service asks for email confirmation
// the gate stays unauthenticated and the confirmation message is returned.
func (g *Gate) SignUp(ctx context.Context, email, password string) (*entity.Session, string, error) {
	if errs := usecase.ValidateCredentials(email, password); len(errs) > 0 {
		return nil, "", errs[0]
	}

	s, err := g.auth.SignUp(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	if s == nil {
		g.applyIf(ctx, nil, func() bool { return g.state == StateUnknown })
		return nil, MsgSignUpConfirm, nil
	}

	if err := g.storage.Save(ctx, g.DeviceID, s); err != nil {
		g.logger.Warn("session not persisted", zap.Error(err))
	}
	g.apply(ctx, s)
	return s, "", nil
}

// SignOut always leaves the gate unauthenticated, even when the remote
// revocation fails; the failure is still returned.
func (g *Gate) SignOut(ctx context.Context) error {
	current := g.Session()

	var err error
	if current != nil {
		err = g.auth.SignOut(ctx, current.AccessToken)
		if err != nil {
			g.logger.Warn("remote sign-out failed", zap.Error(err))
		}
	}

	g.forget(ctx)
	g.apply(ctx, nil)
	return err
}

// Expire refreshes a session whose access token runs out within
// RefreshMargin of now. The identity is unchanged, so the workspace is kept.
// The expiry notification is delivered only when the refresh token is
// rejected, or when there is none and the token already expired. An
// unreachable auth service leaves the session for the next sweep.
func (g *Gate) Expire(ctx context.Context, now time.Time) bool {
	s := g.Session()
	if s == nil || s.ExpiresAt.IsZero() || now.Add(RefreshMargin).Before(s.ExpiresAt) {
		return false
	}

	if s.RefreshToken == "" {
		if !s.Expired(now) {
			return false
		}
	} else {
		refreshed, err := g.auth.Refresh(ctx, s.RefreshToken)
		if err == nil {
			g.renew(ctx, s, refreshed)
			return false
		}
		if !usecase.IsUpstreamError(err) {
			g.logger.Warn("session refresh failed, retrying later", zap.Error(err))
			return false
		}
		g.logger.Info("session refresh rejected", zap.Error(err))
	}

	if !g.applyIf(ctx, nil, func() bool { return g.session == s }) {
		return false
	}
	g.logger.Info("session expired", zap.String("user_id", s.User.ID))
	g.forget(ctx)
	return true
}

func (g *Gate) renew(ctx context.Context, old, refreshed *entity.Session) {
	if refreshed.User.ID == "" {
		refreshed.User = old.User
	}
	if !g.applyIf(ctx, refreshed, func() bool { return g.session == old }) {
		return
	}
	if err := g.storage.Save(ctx, g.DeviceID, refreshed); err != nil {
		g.logger.Warn("refreshed session not persisted", zap.Error(err))
	}
	g.logger.Debug("session refreshed", zap.Time("expires_at", refreshed.ExpiresAt))
}

func (g *Gate) touch(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if now.After(g.lastSeen) {
		g.lastSeen = now
	}
}

// idle reports whether an unauthenticated gate without listeners went unused
// for timeout.
func (g *Gate) idle(now time.Time, timeout time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state != StateAuthenticated && len(g.listeners) == 0 && now.Sub(g.lastSeen) >= timeout
}

// Close discards the workspace without touching the stored session.
func (g *Gate) Close() {
	g.mu.Lock()
	ws := g.workspace
	g.workspace = nil
	g.mu.Unlock()

	if ws != nil {
		ws.Close()
	}
}

func (g *Gate) forget(ctx context.Context) {
	if err := g.storage.Delete(ctx, g.DeviceID); err != nil {
		g.logger.Warn("session not removed from storage", zap.Error(err))
	}
}

func (g *Gate) apply(ctx context.Context, s *entity.Session) {
	g.applyIf(ctx, s, nil)
}

// applyIf transitions to s when cond, checked under the lock, holds.
func (g *Gate) applyIf(ctx context.Context, s *entity.Session, cond func() bool) bool {
	g.mu.Lock()
	if cond != nil && !cond() {
		g.mu.Unlock()
		return false
	}

	var stale *Workspace
	if s == nil {
		g.state = StateUnauthenticated
		stale = g.workspace
		g.workspace = nil
	} else {
		g.state = StateAuthenticated
		if g.workspace == nil || g.workspace.User.ID != s.User.ID {
			stale = g.workspace
			g.workspace = g.newWorkspace(s.User)
			g.workspace.Start(context.WithoutCancel(ctx))
		}
	}
	g.session = s
	listeners := append([]Listener(nil), g.listeners...)
	g.mu.Unlock()

	if stale != nil {
		stale.Close()
	}
	for _, l := range listeners {
		l(s)
	}
	return true
}
