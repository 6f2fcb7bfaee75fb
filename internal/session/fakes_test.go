package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/feed"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type fakeAuth struct {
	mu       sync.Mutex
	users    map[string]entity.User // by password-less email
	signOuts int
	rejected map[string]bool // access tokens GetUser refuses
	pending  bool            // SignUp requires confirmation

	refreshes  int
	revoked    map[string]bool // refresh tokens Refresh refuses
	refreshErr error           // returned by Refresh when set
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		users: map[string]entity.User{
			"ana@example.com":  {ID: "user-ana", Email: "ana@example.com"},
			"omar@example.com": {ID: "user-omar", Email: "omar@example.com"},
		},
		rejected: map[string]bool{},
		revoked:  map[string]bool{},
	}
}

func (a *fakeAuth) SignIn(_ context.Context, email, password string) (*entity.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[email]
	if !ok || password != "secret" {
		return nil, &usecase.UpstreamError{Service: "auth", Message: "Invalid login credentials"}
	}
	return issue(u), nil
}

func issue(u entity.User) *entity.Session {
	return &entity.Session{
		AccessToken:  "token-" + u.ID,
		RefreshToken: "refresh-" + u.ID,
		ExpiresAt:    time.Now().Add(time.Hour),
		User:         u,
	}
}

func (a *fakeAuth) SignUp(_ context.Context, email, _ string) (*entity.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u := entity.User{ID: "user-" + email, Email: email}
	a.users[email] = u
	if a.pending {
		return nil, nil
	}
	return issue(u), nil
}

// Refresh answers without the user, like a token endpoint that omits it.
func (a *fakeAuth) Refresh(_ context.Context, refreshToken string) (*entity.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshes++
	if a.refreshErr != nil {
		return nil, a.refreshErr
	}
	if a.revoked[refreshToken] {
		return nil, &usecase.UpstreamError{Service: "auth", Message: "Invalid Refresh Token"}
	}
	for _, u := range a.users {
		if "refresh-"+u.ID == refreshToken {
			return &entity.Session{
				AccessToken:  "token-" + u.ID,
				RefreshToken: refreshToken,
				ExpiresAt:    time.Now().Add(3 * time.Hour),
			}, nil
		}
	}
	return nil, &usecase.UpstreamError{Service: "auth", Message: "Invalid Refresh Token"}
}

func (a *fakeAuth) refreshCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshes
}

func (a *fakeAuth) SignOut(context.Context, string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.signOuts++
	return nil
}

func (a *fakeAuth) GetUser(_ context.Context, token string) (*entity.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.rejected[token] {
		return nil, &usecase.UpstreamError{Service: "auth", Message: "invalid JWT"}
	}
	for _, u := range a.users {
		if "token-"+u.ID == token {
			return &u, nil
		}
	}
	return nil, errors.New("user not found")
}

type memoryStorage struct {
	mu       sync.Mutex
	sessions map[string]*entity.Session

	// when set, Load reads, then signals loading and waits for release
	loading chan struct{}
	release chan struct{}
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{sessions: map[string]*entity.Session{}}
}

func (m *memoryStorage) Load(_ context.Context, deviceID string) (*entity.Session, error) {
	m.mu.Lock()
	var found *entity.Session
	if s, ok := m.sessions[deviceID]; ok {
		c := *s
		found = &c
	}
	m.mu.Unlock()

	if m.release != nil {
		m.loading <- struct{}{}
		<-m.release
	}
	return found, nil
}

func (m *memoryStorage) Save(_ context.Context, deviceID string, s *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[deviceID] = s
	return nil
}

func (m *memoryStorage) Delete(_ context.Context, deviceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, deviceID)
	return nil
}

func (m *memoryStorage) get(deviceID string) *entity.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[deviceID]
}

func (m *memoryStorage) has(deviceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[deviceID]
	return ok
}

type staticRawLeads []entity.RawLead

func (s staticRawLeads) ListNewestFirst(context.Context) ([]entity.RawLead, error) {
	return s, nil
}

// blockingClassifier returns its canned result once release is closed.
type blockingClassifier struct {
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
	result  []entity.EnrichedLead
}

func newBlockingClassifier(result []entity.EnrichedLead) *blockingClassifier {
	return &blockingClassifier{started: make(chan struct{}, 8), release: make(chan struct{}), result: result}
}

func (c *blockingClassifier) Classify(context.Context, entity.Profile, []entity.RawLead) ([]entity.EnrichedLead, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	c.started <- struct{}{}
	<-c.release
	return c.result, nil
}

func (c *blockingClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type memoryEnrichedRepo struct {
	mu    sync.Mutex
	leads []entity.EnrichedLead
}

func (r *memoryEnrichedRepo) InsertAll(_ context.Context, leads []entity.EnrichedLead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(append([]entity.EnrichedLead(nil), leads...), r.leads...)
	return nil
}

func (r *memoryEnrichedRepo) ListNewestFirst(context.Context) ([]entity.EnrichedLead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.EnrichedLead(nil), r.leads...), nil
}

type fixture struct {
	auth       *fakeAuth
	storage    *memoryStorage
	classifier *blockingClassifier
	repo       *memoryEnrichedRepo
	manager    *Manager
}

func newFixture(rawLeads []entity.RawLead, results []entity.EnrichedLead) *fixture {
	f := &fixture{
		auth:       newFakeAuth(),
		storage:    newMemoryStorage(),
		classifier: newBlockingClassifier(results),
		repo:       &memoryEnrichedRepo{},
	}
	services := Services{
		RawLeads: staticRawLeads(rawLeads),
		Hub:      feed.NewHub(8, nil),
		Classify: usecase.NewClassifyLeadsUseCase(f.classifier, f.repo, nil, nil),
		Saved:    usecase.NewListSavedLeadsUseCase(f.repo, nil),
	}
	f.manager = NewManager(f.auth, f.storage, services, nil)
	return f
}
