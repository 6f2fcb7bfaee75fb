package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

// DefaultIdleTimeout is how long an unauthenticated gate without listeners
// is kept after its last request.
const DefaultIdleTimeout = 30 * time.Minute

// Manager keeps one Gate per device.
type Manager struct {
	auth     Authenticator
	storage  Storage
	services Services
	logger   *zap.Logger

	// IdleTimeout overrides DefaultIdleTimeout when positive.
	IdleTimeout time.Duration

	mu    sync.Mutex
	gates map[string]*Gate
}

func NewManager(auth Authenticator, storage Storage, services Services, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if services.Logger == nil {
		services.Logger = logger
	}
	return &Manager{
		auth:     auth,
		storage:  storage,
		services: services,
		logger:   logger,
		gates:    make(map[string]*Gate),
	}
}

// Gate returns the device's gate, creating it in the Unknown state.
func (m *Manager) Gate(deviceID string) *Gate {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.gates[deviceID]
	if !ok {
		g = NewGate(deviceID, m.auth, m.storage, m.buildWorkspace, m.logger)
		m.gates[deviceID] = g
	}
	g.touch(time.Now())
	return g
}

// NewDeviceGate returns the gate of a device id that was just issued. Nothing
// can be stored for it, so it starts Unauthenticated without a storage read.
func (m *Manager) NewDeviceGate(deviceID string) *Gate {
	g := m.Gate(deviceID)
	g.applyIf(context.Background(), nil, func() bool { return g.state == StateUnknown })
	return g
}

// Gates reports how many devices currently hold a gate.
func (m *Manager) Gates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.gates)
}

// ExpireSessions refreshes or expires the session of every gate, then drops
// idle gates. It returns how many sessions were expired.
func (m *Manager) ExpireSessions(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	gates := make([]*Gate, 0, len(m.gates))
	for _, g := range m.gates {
		gates = append(gates, g)
	}
	m.mu.Unlock()

	expired := 0
	for _, g := range gates {
		if g.Expire(ctx, now) {
			expired++
		}
	}

	if evicted := m.evictIdle(now); evicted > 0 {
		m.logger.Debug("idle gates evicted", zap.Int("count", evicted))
	}
	return expired
}

func (m *Manager) evictIdle(now time.Time) int {
	timeout := m.IdleTimeout
	if timeout <= 0 {
		timeout = DefaultIdleTimeout
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, g := range m.gates {
		if g.idle(now, timeout) {
			delete(m.gates, id)
			evicted++
		}
	}
	return evicted
}

func (m *Manager) Close() {
	m.mu.Lock()
	gates := m.gates
	m.gates = make(map[string]*Gate)
	m.mu.Unlock()

	for _, g := range gates {
		g.Close()
	}
}

func (m *Manager) buildWorkspace(user entity.User) *Workspace {
	return NewWorkspace(user, m.services)
}
