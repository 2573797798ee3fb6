package server

import (
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/caffeineduck/gorc/executor"
	"go.uber.org/zap"
)

// ErrCapacity is returned by Add when the instance limit is reached.
var ErrCapacity = stderrors.New("instance limit reached")

// Manager tracks loaded instances by id and closes the ones left idle for
// longer than its TTL.
type Manager struct {
	instances map[string]*managed
	mu        sync.RWMutex
	ttl       time.Duration
	max       int
	logger    *zap.Logger

	started bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

type managed struct {
	inst     *executor.Instance
	created  time.Time
	lastUsed time.Time
}

// InstanceInfo describes a managed instance.
type InstanceInfo struct {
	ID       string    `json:"instance_id"`
	Name     string    `json:"name"`
	Created  time.Time `json:"created"`
	LastUsed time.Time `json:"last_used"`
}

func NewManager(ttl time.Duration, max int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		instances: make(map[string]*managed),
		ttl:       ttl,
		max:       max,
		logger:    logger,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the idle sweep until Stop.
func (m *Manager) Start() {
	interval := m.ttl / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Sweep(time.Now())
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the sweep and closes every instance.
func (m *Manager) Stop() {
	m.once.Do(func() {
		close(m.stop)
	})
	m.mu.RLock()
	started := m.started
	m.mu.RUnlock()
	if started {
		<-m.done
	}
	m.closeAll()
}

func (m *Manager) Add(inst *executor.Instance) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.max > 0 && len(m.instances) >= m.max {
		return "", fmt.Errorf("%w (%d)", ErrCapacity, m.max)
	}
	id := generateInstanceID()
	now := time.Now()
	m.instances[id] = &managed{inst: inst, created: now, lastUsed: now}
	return id, nil
}

// Get returns the instance and marks it used.
func (m *Manager) Get(id string) (*executor.Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mi, ok := m.instances[id]
	if !ok {
		return nil, false
	}
	mi.lastUsed = time.Now()
	return mi.inst, true
}

// Remove closes and forgets the instance.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	mi, ok := m.instances[id]
	delete(m.instances, id)
	m.mu.Unlock()
	if ok {
		mi.inst.Close()
	}
	return ok
}

// Sweep closes instances idle since before now minus the TTL and returns how
// many it closed.
func (m *Manager) Sweep(now time.Time) int {
	var expired []*managed
	m.mu.Lock()
	for id, mi := range m.instances {
		if now.Sub(mi.lastUsed) > m.ttl {
			expired = append(expired, mi)
			delete(m.instances, id)
			m.logger.Info("instance expired", zap.String("instance_id", id), zap.String("contract", mi.inst.Name()))
		}
	}
	m.mu.Unlock()
	for _, mi := range expired {
		mi.inst.Close()
	}
	return len(expired)
}

func (m *Manager) List() []InstanceInfo {
	m.mu.RLock()
	out := make([]InstanceInfo, 0, len(m.instances))
	for id, mi := range m.instances {
		out = append(out, InstanceInfo{ID: id, Name: mi.inst.Name(), Created: mi.created, LastUsed: mi.lastUsed})
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Created.Before(out[j].Created) })
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	for id, mi := range m.instances {
		mi.inst.Close()
		delete(m.instances, id)
	}
	m.mu.Unlock()
}

func generateInstanceID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}
