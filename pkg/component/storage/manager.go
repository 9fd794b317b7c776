package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kart-io/logger"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/mongosource/pkg/infra/pool"
)

// Manager is the run context of published clients: one client per name.
// It is safe for concurrent use.
//
//	store := storage.NewManager(storage.WithHealthCheckPool(p))
//	_ = store.Register("mongo", client)
//	client, err := store.Get("mongo")
//	statuses := store.HealthCheckAll(ctx)
//	defer store.CloseAll(ctx)
type Manager struct {
	mu         sync.RWMutex
	clients    map[string]Client
	healthPool *pool.Pool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithHealthCheckPool runs HealthCheckAll on p instead of bare goroutines.
func WithHealthCheckPool(p *pool.Pool) ManagerOption {
	return func(m *Manager) {
		m.healthPool = p
	}
}

// NewManager creates a new storage manager instance.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		clients: make(map[string]Client),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register publishes client under name.
// Returns ErrClientAlreadyExists if the name is taken; the existing client
// is left untouched.
func (m *Manager) Register(name string, client Client) error {
	if name == "" {
		return ErrInvalidConfig.WithMessage("client name cannot be empty")
	}

	if client == nil {
		return ErrInvalidConfig.WithMessage("client cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; exists {
		return ErrClientAlreadyExists.For(name)
	}

	m.clients[name] = client
	return nil
}

// Unregister removes a client without closing it.
func (m *Manager) Unregister(name string) error {
	if _, ok := m.Take(name); !ok {
		return ErrClientNotFound.For(name)
	}
	return nil
}

// Take removes the client published under name and hands it to the caller,
// who becomes responsible for closing it.
func (m *Manager) Take(name string) (Client, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	client, exists := m.clients[name]
	if exists {
		delete(m.clients, name)
	}
	return client, exists
}

// Get retrieves a storage client by name.
func (m *Manager) Get(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, exists := m.clients[name]
	if !exists {
		return nil, ErrClientNotFound.For(name)
	}

	return client, nil
}

// Has checks if a client with the given name is registered.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.clients[name]
	return exists
}

// List returns the registered names in sorted order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Count returns the number of registered clients.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients)
}

// HealthCheck pings one client and measures the latency.
func (m *Manager) HealthCheck(ctx context.Context, name string) HealthStatus {
	client, err := m.Get(name)
	if err != nil {
		return HealthStatus{
			Name:    name,
			Healthy: false,
			Error:   err,
		}
	}

	return check(ctx, name, client)
}

func check(ctx context.Context, name string, c Client) HealthStatus {
	start := time.Now()
	err := c.Ping(ctx)
	return HealthStatus{
		Name:    name,
		Healthy: err == nil,
		Latency: time.Since(start),
		Error:   err,
	}
}

// HealthCheckAll performs health checks on all registered clients concurrently.
// 配置了健康检查池时使用 ants 池执行，避免无限制创建 goroutine
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]HealthStatus {
	m.mu.RLock()
	clients := make(map[string]Client, len(m.clients))
	for name, client := range m.clients {
		clients[name] = client
	}
	m.mu.RUnlock()

	statuses := make(map[string]HealthStatus, len(clients))
	var statusMu sync.Mutex
	var wg sync.WaitGroup

	for name, client := range clients {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			status := check(ctx, name, client)

			statusMu.Lock()
			statuses[name] = status
			statusMu.Unlock()
		}

		// 池满或已关闭时降级为直接创建 goroutine
		if m.healthPool != nil {
			if err := m.healthPool.Submit(task); err == nil {
				continue
			}
		}
		go task()
	}

	wg.Wait()
	return statuses
}

// AllHealthy reports whether every registered client answers a ping.
func (m *Manager) AllHealthy(ctx context.Context) bool {
	for _, status := range m.HealthCheckAll(ctx) {
		if !status.Healthy {
			return false
		}
	}
	return true
}

// Close removes and closes the client published under name.
// The slot is cleared even when Close fails.
func (m *Manager) Close(ctx context.Context, name string) error {
	client, ok := m.Take(name)
	if !ok {
		return ErrClientNotFound.For(name)
	}
	return client.Close(ctx)
}

// CloseAll closes every client in name order and empties the manager.
// Every client is closed; the failures are returned as one aggregate.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]Client)
	m.mu.Unlock()

	names := make([]string, 0, len(clients))
	for name := range clients {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := clients[name].Close(ctx); err != nil {
			logger.Warnw("failed to close client", "name", name, "error", err)
			errs = append(errs, fmt.Errorf("failed to close client '%s': %w", name, err))
		}
	}
	return utilerrors.NewAggregate(errs)
}
