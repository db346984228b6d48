package provider

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/kbukum/whisperd/logger"
)

// Manager owns initialized providers and resolves which one serves requests.
type Manager[T Provider] struct {
	mu        sync.RWMutex
	registry  *Registry[T]
	selector  Selector[T]
	providers map[string]T
	log       *logger.Logger
}

// NewManager creates a Manager backed by the given registry and selector.
// The selector is consulted only when Resolve is asked for Auto.
func NewManager[T Provider](registry *Registry[T], selector Selector[T]) *Manager[T] {
	return &Manager[T]{
		registry:  registry,
		selector:  selector,
		providers: make(map[string]T),
		log:       logger.Get("provider"),
	}
}

// Register adds a factory to the underlying registry.
func (m *Manager[T]) Register(name string, factory Factory[T]) {
	m.registry.RegisterFactory(name, factory)
	m.log.Debug("factory registered", map[string]interface{}{"provider": name})
}

// Initialize creates a provider from its factory and stores it for use.
func (m *Manager[T]) Initialize(name string, cfg map[string]any) error {
	instance, err := m.registry.Create(name, cfg)
	if err != nil {
		return fmt.Errorf("initialize provider %q: %w", name, err)
	}
	m.mu.Lock()
	m.providers[name] = instance
	m.mu.Unlock()
	m.log.Info("provider initialized", map[string]interface{}{"provider": name})
	return nil
}

// Resolve returns the provider registered as name. For Auto the selector
// chooses among all initialized providers.
func (m *Manager[T]) Resolve(ctx context.Context, name string) (T, error) {
	if name != Auto {
		return m.GetByName(name)
	}
	if m.selector == nil {
		var zero T
		return zero, fmt.Errorf("no selector configured for %q", Auto)
	}
	m.mu.RLock()
	providers := make(map[string]T, len(m.providers))
	for k, v := range m.providers {
		providers[k] = v
	}
	m.mu.RUnlock()

	p, err := m.selector.Select(ctx, providers)
	if err != nil {
		return p, err
	}
	m.log.Info("provider selected", map[string]interface{}{"provider": p.Name()})
	return p, nil
}

// GetByName returns a specific provider by name.
func (m *Manager[T]) GetByName(name string) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.providers[name]; ok {
		return p, nil
	}
	var zero T
	return zero, fmt.Errorf("provider %q not initialized", name)
}

// Available returns the sorted names of all initialized providers.
func (m *Manager[T]) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every initialized provider that implements io.Closer.
func (m *Manager[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for name, p := range m.providers {
		c, ok := any(p).(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			m.log.Warn("provider close failed", map[string]interface{}{"provider": name, logger.FieldError: err.Error()})
			if first == nil {
				first = err
			}
		}
	}
	return first
}
