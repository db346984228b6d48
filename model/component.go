package model

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kbukum/whisperd/component"
)

// Component runs the registry's preload at startup and closes models on
// shutdown.
type Component struct {
	registry *Registry

	mu         sync.Mutex
	preloadErr error
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent wraps registry as a lifecycle component.
func NewComponent(registry *Registry) *Component {
	return &Component{registry: registry}
}

// Name implements component.Component.
func (c *Component) Name() string { return "models" }

// Start preloads the default model when enabled. A failed preload never
// fails startup.
func (c *Component) Start(ctx context.Context) error {
	if !c.registry.cfg.PreloadEnabled() {
		return nil
	}
	err := c.registry.Preload(ctx)
	c.mu.Lock()
	c.preloadErr = err
	c.mu.Unlock()
	return nil
}

// Stop implements component.Component.
func (c *Component) Stop(_ context.Context) error {
	return c.registry.Stop()
}

// Health is degraded while a failed preload has not been recovered by a
// later load.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	loaded := c.registry.Loaded()

	c.mu.Lock()
	err := c.preloadErr
	c.mu.Unlock()

	switch {
	case len(loaded) > 0:
		h.Message = "loaded: " + strings.Join(loaded, ", ")
	case err != nil:
		h.Status = component.StatusDegraded
		h.Message = err.Error()
	default:
		h.Message = "no model loaded"
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	cfg := c.registry.cfg
	return component.Description{
		Name: "Model Registry",
		Type: c.registry.EngineName(),
		Details: fmt.Sprintf("default=%s device=%s compute=%s dir=%s",
			cfg.DefaultModel, cfg.Device, cfg.ComputeType, cfg.ModelsDir),
	}
}
