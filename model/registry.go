package model

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kbukum/whisperd/engine"
	apperrors "github.com/kbukum/whisperd/errors"
	"github.com/kbukum/whisperd/logger"
	"github.com/kbukum/whisperd/observability"
)

// Handle is a loaded model shared by every request for its identifier.
type Handle struct {
	ID       string
	Profile  DeviceProfile
	Model    engine.Model
	Engine   string
	LoadedAt time.Time
}

// Registry caches one Handle per identifier for the process lifetime.
type Registry struct {
	cfg     Config
	engine  engine.Engine
	gpu     GPUDetector
	metrics *observability.Metrics
	log     *logger.Logger

	group singleflight.Group

	mu      sync.RWMutex
	handles map[string]*Handle
	current string
}

// Option configures a Registry.
type Option func(*Registry)

// WithGPUDetector replaces the nvidia-smi GPU check.
func WithGPUDetector(p GPUDetector) Option {
	return func(r *Registry) { r.gpu = p }
}

// WithMetrics records model load metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates a registry loading through eng.
func NewRegistry(cfg Config, eng engine.Engine, opts ...Option) *Registry {
	cfg.ApplyDefaults()
	r := &Registry{
		cfg:     cfg,
		engine:  eng,
		gpu:     NvidiaSMI{},
		log:     logger.Get("model-registry"),
		handles: make(map[string]*Handle),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Resolve maps id to a catalog identifier; unknown or empty ids become the
// default.
func (r *Registry) Resolve(id string) string {
	if IsSupported(id) {
		return id
	}
	return r.cfg.DefaultModel
}

// Get returns the handle for id, loading it on first use. Concurrent first
// requests share a single load whose result every caller receives. The load
// is not canceled when ctx is.
func (r *Registry) Get(ctx context.Context, id string) (*Handle, error) {
	resolved := r.Resolve(id)
	if resolved != id && id != "" {
		r.log.WithContext(ctx).Debug("Unknown model requested, using default",
			logger.Fields("requested", id, logger.FieldModel, resolved))
	}

	r.mu.RLock()
	h, ok := r.handles[resolved]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(resolved, func() (any, error) {
		return r.load(loadCtx, resolved)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

func (r *Registry) load(ctx context.Context, id string) (*Handle, error) {
	// A load that finished between the read check and Do already cached it.
	r.mu.RLock()
	h, ok := r.handles[id]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanModelLoad)
	defer span.End()

	profile := ResolveProfile(ctx, r.cfg.Device, r.cfg.ComputeType, r.gpu)
	observability.SetSpanAttribute(ctx, observability.AttrModel, id)
	observability.SetSpanAttribute(ctx, observability.AttrDevice, profile.Device)
	observability.SetSpanAttribute(ctx, observability.AttrPrecision, profile.Precision)

	log := r.log.WithContext(ctx)
	fields := logger.Fields(
		logger.FieldModel, id,
		logger.FieldDevice, profile.Device,
		logger.FieldPrecision, profile.Precision,
	)
	log.Info("Loading model", fields)

	start := time.Now()
	m, err := r.engine.Load(ctx, engine.LoadSpec{
		Model:     id,
		Device:    profile.Device,
		Precision: profile.Precision,
		CacheDir:  r.cfg.ModelsDir,
	})
	elapsed := time.Since(start)
	if err != nil {
		r.metrics.RecordModelLoad(ctx, id, profile.Device, "error", elapsed)
		observability.SetSpanError(ctx, err)
		log.Error("Model load failed", logger.Fields(
			logger.FieldModel, id,
			logger.FieldDevice, profile.Device,
			logger.FieldError, err.Error(),
		))
		return nil, apperrors.ModelLoadFailed(id, err)
	}
	r.metrics.RecordModelLoad(ctx, id, profile.Device, "ok", elapsed)

	h = &Handle{
		ID:       id,
		Profile:  profile,
		Model:    m,
		Engine:   r.engine.Name(),
		LoadedAt: time.Now(),
	}

	r.mu.Lock()
	r.handles[id] = h
	r.current = id
	r.mu.Unlock()

	log.Info("Model loaded", logger.Fields(
		logger.FieldModel, id,
		logger.FieldDevice, profile.Device,
		logger.FieldPrecision, profile.Precision,
		logger.FieldDuration, elapsed.String(),
	))
	return h, nil
}

// Preload loads the default model. Failures are logged and returned; the
// caller decides whether they matter.
func (r *Registry) Preload(ctx context.Context) error {
	if _, err := r.Get(ctx, r.cfg.DefaultModel); err != nil {
		r.log.Warn("Default model preload failed, will retry on first request",
			logger.Fields(logger.FieldModel, r.cfg.DefaultModel, logger.FieldError, err.Error()))
		return err
	}
	return nil
}

// Current returns the most recently loaded identifier.
func (r *Registry) Current() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, r.current != ""
}

// Loaded returns the sorted identifiers with a cached handle.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Supported returns the catalog.
func (r *Registry) Supported() []string { return Supported() }

// Default returns the configured default identifier.
func (r *Registry) Default() string { return r.cfg.DefaultModel }

// EngineName returns the backend models are loaded through.
func (r *Registry) EngineName() string { return r.engine.Name() }

// Stop closes every loaded model that implements io.Closer and empties the
// cache.
func (r *Registry) Stop() error {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]*Handle)
	r.current = ""
	r.mu.Unlock()

	var first error
	for id, h := range handles {
		c, ok := h.Model.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			r.log.Warn("Model close failed", logger.Fields(logger.FieldModel, id, logger.FieldError, err.Error()))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
