// Package enginetest provides a scriptable engine for tests.
package enginetest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/kbukum/whisperd/engine"
)

// Engine is a fake engine.Engine. Zero value is usable and returns an empty
// transcript.
type Engine struct {
	// Segments and Info are returned by every Transcribe call.
	Segments []engine.Segment
	Info     engine.Info

	// LoadErr fails the next loads while set.
	LoadErr error
	// TranscribeErr fails every Transcribe call while set.
	TranscribeErr error
	// Stream, when set, replaces the scripted Segments.
	Stream func(opts engine.RunOptions) engine.Segments
	// Gate, when non-nil, blocks Load until it is closed.
	Gate chan struct{}
	// Unavailable makes IsAvailable report false.
	Unavailable bool
	// Label overrides Name().
	Label string

	loads atomic.Int32

	mu     sync.Mutex
	specs  []engine.LoadSpec
	runs   []engine.RunOptions
	closed int
}

// Name returns Label, or "fake".
func (e *Engine) Name() string {
	if e.Label != "" {
		return e.Label
	}
	return "fake"
}

// IsAvailable reports !Unavailable.
func (e *Engine) IsAvailable(context.Context) bool { return !e.Unavailable }

// Load records spec and returns a Model.
func (e *Engine) Load(ctx context.Context, spec engine.LoadSpec) (engine.Model, error) {
	e.loads.Add(1)
	if e.Gate != nil {
		select {
		case <-e.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e.mu.Lock()
	e.specs = append(e.specs, spec)
	err := e.LoadErr
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &Model{engine: e, Spec: spec}, nil
}

// SetLoadErr changes LoadErr under the engine lock.
func (e *Engine) SetLoadErr(err error) {
	e.mu.Lock()
	e.LoadErr = err
	e.mu.Unlock()
}

// Loads returns how many times Load was called.
func (e *Engine) Loads() int { return int(e.loads.Load()) }

// Specs returns the specs passed to Load, in call order.
func (e *Engine) Specs() []engine.LoadSpec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.LoadSpec(nil), e.specs...)
}

// Runs returns the options passed to Transcribe, in call order.
func (e *Engine) Runs() []engine.RunOptions {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.RunOptions(nil), e.runs...)
}

// Closed returns how many models were closed.
func (e *Engine) Closed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Model is returned by Engine.Load.
type Model struct {
	engine *Engine
	Spec   engine.LoadSpec
}

// Transcribe records opts and returns the engine's scripted result.
func (m *Model) Transcribe(_ context.Context, opts engine.RunOptions) (engine.Segments, error) {
	e := m.engine
	e.mu.Lock()
	e.runs = append(e.runs, opts)
	e.mu.Unlock()
	if e.TranscribeErr != nil {
		return nil, e.TranscribeErr
	}
	if e.Stream != nil {
		return e.Stream(opts), nil
	}
	return engine.NewSegments(append([]engine.Segment(nil), e.Segments...), e.Info), nil
}

// Close counts the close.
func (m *Model) Close() error {
	m.engine.mu.Lock()
	m.engine.closed++
	m.engine.mu.Unlock()
	return nil
}

// FailingSegments yields Good then stops with Failure.
type FailingSegments struct {
	Good    []engine.Segment
	Failure error
	pos     int
}

func (f *FailingSegments) Next() (engine.Segment, bool) {
	if f.pos < len(f.Good) {
		f.pos++
		return f.Good[f.pos-1], true
	}
	return engine.Segment{}, false
}

func (f *FailingSegments) Err() error { return f.Failure }

func (f *FailingSegments) Info() (engine.Info, error) {
	if f.Failure != nil {
		return engine.Info{}, f.Failure
	}
	return engine.Info{}, errors.New("enginetest: no info")
}
