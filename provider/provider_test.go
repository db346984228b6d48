package provider

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// testProvider implements the Provider interface for testing.
type testProvider struct {
	name      string
	available bool
	closed    bool
	closeErr  error
}

func (p *testProvider) Name() string                        { return p.name }
func (p *testProvider) IsAvailable(ctx context.Context) bool { return p.available }
func (p *testProvider) Close() error {
	p.closed = true
	return p.closeErr
}

func factoryFor(p *testProvider) Factory[*testProvider] {
	return func(cfg map[string]any) (*testProvider, error) { return p, nil }
}

func TestRegistryRegisterAndCreate(t *testing.T) {
	reg := NewRegistry[*testProvider]()
	reg.RegisterFactory("whispercpp", func(cfg map[string]any) (*testProvider, error) {
		return &testProvider{name: cfg["name"].(string), available: true}, nil
	})

	p, err := reg.Create("whispercpp", map[string]any{"name": "whispercpp"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.Name() != "whispercpp" {
		t.Errorf("expected name 'whispercpp', got %q", p.Name())
	}
	if !reg.Has("whispercpp") || reg.Has("sidecar") {
		t.Error("Has reported the wrong registrations")
	}
}

func TestRegistryCreateUnregistered(t *testing.T) {
	reg := NewRegistry[*testProvider]()
	_, err := reg.Create("missing", nil)
	if err == nil {
		t.Fatal("expected error for unregistered factory")
	}
	if !strings.Contains(err.Error(), "not registered") {
		t.Errorf("expected 'not registered' in error, got %q", err.Error())
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry[*testProvider]()
	reg.RegisterFactory("whispercpp", factoryFor(&testProvider{name: "whispercpp"}))
	reg.RegisterFactory("sidecar", factoryFor(&testProvider{name: "sidecar"}))

	names := reg.List()
	if len(names) != 2 || names[0] != "sidecar" || names[1] != "whispercpp" {
		t.Errorf("expected sorted [sidecar whispercpp], got %v", names)
	}
}

func TestPrioritySelector(t *testing.T) {
	providers := map[string]*testProvider{
		"primary":   {name: "primary", available: false},
		"secondary": {name: "secondary", available: true},
		"tertiary":  {name: "tertiary", available: true},
	}
	sel := &PrioritySelector[*testProvider]{Priority: []string{"primary", "secondary", "tertiary"}}

	p, err := sel.Select(context.Background(), providers)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if p.Name() != "secondary" {
		t.Errorf("expected 'secondary' (first available), got %q", p.Name())
	}
}

func TestPrioritySelectorNoneAvailable(t *testing.T) {
	providers := map[string]*testProvider{"a": {name: "a", available: false}}
	sel := &PrioritySelector[*testProvider]{Priority: []string{"a"}}
	if _, err := sel.Select(context.Background(), providers); err == nil {
		t.Error("expected error when no provider is available")
	}
}

func newTestManager(priority ...string) *Manager[*testProvider] {
	return NewManager[*testProvider](NewRegistry[*testProvider](), &PrioritySelector[*testProvider]{Priority: priority})
}

func TestManagerResolveByName(t *testing.T) {
	mgr := newTestManager()
	mgr.Register("svc", factoryFor(&testProvider{name: "svc", available: true}))
	if err := mgr.Initialize("svc", nil); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	p, err := mgr.Resolve(context.Background(), "svc")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if p.Name() != "svc" {
		t.Errorf("expected 'svc', got %q", p.Name())
	}
	if _, err := mgr.Resolve(context.Background(), "missing"); err == nil {
		t.Error("expected error for uninitialized provider")
	}
}

func TestManagerResolveAuto(t *testing.T) {
	mgr := newTestManager("whispercpp", "sidecar")
	mgr.Register("whispercpp", factoryFor(&testProvider{name: "whispercpp", available: false}))
	mgr.Register("sidecar", factoryFor(&testProvider{name: "sidecar", available: true}))
	_ = mgr.Initialize("whispercpp", nil)
	_ = mgr.Initialize("sidecar", nil)

	p, err := mgr.Resolve(context.Background(), Auto)
	if err != nil {
		t.Fatalf("Resolve(auto) failed: %v", err)
	}
	if p.Name() != "sidecar" {
		t.Errorf("expected fallback to 'sidecar', got %q", p.Name())
	}
}

func TestManagerAvailable(t *testing.T) {
	mgr := newTestManager()
	mgr.Register("b", factoryFor(&testProvider{name: "b"}))
	mgr.Register("a", factoryFor(&testProvider{name: "a"}))
	_ = mgr.Initialize("b", nil)
	_ = mgr.Initialize("a", nil)

	avail := mgr.Available()
	if len(avail) != 2 || avail[0] != "a" || avail[1] != "b" {
		t.Errorf("expected [a b], got %v", avail)
	}
}

func TestManagerInitializeFailure(t *testing.T) {
	mgr := newTestManager()
	if err := mgr.Initialize("unregistered", nil); err == nil {
		t.Error("expected error for initializing unregistered provider")
	}

	mgr.Register("broken", func(cfg map[string]any) (*testProvider, error) {
		return nil, errors.New("bad config")
	})
	if err := mgr.Initialize("broken", nil); err == nil {
		t.Error("expected factory error to propagate")
	}
}

func TestManagerClose(t *testing.T) {
	mgr := newTestManager()
	ok := &testProvider{name: "ok"}
	bad := &testProvider{name: "bad", closeErr: errors.New("close failed")}
	mgr.Register("ok", factoryFor(ok))
	mgr.Register("bad", factoryFor(bad))
	_ = mgr.Initialize("ok", nil)
	_ = mgr.Initialize("bad", nil)

	if err := mgr.Close(); err == nil {
		t.Error("expected close error to be reported")
	}
	if !ok.closed || !bad.closed {
		t.Error("expected every provider to be closed")
	}
}
