// Package provider is a small generic framework for swappable backends.
//
// A Registry maps names to factories. A Manager initializes the configured
// backends and resolves one by name, or picks the first available when asked
// for Auto:
//
//	mgr := provider.NewManager(provider.NewRegistry[engine.Engine](),
//	    &provider.PrioritySelector[engine.Engine]{Priority: []string{"whispercpp", "sidecar"}})
//	mgr.Register("whispercpp", whispercpp.Factory)
//	_ = mgr.Initialize("whispercpp", cfg)
//	eng, err := mgr.Resolve(ctx, provider.Auto)
package provider
