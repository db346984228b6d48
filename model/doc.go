// Package model owns the process-wide cache of loaded speech models.
//
// A Registry resolves an identifier (unknown ones fall back to the default),
// picks a device profile, and loads through the configured engine exactly
// once per identifier. Concurrent first requests share one load via
// singleflight; the cache is never populated with failures.
//
//	reg := model.NewRegistry(cfg, eng, model.WithMetrics(metrics))
//	h, err := reg.Get(ctx, "small")
package model
