// Package bootstrap orchestrates the service lifecycle.
//
// It takes a typed, already-loaded configuration, initializes the global
// logger, and starts registered components in order. A startup summary is
// printed once everything is ready; OnStop hooks run before shutdown.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.RegisterComponent(models)
//	app.RegisterComponent(httpServer)
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Run blocks until SIGINT, SIGTERM or context cancellation, then stops
// components in reverse registration order within the graceful timeout.
package bootstrap
