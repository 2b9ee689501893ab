// Package httpserver runs an http.Server with context-driven graceful
// shutdown and provides liveness and readiness handlers.
//
//	srv := httpserver.New(cfg, log)
//	err := srv.Run(ctx, router) // returns after ctx is cancelled and requests drain
package httpserver
