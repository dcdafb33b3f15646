// Package shutdown ties a CLI invocation to process signals.
//
// Watch derives a context that is canceled on SIGINT or SIGTERM so that
// in-flight controller requests abort; Shutdown then runs the registered
// cleanup hooks (metrics export, history save) once, newest first.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	ctx, stop := h.Watch(context.Background())
//	defer stop()
//	defer h.Shutdown()
package shutdown
