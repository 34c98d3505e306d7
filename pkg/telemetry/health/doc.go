// Package health provides liveness and readiness probes for a running
// beacon client.
//
// Readiness aggregates named checks registered by the caller, typically
// whether the lifecycle source can deliver transitions:
//
//	checker := health.New(5*time.Second, nil)
//	checker.RegisterCheck("lifecycle_source", func(ctx context.Context) error {
//	    if !c.LifecycleAvailable() {
//	        return errors.New("lifecycle source unavailable")
//	    }
//	    return nil
//	})
//	health.Register(mux, checker, health.VersionInfo{Version: "0.1.0"})
package health
