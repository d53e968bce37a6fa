// Package health provides liveness and readiness endpoints for long-running
// rulebook processes.
//
// # Endpoints
//
//   - /healthz: the process is running
//   - /readyz: every registered check passes; 503 otherwise
//   - /version: build information
//
// # Usage
//
//	checker := health.New(time.Second)
//	checker.RegisterCheck("rules", mgr.Check)
//
//	mux := http.NewServeMux()
//	health.Register(mux, checker, version, commit, buildDate)
//
// The watch command serves these next to the metrics endpoint. Its "rules"
// check fails while the most recent reload has failed, even though the
// previous rules are still being served.
package health
