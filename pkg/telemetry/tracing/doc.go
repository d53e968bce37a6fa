// Package tracing exports OpenTelemetry spans for rules reloads and rule
// lookups.
//
// Spans are sent over OTLP gRPC. When tracing is disabled, [Noop] tracers
// are used and spans cost nothing beyond the call.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	mgr, err := manager.NewManager(&cfg.Rules, logger, manager.WithTracer(tracer.Tracer()))
//
// Every reload produces a "rulebook.reload" span carrying the reload id,
// the trigger and the version that became active. Failed reloads record the
// error and an Error status.
package tracing
