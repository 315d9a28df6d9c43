// Package trace records spans for code generation runs.
//
// Tracing is enabled from the command line:
//
//	blockgen generate --trace=- --trace-level=detail sketch.json
//
// Implementations:
//
//   - Nop: no-op tracer used when tracing is disabled
//   - StreamTracer: writes every event immediately
//   - RingTracer: keeps the last N events for dumps on failure
//   - MultiTracer: fans out to several tracers
//
// Levels gate scopes. LevelPhase shows driver and pass boundaries,
// LevelDetail adds one span per workspace file, LevelDebug adds one
// span per emitted block.
//
// Tracers travel on the context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "walk", parent)
//	defer span.End("")
package trace
