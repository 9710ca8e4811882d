// Package trace is the structured event log of the svir toolchain.
//
// Tracing follows a design session from the driver down to individual MIR
// construction steps, which is how cast chains and packing decisions are
// inspected without a debugger.
//
// # Usage
//
//	svir lower --trace=- --trace-level=debug design.toml
//
// # Levels
//
//   - LevelOff: No tracing
//   - LevelError: Only crash dumps
//   - LevelPhase: Driver and pass boundaries
//   - LevelDetail: Per-query events (one per lowered root)
//   - LevelDebug: Everything including cast steps and packing
//
// # Scopes
//
//   - ScopeDriver: Top-level CLI operations
//   - ScopePass: Loading, resolution, lowering
//   - ScopeQuery: mir_lvalue / mir_rvalue computations
//   - ScopeNode: Individual construction steps
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "lower", parentID)
//	defer span.End("")
package trace
