// Package diag defines the diagnostic model shared by the design loader, the
// resolver and MIR construction.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error).
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the canonical source.Span pointing to the issue.
//   - Notes – optional secondary spans/messages for additional context.
//
// # Emitting diagnostics
//
// Phases report through a diag.Reporter so emission stays decoupled from
// storage. ReportError/ReportWarning return a ReportBuilder that can collect
// notes before Emit. BagReporter aggregates into a Bag; DedupReporter drops
// repeats, which matters when the same node is lowered under several
// parametrizations.
//
// Reporters and Bag are safe for concurrent use. Nothing here formats for a
// terminal; rendering lives in internal/diagfmt.
package diag
