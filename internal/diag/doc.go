// Package diag defines the diagnostic model shared by every generation phase.
//
// # Purpose
//
//   - Provide deterministic, serialisable records for findings produced while a
//     workspace is decoded, validated and emitted.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with a stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Block – id of the block the finding is attached to (may be empty).
//   - Notes – optional secondary block references with additional context.
//
// A pin conflict, for example, points at the block that asserted the new mode
// and carries a note for the block that declared the previous one.
//
// # Emitting diagnostics
//
// Phases use a diag.Reporter. ReportWarning / ReportInfo / ReportError build a
// ReportBuilder which may be extended with WithNote before Emit. BagReporter
// collects into a Bag, which supports sorting, filtering and bounded growth.
//
// Warnings are a list, not a set: the same message reported twice is kept twice.
// Use DedupReporter only where repeated findings carry no information.
//
// # Consumers
//
//   - internal/diagfmt renders diagnostics as pretty text or JSON.
//   - internal/codegen transports the bag of a pass to the CLI.
package diag
