// Package logging provides a minimal logging interface and adapters for FlowMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the registries, executor and primitives use for operator-facing
// observability. This is deliberately distinct from the trace package: trace
// events are sanitized and safe to hand to an end user or persist verbatim,
// while Logger output may include configuration values, resolved variables
// and raw error messages and should be treated as an operator-only channel.
//
//   - Logger interface for dependency injection
//   - StructuredLogger adapter wrapping Go's structured logging (slog)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	exec := executor.New(manifest, reg, executor.WithLogger(logger))
package logging
