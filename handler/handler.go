// Package handler defines the shape every workflow step handler must
// produce and accept. It is deliberately tiny and dependency-free (it must
// not import registry or executor) so that registry, primitive and executor
// can all depend on it without creating an import cycle.
package handler

import "context"

// Output is a sum type representing what a handler produced for a step.
// Exactly one of Record or Stream is meaningful for a given Output; callers
// discriminate with IsStream.
type Output struct {
	record  map[string]any
	stream  *Stream
	isStream bool
}

// Stream carries a channel of incremental chunks for a streaming step
// (currently produced only by the chat primitive). Chunks arrive in order;
// the channel is closed by the producer when generation finishes or errors.
type Stream struct {
	// Chunks yields incremental output. The executor returns the Stream
	// undrained; the caller of Executor.Execute is responsible for draining
	// it to completion.
	Chunks <-chan StreamChunk
}

// StreamChunk is one increment of a streaming handler's output.
type StreamChunk struct {
	// TextDelta is a piece of freshly generated text, if any.
	TextDelta string
	// Data carries a structured, out-of-band data part (e.g. a tool call
	// result surfaced mid-stream). Transient data parts are not part of the
	// step's final Record.
	Data map[string]any
	// Transient marks Data as ephemeral: it is forwarded to observers but
	// never merged into the step's final result.
	Transient bool
	// Finished marks the terminal chunk. FinalRecord holds the step's
	// complete result once streaming ends successfully.
	Finished   bool
	FinalRecord map[string]any
	// Err carries a terminal error, if generation failed mid-stream.
	Err error
}

// NewRecord wraps a plain result map as a non-streaming Output.
func NewRecord(record map[string]any) Output {
	return Output{record: record}
}

// NewStream wraps a chunk channel as a streaming Output.
func NewStream(chunks <-chan StreamChunk) Output {
	return Output{stream: &Stream{Chunks: chunks}, isStream: true}
}

// IsStream reports whether this Output carries a Stream rather than a Record.
func (o Output) IsStream() bool { return o.isStream }

// Record returns the non-streaming result map. Only valid when !IsStream().
func (o Output) Record() map[string]any { return o.record }

// StreamValue returns the Stream. Only valid when IsStream().
func (o Output) StreamValue() *Stream { return o.stream }

// Func is the signature every registered handler implements. config is the
// step's raw configuration map, passed unresolved; the handler resolves any
// variable references in it itself. The returned Output is either a Record
// or a Stream per the handler's nature.
type Func func(ctx context.Context, config map[string]any) (Output, error)
