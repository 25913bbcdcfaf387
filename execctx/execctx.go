// Package execctx implements the per-execution Context: the input payload,
// an insertion-preserving variable map, an optional trace event log, and the
// sub-agent recursion depth carried across nested call-agent invocations.
package execctx

import (
	"context"
	"sync"

	"github.com/hupe1980/flowmesh/trace"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultMaxDepth is the recommended per-invocation sub-agent recursion limit.
const DefaultMaxDepth = 8

// Context is created once per top-level Execute call (and once more, fresh,
// per nested call-agent invocation). The executor owns it exclusively for
// the duration of the call; handlers receive a borrowed reference and
// mutate it only through Set/AppendTrace.
type Context struct {
	mu sync.RWMutex

	input     any
	variables *orderedmap.OrderedMap[string, any]

	traceEnabled bool
	trace        []trace.Event

	// depth counts sub-agent nesting; call-agent increments it for the
	// child Context it constructs and refuses to proceed past maxDepth.
	depth    int
	maxDepth int
}

// Option configures a new Context.
type Option func(*Context)

// WithObservability enables trace event accumulation.
func WithObservability(enabled bool) Option {
	return func(c *Context) { c.traceEnabled = enabled }
}

// WithDepth sets the current sub-agent recursion depth (used by call-agent
// when constructing a child Context).
func WithDepth(depth int) Option {
	return func(c *Context) { c.depth = depth }
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(max int) Option {
	return func(c *Context) { c.maxDepth = max }
}

// New constructs a fresh execution Context over input.
func New(input any, opts ...Option) *Context {
	c := &Context{
		input:     input,
		variables: orderedmap.New[string, any](),
		maxDepth:  DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.traceEnabled {
		c.trace = make([]trace.Event, 0, 8)
	}
	return c
}

// InputValue returns the top-level input payload. Implements variable.Source.
func (c *Context) InputValue() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.input
}

// Variable returns a previously stored step result by name. Implements variable.Source.
func (c *Context) Variable(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.variables.Get(name)
}

// Set stores a step's record under the given variable name, preserving
// insertion order for callers that materialize the whole variable map.
func (c *Context) Set(name string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variables.Set(name, value)
}

// Variables returns the insertion-ordered variable map. Callers must not
// mutate the returned map; it is a live reference for read-only iteration.
func (c *Context) Variables() *orderedmap.OrderedMap[string, any] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.variables
}

// TraceEnabled reports whether this Context accumulates trace events.
func (c *Context) TraceEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.traceEnabled
}

// AppendTrace records an event when tracing is enabled; it is a no-op otherwise.
func (c *Context) AppendTrace(ev trace.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.traceEnabled {
		return
	}
	c.trace = append(c.trace, ev)
}

// Trace returns a snapshot copy of the accumulated trace events.
func (c *Context) Trace() []trace.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]trace.Event, len(c.trace))
	copy(out, c.trace)
	return out
}

// Depth returns the current sub-agent recursion depth.
func (c *Context) Depth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.depth
}

// MaxDepth returns the configured recursion ceiling.
func (c *Context) MaxDepth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.maxDepth
}

// DepthExceeded reports whether depth has reached the configured maximum,
// meaning a further call-agent invocation must be refused.
func (c *Context) DepthExceeded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.depth >= c.maxDepth
}

type contextKey struct{}

// WithContext returns a context.Context carrying c, so tool implementations
// invoked without direct access to the executor can still read/set
// workflow variables via FromContext.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the Context carried by ctx, or nil if none was attached.
func FromContext(ctx context.Context) *Context {
	c, _ := ctx.Value(contextKey{}).(*Context)
	return c
}
