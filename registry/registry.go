// Package registry implements the four registries the executor and
// primitives consult (each Registry built by New holds its own independent
// set; the package keeps no global instance): Handlers (step type -> handler.Func),
// Providers (provider name -> model.Factory), Tools (tool name -> tool.Tool),
// and Callbacks (name -> lifecycle callback). Every registry shares the same
// register/lookup contract: registration replaces an existing entry and
// warns via the supplied logger; the "last write wins" policy is safe only
// when registration happens at bootstrap (see spec's open question §9(i)).
package registry

import (
	"sync"

	"github.com/hupe1980/flowmesh/handler"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/model"
	"github.com/hupe1980/flowmesh/tool"
)

// Callback is a named lifecycle hook a streaming primitive may invoke, such
// as chat's onFinish/onError. The payload shape is hook-specific; callers
// type-assert as needed.
type Callback func(payload map[string]any)

// Handlers maps a workflow step type to its handler.Func implementation.
type Handlers struct {
	mu       sync.RWMutex
	handlers map[string]handler.Func
	logger   logging.Logger
}

// NewHandlers constructs an empty Handlers registry.
func NewHandlers(logger logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Handlers{handlers: make(map[string]handler.Func), logger: logger}
}

// Register inserts or replaces the handler bound to name, logging a warning on override.
func (h *Handlers) Register(name string, fn handler.Func) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.handlers[name]; exists {
		h.logger.Warn("overriding registered handler", "step_type", name)
	}
	h.handlers[name] = fn
}

// Lookup returns the handler bound to name, if any.
func (h *Handlers) Lookup(name string) (handler.Func, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn, ok := h.handlers[name]
	return fn, ok
}

// Names returns every registered step type, for "unknown step type" error messages.
func (h *Handlers) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.handlers))
	for name := range h.handlers {
		names = append(names, name)
	}
	return names
}

// Providers maps a provider name to a model.Factory.
type Providers struct {
	mu        sync.RWMutex
	factories map[string]model.Factory
	logger    logging.Logger
}

// NewProviders constructs an empty Providers registry.
func NewProviders(logger logging.Logger) *Providers {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Providers{factories: make(map[string]model.Factory), logger: logger}
}

// Register inserts or replaces the factory bound to name, logging a warning on override.
func (p *Providers) Register(name string, factory model.Factory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.factories[name]; exists {
		p.logger.Warn("overriding registered provider", "provider", name)
	}
	p.factories[name] = factory
}

// Create builds a Model via the named provider's factory.
func (p *Providers) Create(name string, config map[string]any) (model.Model, error) {
	p.mu.RLock()
	factory, ok := p.factories[name]
	p.mu.RUnlock()
	if !ok {
		return nil, newLookupError("provider", name)
	}
	return factory(config)
}

// Tools maps a tool name to its tool.Tool implementation.
type Tools struct {
	mu     sync.RWMutex
	tools  map[string]tool.Tool
	logger logging.Logger
}

// NewTools constructs an empty Tools registry.
func NewTools(logger logging.Logger) *Tools {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Tools{tools: make(map[string]tool.Tool), logger: logger}
}

// Register inserts or replaces the tool bound to its own Name(), logging a warning on override.
func (t *Tools) Register(impl tool.Tool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	name := impl.Name()
	if _, exists := t.tools[name]; exists {
		t.logger.Warn("overriding registered tool", "tool", name)
	}
	t.tools[name] = impl
}

// Lookup returns the tool bound to name, if any.
func (t *Tools) Lookup(name string) (tool.Tool, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	impl, ok := t.tools[name]
	return impl, ok
}

// Get returns the tool bound to name, or a binding error naming it.
func (t *Tools) Get(name string) (tool.Tool, error) {
	impl, ok := t.Lookup(name)
	if !ok {
		return nil, newLookupError("tool", name)
	}
	return impl, nil
}

// Callbacks maps a callback name to its implementation.
type Callbacks struct {
	mu        sync.RWMutex
	callbacks map[string]Callback
	logger    logging.Logger
}

// NewCallbacks constructs an empty Callbacks registry.
func NewCallbacks(logger logging.Logger) *Callbacks {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Callbacks{callbacks: make(map[string]Callback), logger: logger}
}

// Register inserts or replaces the callback bound to name, logging a warning on override.
func (c *Callbacks) Register(name string, cb Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.callbacks[name]; exists {
		c.logger.Warn("overriding registered callback", "callback", name)
	}
	c.callbacks[name] = cb
}

// Lookup returns the callback bound to name, if any. Unknown callback names
// referenced from YAML are logged and ignored by the caller, per spec §4.6.
func (c *Callbacks) Lookup(name string) (Callback, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cb, ok := c.callbacks[name]
	return cb, ok
}

// Registry bundles all four registries so the executor and primitives take
// a single dependency. Construct with New; each sub-registry can also be
// used standalone (e.g. in unit tests that only need Tools).
type Registry struct {
	Handlers  *Handlers
	Providers *Providers
	Tools     *Tools
	Callbacks *Callbacks
}

// New constructs an empty Registry with all four sub-registries wired to logger.
func New(logger logging.Logger) *Registry {
	return &Registry{
		Handlers:  NewHandlers(logger),
		Providers: NewProviders(logger),
		Tools:     NewTools(logger),
		Callbacks: NewCallbacks(logger),
	}
}
