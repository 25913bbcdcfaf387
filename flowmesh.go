// Package flowmesh is a declarative YAML workflow engine: manifests describe
// a sequence of steps dispatched to registered handlers, with results
// threaded between steps through a shared variable map and an optional
// trace of the run attached to the final output.
//
// New builds a Registry pre-populated with the built-in step types
// (llm, chat, output-generator, call-agent) and the Anthropic/OpenAI model
// providers; RunFile loads a manifest and executes it in one call for the
// common case of a standalone workflow with no further customization.
package flowmesh

import (
	"context"
	"fmt"

	"github.com/hupe1980/flowmesh/executor"
	"github.com/hupe1980/flowmesh/locator"
	"github.com/hupe1980/flowmesh/logging"
	"github.com/hupe1980/flowmesh/manifest"
	"github.com/hupe1980/flowmesh/model/anthropic"
	"github.com/hupe1980/flowmesh/model/openai"
	"github.com/hupe1980/flowmesh/primitive"
	"github.com/hupe1980/flowmesh/registry"
	"github.com/hupe1980/flowmesh/trace"
)

// Engine bundles a Registry with the options it was constructed from, so
// callers can load and run any number of manifests against the same set of
// providers, tools and handlers.
type Engine struct {
	Registry *registry.Registry
	logger   logging.Logger
	recorder trace.Recorder
}

// Option configures an Engine at construction time.
type Option func(*engineConfig)

type engineConfig struct {
	logger        logging.Logger
	recorder      trace.Recorder
	locator       locator.Locator
	toolLoopLimit int
	skipDefaults  bool
}

// WithLogger sets the logger used by the engine's default handlers and by
// Executors constructed via Run.
func WithLogger(logger logging.Logger) Option {
	return func(c *engineConfig) { c.logger = logger }
}

// WithRecorder attaches a trace.Recorder (e.g. trace.NewPrometheusRecorder)
// to every Executor constructed via Run.
func WithRecorder(rec trace.Recorder) Option {
	return func(c *engineConfig) { c.recorder = rec }
}

// WithLocator supplies the locator.Locator the call-agent primitive
// consults to resolve a sub-agent's manifest path. Defaults to an empty
// locator.Static, under which every call-agent step fails to resolve.
func WithLocator(loc locator.Locator) Option {
	return func(c *engineConfig) { c.locator = loc }
}

// WithToolLoopLimit overrides primitive.DefaultToolLoopLimit for the llm
// primitive registered by New. The chat primitive registered by New is not
// affected and always uses primitive.DefaultToolLoopLimit.
func WithToolLoopLimit(n int) Option {
	return func(c *engineConfig) { c.toolLoopLimit = n }
}

// WithoutDefaultHandlers skips registering the built-in step types and
// model providers, leaving the returned Registry empty for callers that
// want to assemble their own set from scratch.
func WithoutDefaultHandlers() Option {
	return func(c *engineConfig) { c.skipDefaults = true }
}

// New constructs an Engine. Unless WithoutDefaultHandlers is given, it
// registers the four built-in step types (llm, chat, output-generator,
// call-agent) and the anthropic/openai providers.
func New(opts ...Option) *Engine {
	cfg := &engineConfig{
		logger:        logging.NoOpLogger{},
		recorder:      trace.RecorderFunc(func(trace.Event) {}),
		locator:       locator.Static{},
		toolLoopLimit: primitive.DefaultToolLoopLimit,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	reg := registry.New(cfg.logger)

	if !cfg.skipDefaults {
		reg.Providers.Register("anthropic", anthropic.NewFactory())
		reg.Providers.Register("openai", openai.NewFactory())

		reg.Handlers.Register("llm", primitive.NewLLM(reg, primitive.WithToolLoopLimit(cfg.toolLoopLimit), primitive.WithLLMLogger(cfg.logger)).Handle)
		reg.Handlers.Register("chat", primitive.NewChat(reg, primitive.WithChatLogger(cfg.logger)).Handle)
		reg.Handlers.Register("output-generator", primitive.NewOutputGenerator(primitive.WithOutputGeneratorLogger(cfg.logger)).Handle)
		reg.Handlers.Register("call-agent", primitive.NewCallAgent(reg, cfg.locator).Handle)
	}

	return &Engine{Registry: reg, logger: cfg.logger, recorder: cfg.recorder}
}

// Load parses and validates a manifest file.
func (e *Engine) Load(path string) (*manifest.Manifest, error) {
	return manifest.Load(path)
}

// Run executes m against input, returning either the manifest's final
// record (a map[string]any or, for a step-materialized variable map, a
// *orderedmap.OrderedMap[string, any]) or a handler.Output carrying a
// Stream when the last executed step produced one.
func (e *Engine) Run(ctx context.Context, m *manifest.Manifest, input any, opts ...executor.Option) (any, error) {
	base := []executor.Option{executor.WithLogger(e.logger), executor.WithRecorder(e.recorder)}
	exec := executor.New(m, e.Registry, append(base, opts...)...)
	return exec.Execute(ctx, input)
}

// RunFile loads path and executes it against input in one call.
func (e *Engine) RunFile(ctx context.Context, path string, input any, opts ...executor.Option) (any, error) {
	m, err := e.Load(path)
	if err != nil {
		return nil, fmt.Errorf("flowmesh: loading manifest: %w", err)
	}
	return e.Run(ctx, m, input, opts...)
}
