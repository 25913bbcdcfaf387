// Package manifest implements the YAML loader and the typed in-memory
// workflow model: reading a manifest file under a restricted YAML tag set,
// validating its structure, and exposing it as Manifest/Step for the
// executor to run.
package manifest

// Manifest is the parsed, validated shape of an agent definition.
type Manifest struct {
	Metadata Metadata `yaml:"metadata"`
	Workflow []Step   `yaml:"workflow"`
	// Return is an optional response-shaping template, resolved via the
	// variable package after the workflow completes. Its shape is
	// arbitrary JSON-like data with embedded variable references.
	Return any `yaml:"return"`
}

// Metadata carries the manifest's identity and optional observability toggle.
type Metadata struct {
	Name          string         `yaml:"name"`
	Version       string         `yaml:"version"`
	Observability *Observability `yaml:"observability"`
}

// Observability configures the workflow's tracing plane.
type Observability struct {
	// Enabled is decoded permissively: both YAML booleans and the strings
	// "true"/"false" are accepted (see rawObservability in load.go).
	Enabled bool `yaml:"enabled"`
}

// ObservabilityEnabled reports whether tracing should be active for this
// manifest, defaulting to false when metadata.observability is absent.
func (m Metadata) ObservabilityEnabled() bool {
	return m.Observability != nil && m.Observability.Enabled
}

// Step is one entry in the workflow sequence.
type Step struct {
	// ID must be non-empty and unique within the manifest.
	ID string `yaml:"id"`
	// Type keys into the Handler Registry.
	Type string `yaml:"type"`
	// Config is an opaque mapping whose recognized keys are defined by the
	// bound handler; the executor passes it to the handler unchanged and
	// the handler resolves any variable references in it.
	Config map[string]any `yaml:"config"`
	// Result, if set, names the context variable that stores this step's
	// non-streaming output.
	Result string `yaml:"result"`
}
