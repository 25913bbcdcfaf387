package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// allowedTags is the restricted tag set the loader accepts. Anything else
// (custom types, "<<" merge keys, binary, timestamp, or an
// application-defined tag) is refused before the document is ever
// decoded into Go values, closing off the executable-payload attack surface.
var allowedTags = map[string]bool{
	"!!str":   true,
	"!!seq":   true,
	"!!map":   true,
	"!!null":  true,
	"!!bool":  true,
	"!!int":   true,
	"!!float": true,
}

// Load reads and parses the manifest at path, validating it under the
// restricted tag set and the structural invariants (non-empty metadata,
// non-empty workflow, unique non-empty step ids, non-empty step types). It
// does not resolve variable references; that happens per-step at execution
// time via the variable package.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	return Parse(data, path)
}

// Parse parses raw YAML bytes into a validated Manifest. path is used only
// for error messages (Load's callers pass the source file path; other
// callers may pass a synthetic identifier).
func Parse(data []byte, path string) (*Manifest, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	if len(root.Content) == 0 {
		return nil, newValidationError("", "empty document")
	}
	doc := root.Content[0]
	if err := validateTags(doc); err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}
	if doc.Kind != yaml.MappingNode {
		return nil, newValidationError("", "top-level document must be a mapping")
	}
	hasMetadata := false
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "metadata" {
			meta := doc.Content[i+1]
			hasMetadata = meta.Kind == yaml.MappingNode && len(meta.Content) > 0
			break
		}
	}
	if !hasMetadata {
		return nil, newValidationError("metadata", "must be a non-empty mapping")
	}

	var raw rawManifest
	if err := doc.Decode(&raw); err != nil {
		return nil, &ParseError{Path: path, Cause: err}
	}

	m, err := raw.toManifest()
	if err != nil {
		return nil, err
	}
	if err := validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// validateTags walks the node tree rejecting any tag outside allowedTags.
// Custom application tags (e.g. "!!python/object", "!!js/function") never
// reach the decode step.
func validateTags(node *yaml.Node) error {
	if node.Tag != "" && !allowedTags[node.Tag] {
		return fmt.Errorf("unsafe or unknown YAML tag %q at line %d", node.Tag, node.Line)
	}
	for _, child := range node.Content {
		if err := validateTags(child); err != nil {
			return err
		}
	}
	return nil
}

// rawManifest mirrors the YAML shape before typed/normalized conversion;
// observability.enabled is decoded as yaml.Node so both boolean and string
// forms ("true"/"false") can be treated as truthy per spec.
type rawManifest struct {
	Metadata rawMetadata    `yaml:"metadata"`
	Workflow []rawStep      `yaml:"workflow"`
	Return   any            `yaml:"return"`
}

type rawMetadata struct {
	Name          string              `yaml:"name"`
	Version       string              `yaml:"version"`
	Observability *rawObservability   `yaml:"observability"`
}

type rawObservability struct {
	Enabled yaml.Node `yaml:"enabled"`
}

type rawStep struct {
	ID     string         `yaml:"id"`
	Type   string         `yaml:"type"`
	Config map[string]any `yaml:"config"`
	Result string         `yaml:"result"`
}

func (r rawManifest) toManifest() (*Manifest, error) {
	m := &Manifest{
		Metadata: Metadata{Name: r.Metadata.Name, Version: r.Metadata.Version},
		Return:   r.Return,
	}
	if r.Metadata.Observability != nil {
		enabled, err := decodeTruthy(r.Metadata.Observability.Enabled)
		if err != nil {
			return nil, newValidationError("metadata.observability.enabled", err.Error())
		}
		m.Metadata.Observability = &Observability{Enabled: enabled}
	}
	for _, s := range r.Workflow {
		m.Workflow = append(m.Workflow, Step{ID: s.ID, Type: s.Type, Config: s.Config, Result: s.Result})
	}
	return m, nil
}

// decodeTruthy accepts both YAML booleans and the literal strings "true"/"false".
func decodeTruthy(n yaml.Node) (bool, error) {
	if n.Kind == 0 {
		return false, nil
	}
	switch n.Tag {
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return false, err
		}
		return b, nil
	case "!!str":
		switch n.Value {
		case "true":
			return true, nil
		case "false":
			return false, nil
		default:
			return false, fmt.Errorf("expected boolean, got string %q", n.Value)
		}
	default:
		return false, fmt.Errorf("expected boolean, got %s", n.Tag)
	}
}

// validate enforces the structural invariants from spec §4.1/§8: non-empty
// name/version left to the embedder's discretion (not enforced here; Parse
// only checks that metadata is a non-empty mapping), non-empty workflow, and
// per-step id/type uniqueness/non-emptiness.
func validate(m *Manifest) error {
	if len(m.Workflow) == 0 {
		return newValidationError("workflow", "must be a non-empty sequence")
	}
	seen := make(map[string]bool, len(m.Workflow))
	for i, step := range m.Workflow {
		if step.ID == "" {
			return newValidationError(fmt.Sprintf("workflow[%d].id", i), "must be non-empty")
		}
		if step.Type == "" {
			return newValidationError(fmt.Sprintf("workflow[%d].type", i), "must be non-empty")
		}
		if seen[step.ID] {
			return newValidationError(fmt.Sprintf("workflow[%d].id", i), fmt.Sprintf("duplicate step id %q", step.ID))
		}
		seen[step.ID] = true
	}
	return nil
}
