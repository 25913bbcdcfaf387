package registry

import "fmt"

// LookupError reports a missing entry in one of the four registries
// (provider-resolution or tool-binding errors from spec §4.5).
type LookupError struct {
	Kind string // "provider", "tool", "handler"
	Name string
}

// Error implements error.
func (e *LookupError) Error() string {
	return fmt.Sprintf("registry: no %s registered under name %q", e.Kind, e.Name)
}

func newLookupError(kind, name string) *LookupError {
	return &LookupError{Kind: kind, Name: name}
}
