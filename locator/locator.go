// Package locator resolves an agentId referenced by the call-agent
// primitive to a loadable manifest path. It is the external collaborator
// spec.md §4.8 describes: "the locator is an external collaborator: a
// registered path-resolver the primitive consults" — the primitive never
// hardcodes a filesystem layout.
package locator

import (
	"fmt"
	"path/filepath"
)

// Locator resolves a sub-agent identifier to a manifest path.
type Locator interface {
	Resolve(agentID string) (path string, err error)
}

// NotFoundError reports that no manifest could be located for an agentId.
type NotFoundError struct {
	AgentID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("locator: no manifest registered for agent %q", e.AgentID)
}

// Static is a Locator backed by an explicit agentId -> path map, useful for
// tests and small deployments with a fixed set of sub-agents.
type Static map[string]string

// Resolve implements Locator.
func (s Static) Resolve(agentID string) (string, error) {
	path, ok := s[agentID]
	if !ok {
		return "", &NotFoundError{AgentID: agentID}
	}
	return path, nil
}

// Directory is a Locator that resolves agentId to <dir>/<agentId>.yaml (or
// .yml), the conventional layout for a directory of sibling manifests.
type Directory struct {
	Dir string
}

// NewDirectory constructs a Directory locator rooted at dir.
func NewDirectory(dir string) Directory { return Directory{Dir: dir} }

// Resolve implements Locator.
func (d Directory) Resolve(agentID string) (string, error) {
	for _, ext := range []string{".yaml", ".yml"} {
		candidate := filepath.Join(d.Dir, agentID+ext)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", &NotFoundError{AgentID: agentID}
}
