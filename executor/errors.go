package executor

import (
	"fmt"
	"strings"
)

// UnknownStepTypeError is raised when a step names a type with no
// registered handler.
type UnknownStepTypeError struct {
	StepID     string
	StepType   string
	Registered []string
}

func (e *UnknownStepTypeError) Error() string {
	return fmt.Sprintf(
		"executor: step %q: unknown step type %q (registered: %s)",
		e.StepID, e.StepType, strings.Join(e.Registered, ", "),
	)
}

// DepthExceededError is raised when a call-agent invocation would exceed
// the configured sub-agent recursion limit.
type DepthExceededError struct {
	MaxDepth int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("executor: sub-agent recursion depth exceeded maximum of %d", e.MaxDepth)
}
