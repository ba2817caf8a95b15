package models

import (
	"errors"
	"fmt"
)

// StepKind is the closed set of step variants. Dispatch over steps must switch
// exhaustively on this type so a new kind is a compile-time decision point.
type StepKind string

const (
	StepKindCode StepKind = "code"
	StepKindTool StepKind = "tool"
)

var (
	ErrUnknownStepKind = errors.New("unknown step kind")
	ErrStepSpecMissing = errors.New("step is missing the spec for its kind")
	ErrStepSpecExtra   = errors.New("step carries a spec for a different kind")
)

// Step is one unit of work in a workflow: either user-authored code executed
// in the sandbox, or an invocation of a named external tool. Exactly one of
// Code and Tool is set, matching Kind.
type Step struct {
	ID        string    `json:"id"         validate:"required"`
	Kind      StepKind  `json:"kind"       validate:"required"`
	Code      *CodeSpec `json:"code,omitempty"`
	Tool      *ToolSpec `json:"tool,omitempty"`
	DependsOn []string  `json:"depends_on,omitempty"`
}

// CodeSpec holds a sandboxed code snippet and the expression naming its entry
// point. EntryPoint defaults to "main()" when empty.
type CodeSpec struct {
	Source     string `json:"source" validate:"required"`
	EntryPoint string `json:"entry_point,omitempty"`
}

const DefaultEntryPoint = "main()"

func (c *CodeSpec) Entry() string {
	if c.EntryPoint == "" {
		return DefaultEntryPoint
	}

	return c.EntryPoint
}

// ToolSpec names an external tool and carries its argument template. Argument
// values may reference prior step outputs (see pkg/template); those references
// contribute producer/consumer edges to the workflow graph.
type ToolSpec struct {
	Name string         `json:"name" validate:"required"`
	Args map[string]any `json:"args,omitempty"`
}

func (s *Step) Validate() error {
	if s.ID == "" {
		return errors.New("step id is required")
	}

	switch s.Kind {
	case StepKindCode:
		if s.Code == nil {
			return fmt.Errorf("step %s: %w", s.ID, ErrStepSpecMissing)
		}

		if s.Tool != nil {
			return fmt.Errorf("step %s: %w", s.ID, ErrStepSpecExtra)
		}

		if s.Code.Source == "" {
			return fmt.Errorf("step %s: code source is required", s.ID)
		}

		return nil
	case StepKindTool:
		if s.Tool == nil {
			return fmt.Errorf("step %s: %w", s.ID, ErrStepSpecMissing)
		}

		if s.Code != nil {
			return fmt.Errorf("step %s: %w", s.ID, ErrStepSpecExtra)
		}

		if s.Tool.Name == "" {
			return fmt.Errorf("step %s: tool name is required", s.ID)
		}

		return nil
	default:
		return fmt.Errorf("step %s: %w: %q", s.ID, ErrUnknownStepKind, s.Kind)
	}
}
