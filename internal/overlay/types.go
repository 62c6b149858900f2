// Package overlay applies OpenAPI Overlay documents to a reference graph.
//
// Overlays run strictly in the order given, and so do their actions, so the
// last write to a leaf wins. An action whose target matches nothing is a
// no-op. An action that fails is skipped without undoing earlier ones.
package overlay

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Overlay is one overlay document
type Overlay struct {
	Version string   `yaml:"overlay" json:"overlay"`
	Info    *Info    `yaml:"info,omitempty" json:"info,omitempty"`
	Extends string   `yaml:"extends,omitempty" json:"extends,omitempty"`
	Actions []Action `yaml:"actions" json:"actions"`
}

// Info describes an overlay
type Info struct {
	Title   string `yaml:"title" json:"title"`
	Version string `yaml:"version" json:"version"`
}

// Action targets nodes with a selector and either merges Update into them or
// removes them. Remove wins when both are set.
type Action struct {
	Target      string `yaml:"target" json:"target"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Update is any value yaml.v3 can encode. Parsed overlays carry a
	// *yaml.Node so key order survives.
	Update interface{} `yaml:"update,omitempty" json:"update,omitempty"`
	Remove bool        `yaml:"remove,omitempty" json:"remove,omitempty"`
}

// UnmarshalYAML keeps the update as an ordered node
func (a *Action) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Target      string    `yaml:"target"`
		Description string    `yaml:"description"`
		Update      yaml.Node `yaml:"update"`
		Remove      bool      `yaml:"remove"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	a.Target = raw.Target
	a.Description = raw.Description
	a.Remove = raw.Remove
	a.Update = nil
	if raw.Update.Kind != 0 {
		update := raw.Update
		a.Update = &update
	}
	return nil
}

// WarningCategory classifies an ApplyWarning
type WarningCategory string

const (
	WarnNoMatch     WarningCategory = "no-match"
	WarnActionError WarningCategory = "action-error"
)

// ApplyWarning is a non-fatal problem met while applying an action
type ApplyWarning struct {
	Category     WarningCategory
	OverlayIndex int
	ActionIndex  int
	Target       string
	Message      string
	Cause        error
}

func (w *ApplyWarning) String() string {
	if w.Cause != nil {
		return fmt.Sprintf("overlay[%d] action[%d] target %q: %v", w.OverlayIndex, w.ActionIndex, w.Target, w.Cause)
	}
	return fmt.Sprintf("overlay[%d] action[%d] target %q: %s", w.OverlayIndex, w.ActionIndex, w.Target, w.Message)
}

// Unwrap returns the underlying error
func (w *ApplyWarning) Unwrap() error {
	return w.Cause
}

// ApplyError is why a single action was skipped
type ApplyError struct {
	OverlayIndex int
	ActionIndex  int
	Target       string
	Cause        error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("overlay[%d] action[%d] target %q: %v", e.OverlayIndex, e.ActionIndex, e.Target, e.Cause)
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}

// ChangeRecord describes one applied action
type ChangeRecord struct {
	OverlayIndex int
	ActionIndex  int
	Target       string
	// Operation is "update", "replace", "remove" or "noop"
	Operation  string
	MatchCount int
}

// Result summarizes an Apply call
type Result struct {
	Applied  int
	Skipped  int
	Changes  []ChangeRecord
	Warnings []*ApplyWarning
}

// HasWarnings reports whether any action was skipped or matched nothing
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

func (r *Result) warn(w *ApplyWarning) {
	r.Warnings = append(r.Warnings, w)
	r.Skipped++
}
