package overlay

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/miorlan/openapi-store/internal/graph"
	"github.com/miorlan/openapi-store/internal/jsonpath"
)

// Applier applies overlays to a graph in place
type Applier struct {
	logger *slog.Logger
}

// NewApplier creates an Applier. A nil logger falls back to slog.Default().
func NewApplier(logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{logger: logger}
}

// Apply applies overlays with a default Applier
func Apply(g *graph.Graph, overlays ...*Overlay) *Result {
	return NewApplier(nil).Apply(g, overlays...)
}

// Apply runs every action of every overlay in order. Nothing is returned as an
// error: failed actions and empty matches are reported as warnings.
func (a *Applier) Apply(g *graph.Graph, overlays ...*Overlay) *Result {
	result := &Result{}
	for oi, o := range overlays {
		if o == nil {
			continue
		}
		for ai, action := range o.Actions {
			change, err := a.applyAction(g, action)
			if err != nil {
				applyErr := &ApplyError{OverlayIndex: oi, ActionIndex: ai, Target: action.Target, Cause: err}
				a.logger.Warn("overlay action skipped",
					"overlay", oi, "action", ai, "target", action.Target, "error", err)
				result.warn(&ApplyWarning{
					Category:     WarnActionError,
					OverlayIndex: oi,
					ActionIndex:  ai,
					Target:       action.Target,
					Message:      "action execution failed",
					Cause:        applyErr,
				})
				continue
			}
			if change.MatchCount == 0 {
				a.logger.Debug("overlay target matched nothing", "overlay", oi, "action", ai, "target", action.Target)
				result.warn(&ApplyWarning{
					Category:     WarnNoMatch,
					OverlayIndex: oi,
					ActionIndex:  ai,
					Target:       action.Target,
					Message:      "target matched no nodes",
				})
				continue
			}
			change.OverlayIndex = oi
			change.ActionIndex = ai
			result.Changes = append(result.Changes, change)
			result.Applied++
		}
	}
	return result
}

var errRootSlot = errors.New("the document root cannot be removed or replaced")

func (a *Applier) applyAction(g *graph.Graph, action Action) (ChangeRecord, error) {
	record := ChangeRecord{Target: action.Target}
	path, err := jsonpath.Parse(action.Target)
	if err != nil {
		return record, fmt.Errorf("invalid target: %w", err)
	}

	matches := path.Select(g.Root())
	record.MatchCount = len(matches)
	if len(matches) == 0 {
		return record, nil
	}

	switch {
	case action.Remove:
		record.Operation = "remove"
		// reverse order keeps sequence indices of earlier matches valid
		for i := len(matches) - 1; i >= 0; i-- {
			m := matches[i]
			if !m.Parent.IsValid() {
				return record, errRootSlot
			}
			m.Remove()
		}
	case action.Update != nil:
		for _, m := range matches {
			if m.Node.Mergeable(action.Update) {
				record.Operation = "update"
				if err := m.Node.Merge(action.Update); err != nil {
					return record, err
				}
				continue
			}
			if !m.Parent.IsValid() {
				return record, errRootSlot
			}
			if record.Operation == "" {
				record.Operation = "replace"
			}
			if err := m.Replace(action.Update); err != nil {
				return record, err
			}
		}
	default:
		record.Operation = "noop"
	}
	return record, nil
}
