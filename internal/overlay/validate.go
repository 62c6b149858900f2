package overlay

import (
	"fmt"
	"strings"

	"github.com/miorlan/openapi-store/internal/jsonpath"
)

// ValidationError is a structural problem of an overlay document
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the overlay shape: a 1.x version, at least one action, and
// for every action a parseable target plus an update or remove.
func Validate(o *Overlay) []ValidationError {
	var errs []ValidationError
	if o.Version == "" {
		errs = append(errs, ValidationError{Field: "overlay", Message: "version is required"})
	} else if !strings.HasPrefix(o.Version, "1.") {
		errs = append(errs, ValidationError{Field: "overlay", Message: fmt.Sprintf("unsupported version %q", o.Version)})
	}
	if len(o.Actions) == 0 {
		errs = append(errs, ValidationError{Field: "actions", Message: "at least one action is required"})
	}

	for i, action := range o.Actions {
		field := fmt.Sprintf("actions[%d]", i)
		if action.Target == "" {
			errs = append(errs, ValidationError{Field: field + ".target", Message: "target is required"})
		} else if _, err := jsonpath.Parse(action.Target); err != nil {
			errs = append(errs, ValidationError{Field: field + ".target", Message: err.Error()})
		}
		if action.Update == nil && !action.Remove {
			errs = append(errs, ValidationError{Field: field, Message: "update or remove is required"})
		}
	}
	return errs
}
