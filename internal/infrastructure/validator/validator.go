package validator

import (
	"context"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/miorlan/openapi-store/internal/domain"
)

// Validator checks an exported document with kin-openapi.
// External references are not followed: an export is expected to be self-contained
// apart from the references it deliberately keeps.
type Validator struct{}

func NewValidator() domain.Validator {
	return &Validator{}
}

func (v *Validator) Validate(ctx context.Context, data []byte) error {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = false
	loader.Context = ctx

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("invalid OpenAPI specification: %w", err)
	}

	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("invalid OpenAPI specification: %w", err)
	}

	return nil
}
