package domain

import "fmt"

// InvalidDocumentError - входной документ не является OpenAPI/Swagger документом
type InvalidDocumentError struct {
	Reason  string
	Version string
}

func (e *InvalidDocumentError) Error() string {
	if e.Version != "" {
		return fmt.Sprintf("Invalid OpenAPI/Swagger document, %s: %s", e.Reason, e.Version)
	}
	return fmt.Sprintf("Invalid OpenAPI/Swagger document, %s.", e.Reason)
}

// ErrInvalidReference - ссылка не соответствует формату JSON Pointer
type ErrInvalidReference struct {
	Ref string
}

func (e *ErrInvalidReference) Error() string {
	return fmt.Sprintf("invalid reference: %s", e.Ref)
}

// ErrPathNotFound - по указателю в документе ничего нет
type ErrPathNotFound struct {
	Pointer string
}

func (e *ErrPathNotFound) Error() string {
	return fmt.Sprintf("path not found: %s", e.Pointer)
}
