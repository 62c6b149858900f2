package domain

import "context"

// Loader loads documents from filesystem or URL.
// It is the fetch capability used by the external reference fetcher;
// a non-2xx HTTP response must be returned as an error.
type Loader interface {
	Load(ctx context.Context, path string) ([]byte, error)
}

// LoaderFunc adapts a function to the Loader interface
type LoaderFunc func(ctx context.Context, path string) ([]byte, error)

// Load calls f(ctx, path)
func (f LoaderFunc) Load(ctx context.Context, path string) ([]byte, error) {
	return f(ctx, path)
}

// FileWriter writes files to filesystem
type FileWriter interface {
	Write(path string, data []byte) error
}

// Validator validates serialized OpenAPI documents
type Validator interface {
	Validate(ctx context.Context, data []byte) error
}
