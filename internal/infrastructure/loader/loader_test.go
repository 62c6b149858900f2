package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFileLoader_Load_LocalFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.yaml")
	content := []byte("test content")

	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loader := NewFileLoader()
	ctx := context.Background()

	data, err := loader.Load(ctx, testFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if string(data) != string(content) {
		t.Errorf("Load() = %v, want %v", string(data), string(content))
	}
}

func TestFileLoader_Load_FileURL(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.yaml")
	if err := os.WriteFile(testFile, []byte("openapi: 3.1.0"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	data, err := NewFileLoader().Load(context.Background(), "file://"+testFile)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(data) != "openapi: 3.1.0" {
		t.Errorf("Load() = %q", string(data))
	}
}

func TestFileLoader_Load_FileNotFound(t *testing.T) {
	loader := NewFileLoader()
	ctx := context.Background()

	_, err := loader.Load(ctx, filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for nonexistent file")
	}

	var notFound *ErrFileNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("Load() error = %T, want *ErrFileNotFound", err)
	}
}

func TestFileLoader_Load_ContextCancelled(t *testing.T) {
	loader := NewFileLoader()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Load(ctx, "test.yaml")
	if err == nil {
		t.Error("Load() expected error for cancelled context")
	}
}

func TestFileLoader_Load_RelativePath(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.yaml")
	content := []byte("test content")

	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	loader := NewFileLoader()
	ctx := context.Background()

	t.Chdir(tmpDir)

	data, err := loader.Load(ctx, "test.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if string(data) != string(content) {
		t.Errorf("Load() = %v, want %v", string(data), string(content))
	}
}

func TestFileLoader_Load_HTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("openapi: 3.1.0"))
	}))
	defer server.Close()

	loader := NewFileLoaderWithClient(server.Client())
	ctx := context.Background()

	data, err := loader.Load(ctx, server.URL+"/openapi.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(data) != "openapi: 3.1.0" {
		t.Errorf("Load() = %q", string(data))
	}

	_, err = loader.Load(ctx, server.URL+"/missing.yaml")
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Load() error = %v, want *HTTPStatusError", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", statusErr.StatusCode)
	}
}

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"http://example.com/a.yaml":  true,
		"https://example.com/a.yaml": true,
		"file:///tmp/a.yaml":         false,
		"./a.yaml":                   false,
	}
	for path, want := range tests {
		if got := IsRemote(path); got != want {
			t.Errorf("IsRemote(%q) = %v, want %v", path, got, want)
		}
	}
}
