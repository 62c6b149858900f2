package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/miorlan/openapi-store/internal/domain"
)

// ErrFileNotFound возникает когда локальный файл не найден
type ErrFileNotFound struct {
	Path string
}

func (e *ErrFileNotFound) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// HTTPStatusError - сервер ответил не 2xx
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d (%s)", e.StatusCode, e.URL)
}

// FileLoader реализует загрузку документов (локальных и по HTTP)
type FileLoader struct {
	client *http.Client
}

// NewFileLoader создает новый FileLoader
func NewFileLoader() *FileLoader {
	return NewFileLoaderWithTimeout(30 * time.Second)
}

// NewFileLoaderWithTimeout создает новый FileLoader с указанным таймаутом
func NewFileLoaderWithTimeout(timeout time.Duration) *FileLoader {
	return NewFileLoaderWithClient(&http.Client{Timeout: timeout})
}

// NewFileLoaderWithClient создает FileLoader поверх готового http.Client
func NewFileLoaderWithClient(client *http.Client) *FileLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &FileLoader{client: client}
}

var _ domain.Loader = (*FileLoader)(nil)

// Load загружает документ с локального диска или по HTTP
func (fl *FileLoader) Load(ctx context.Context, path string) ([]byte, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if IsRemote(path) {
		return fl.loadHTTP(ctx, path)
	}

	if strings.HasPrefix(path, "file://") {
		u, err := url.Parse(path)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		path = u.Path
	}

	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		absPath, err := filepath.Abs(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		cleanPath = absPath
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &ErrFileNotFound{Path: cleanPath}
		}
		return nil, err
	}
	return data, nil
}

// loadHTTP загружает документ по HTTP
func (fl *FileLoader) loadHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := fl.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch HTTP resource: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read HTTP response: %w", err)
	}

	return data, nil
}

// IsRemote сообщает, нужно ли загружать путь по сети
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}
