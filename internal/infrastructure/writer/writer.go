package writer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/miorlan/openapi-store/internal/domain"
)

// FileWriter реализует запись файлов
type FileWriter struct{}

// NewFileWriter создает новый FileWriter
func NewFileWriter() domain.FileWriter {
	return &FileWriter{}
}

// Write записывает данные в файл через временный файл и rename,
// чтобы читатель никогда не увидел наполовину записанный экспорт.
// Если data == nil, файл удаляется (используется при ошибке валидации)
func (fw *FileWriter) Write(path string, data []byte) error {
	if data == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}

	outputDir := filepath.Dir(path)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(outputDir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}
