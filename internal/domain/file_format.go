package domain

import (
	"strings"
)

// FileFormat представляет формат файла
type FileFormat string

const (
	FormatYAML FileFormat = "yaml"
	FormatJSON FileFormat = "json"
)

// DetectFormat определяет формат файла по пути или URL
func DetectFormat(filePath string) FileFormat {
	// query и fragment не влияют на формат
	if i := strings.IndexAny(filePath, "?#"); i >= 0 {
		filePath = filePath[:i]
	}
	lower := strings.ToLower(filePath)
	if strings.HasSuffix(lower, ".json") {
		return FormatJSON
	}
	return FormatYAML // По умолчанию
}

// DetectContentFormat определяет формат по содержимому
func DetectContentFormat(data []byte) FileFormat {
	trimmed := strings.TrimSpace(string(data))
	if trimmed != "" && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}
