package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"

	store "github.com/miorlan/openapi-store"
	"github.com/miorlan/openapi-store/internal/domain"
)

// ExportConfig holds configuration for export execution
type ExportConfig struct {
	// Overlays are applied in order after the document is loaded
	Overlays     []string
	Validate     bool
	PreserveRefs bool
	KeepPrivate  bool
	MaxFileSize  int64
}

// ExportUseCase загружает документ, применяет overlay и записывает снимок
type ExportUseCase struct {
	loader    domain.Loader
	writer    domain.FileWriter
	validator domain.Validator
	logger    *slog.Logger
}

// NewExportUseCase создает новый экземпляр ExportUseCase
func NewExportUseCase(
	loader domain.Loader,
	writer domain.FileWriter,
	validator domain.Validator,
	logger *slog.Logger,
) *ExportUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportUseCase{
		loader:    loader,
		writer:    writer,
		validator: validator,
		logger:    logger,
	}
}

// Execute normalizes the input, applies the overlays and writes the export.
// The output format follows the output path extension, or the input format
// when the output has none.
func (uc *ExportUseCase) Execute(ctx context.Context, inputPath, outputPath string, config ExportConfig) (*store.ApplyResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data, err := uc.load(ctx, inputPath, config.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load input file: %w", err)
	}

	s, err := store.Create(data, store.WithLogger(uc.logger), store.WithOperationUpgrade())
	if err != nil {
		return nil, err
	}

	overlays, err := uc.loadOverlays(ctx, config)
	if err != nil {
		return nil, err
	}
	result := s.Apply(overlays...)
	uc.logger.Info("overlays applied", "applied", result.Applied, "skipped", result.Skipped)

	var opts []store.ExportOption
	if config.PreserveRefs {
		opts = append(opts, store.PreserveRefs())
	}
	if config.KeepPrivate {
		opts = append(opts, store.KeepPrivate())
	}
	outputData, err := s.Marshal(outputFormat(outputPath, data), opts...)
	if err != nil {
		return result, err
	}

	if err := uc.writer.Write(outputPath, outputData); err != nil {
		return result, fmt.Errorf("failed to write output file: %w", err)
	}

	if config.Validate {
		if err := uc.validator.Validate(ctx, outputData); err != nil {
			// невалидный экспорт не оставляем на диске
			_ = uc.writer.Write(outputPath, nil)
			return result, fmt.Errorf("validation failed: %w", err)
		}
	}

	uc.logger.Debug("document exported", "input", inputPath, "output", outputPath, "bytes", len(outputData))
	return result, nil
}

// outputFormat follows the output extension. Without a known extension the
// input's own format is kept.
func outputFormat(outputPath string, input []byte) domain.FileFormat {
	p := outputPath
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".json", ".yaml", ".yml":
		return domain.DetectFormat(outputPath)
	}
	return domain.DetectContentFormat(input)
}

func (uc *ExportUseCase) load(ctx context.Context, location string, maxSize int64) ([]byte, error) {
	data, err := uc.loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, fmt.Errorf("file size %d exceeds maximum allowed size %d", len(data), maxSize)
	}
	return data, nil
}

// loadOverlays reads and validates every overlay file. Structural problems
// are fatal here: a half-valid overlay set is never applied.
func (uc *ExportUseCase) loadOverlays(ctx context.Context, config ExportConfig) ([]*store.Overlay, error) {
	var overlays []*store.Overlay
	for _, overlayPath := range config.Overlays {
		data, err := uc.load(ctx, overlayPath, config.MaxFileSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load overlay %s: %w", overlayPath, err)
		}
		parsed, err := store.ParseOverlays(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse overlay %s: %w", overlayPath, err)
		}
		for _, o := range parsed {
			if issues := store.ValidateOverlay(o); len(issues) > 0 {
				errs := make([]error, 0, len(issues))
				for _, issue := range issues {
					errs = append(errs, issue)
				}
				return nil, fmt.Errorf("invalid overlay %s: %w", overlayPath, errors.Join(errs...))
			}
		}
		overlays = append(overlays, parsed...)
	}
	return overlays, nil
}
