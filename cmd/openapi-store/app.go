package main

import (
	"log/slog"

	"github.com/miorlan/openapi-store/internal/infrastructure/loader"
	"github.com/miorlan/openapi-store/internal/infrastructure/validator"
	"github.com/miorlan/openapi-store/internal/infrastructure/writer"
	"github.com/miorlan/openapi-store/internal/usecase"
)

type (
	exportConfig = usecase.ExportConfig
	refsConfig   = usecase.RefsConfig
)

// newExporter создает ExportUseCase с зависимостями
func newExporter(logger *slog.Logger) *usecase.ExportUseCase {
	return usecase.NewExportUseCase(
		loader.NewFileLoader(),
		writer.NewFileWriter(),
		validator.NewValidator(),
		logger,
	)
}

// newRefsFetcher создает RefsUseCase с зависимостями
func newRefsFetcher(logger *slog.Logger) *usecase.RefsUseCase {
	return usecase.NewRefsUseCase(loader.NewFileLoader(), logger)
}
