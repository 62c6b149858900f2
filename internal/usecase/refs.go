package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	store "github.com/miorlan/openapi-store"
	"github.com/miorlan/openapi-store/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// RefsConfig holds configuration for reference discovery
type RefsConfig struct {
	ConcurrencyLimit int
	Lazy             bool
	Registerer       prometheus.Registerer
}

// RefsUseCase обходит внешние $ref документа и сообщает их статус
type RefsUseCase struct {
	loader domain.Loader
	logger *slog.Logger
}

// NewRefsUseCase создает новый экземпляр RefsUseCase
func NewRefsUseCase(loader domain.Loader, logger *slog.Logger) *RefsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefsUseCase{loader: loader, logger: logger}
}

// Execute fetches inputPath and every external reference reachable from it,
// waits until the fetcher is quiescent and returns all tracked URLs in
// discovery order. Only a failure of the input itself is returned as an error.
func (uc *RefsUseCase) Execute(ctx context.Context, inputPath string, config RefsConfig) ([]store.ExternalReference, error) {
	strategy := store.StrategyEager
	if config.Lazy {
		strategy = store.StrategyLazy
	}
	f, err := store.NewFetcher(store.FetcherConfig{
		ConcurrencyLimit: config.ConcurrencyLimit,
		Strategy:         strategy,
		Loader:           uc.loader,
		Logger:           uc.logger,
		Registerer:       config.Registerer,
	})
	if err != nil {
		return nil, err
	}

	f.AddReference(ctx, inputPath)
	if err := f.IsReady(ctx); err != nil {
		return nil, err
	}

	root, _ := f.GetReference(inputPath)
	if root.Status == store.StatusFailed {
		return nil, fmt.Errorf("failed to fetch %s: %w", inputPath, errors.Join(root.Errors...))
	}
	return f.References(), nil
}
