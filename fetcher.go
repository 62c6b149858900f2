package store

import (
	"fmt"

	"github.com/miorlan/openapi-store/internal/fetcher"
)

type (
	// Fetcher discovers and downloads external $ref targets
	Fetcher = fetcher.Fetcher
	// FetcherConfig configures NewFetcher
	FetcherConfig = fetcher.Config
	// ExternalReference is a snapshot of one tracked URL
	ExternalReference = fetcher.Reference
	// FetchStatus is the lifecycle state of a tracked URL
	FetchStatus = fetcher.Status
	// FetchStrategy decides whether discovered references are fetched right away
	FetchStrategy = fetcher.Strategy
)

const (
	StatusIdle    = fetcher.StatusIdle
	StatusPending = fetcher.StatusPending
	StatusFetched = fetcher.StatusFetched
	StatusFailed  = fetcher.StatusFailed

	StrategyEager = fetcher.StrategyEager
	StrategyLazy  = fetcher.StrategyLazy

	// UnknownURL keys content handed to Fetcher.LoadContent
	UnknownURL = fetcher.UnknownURL
)

// ErrInvalidContent is recorded for fetched bytes that are not a document
var ErrInvalidContent = fetcher.ErrInvalidContent

// NewFetcher creates a Fetcher. Zero config fields take the defaults
// (5 fetches at a time, eager strategy, file and HTTP loader).
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	return fetcher.New(cfg)
}

// CreateFromReference builds a store from the content of a fetched reference
func CreateFromReference(ref ExternalReference, opts ...Option) (*Store, error) {
	if ref.Status != StatusFetched {
		return nil, fmt.Errorf("reference %s is %s, not fetched", ref.URL, ref.Status)
	}
	return Create(ref.Content, opts...)
}
