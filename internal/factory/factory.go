package factory

import (
	"fmt"

	"github.com/anime-shed/image-filter-go/internal/config"
	"github.com/anime-shed/image-filter-go/internal/filter"
	"github.com/anime-shed/image-filter-go/internal/storage"
)

// StorageType represents different image sources
type StorageType string

const (
	// HTTPStorage fetches images with a plain GET
	HTTPStorage StorageType = "http"
	// AzureStorage routes blob-hosted images through the Azure SDK
	AzureStorage StorageType = "azure"
)

// StorageTypeFor picks the storage type implied by cfg
func StorageTypeFor(cfg *config.Config) StorageType {
	if cfg.AzureEnabled() {
		return AzureStorage
	}
	return HTTPStorage
}

// StorageFactory creates image fetchers
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a fetcher based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	httpFetcher := storage.NewHTTPImageFetcher(f.cfg.ImageFetchTimeout, f.cfg.MaxImageBytes)

	switch storageType {
	case HTTPStorage:
		return httpFetcher, nil
	case AzureStorage:
		blob, err := storage.NewBlobImageFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, f.cfg.MaxImageBytes)
		if err != nil {
			return nil, err
		}
		return storage.NewRoutingFetcher(httpFetcher, blob), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// FilterFactory creates filter options from configuration
type FilterFactory interface {
	CreateOptions() (filter.FilterOptions, error)
}

type filterFactory struct {
	cfg *config.Config
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config) FilterFactory {
	return &filterFactory{cfg: cfg}
}

// CreateOptions resolves the configured mode and output settings
func (f *filterFactory) CreateOptions() (filter.FilterOptions, error) {
	mode, err := filter.ParseFilterMode(f.cfg.FilterMode)
	if err != nil {
		return filter.FilterOptions{}, err
	}

	return filter.DefaultOptions().
		WithMode(mode).
		WithJPEGQuality(f.cfg.JPEGQuality).
		WithTempDir(f.cfg.TempDir).
		WithMaxPixels(f.cfg.MaxImagePixels), nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
	FilterFactory  FilterFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(cfg),
		FilterFactory:  NewFilterFactory(cfg),
	}
}
