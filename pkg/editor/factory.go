package editor

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ssargent/fitedit/pkg/codec"
	"github.com/ssargent/fitedit/pkg/config"
	"github.com/ssargent/fitedit/pkg/metrics"
	"github.com/ssargent/fitedit/pkg/storage"
)

// ServiceFactory creates editor services
type ServiceFactory interface {
	// CreateService opens the store under cfg.DataDir and returns a service on it
	CreateService(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, progress codec.ProgressFunc) (*Service, error)
}

// DefaultServiceFactory is the default implementation of ServiceFactory
type DefaultServiceFactory struct{}

// NewServiceFactory creates a new service factory
func NewServiceFactory() ServiceFactory {
	return &DefaultServiceFactory{}
}

// CreateService creates a service on a pebble store in cfg.DataDir
func (f *DefaultServiceFactory) CreateService(
	cfg *config.Config,
	m *metrics.Metrics,
	logger *slog.Logger,
	progress codec.ProgressFunc,
) (*Service, error) {
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	store, err := storage.NewPebbleStore(filepath.Join(cfg.DataDir, "activities"))
	if err != nil {
		return nil, err
	}
	return NewService(store, m, logger, ServiceConfig{
		SkipCorrupt: cfg.Decode.SkipCorrupt,
		ChunkSize:   cfg.Decode.ChunkSize,
		MaxSpeed:    cfg.Repair.MaxSpeed,
		Progress:    progress,
	}), nil
}
