// Package api provides factory implementations for dependency injection
package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ssargent/famblob/pkg/storage"
)

// DefaultStorageFactory opens pebble-backed storage
type DefaultStorageFactory struct{}

// NewStorageFactory creates a new storage factory
func NewStorageFactory() StorageFactory {
	return &DefaultStorageFactory{}
}

// OpenStorage opens a storage.DefaultStorage at path
func (f *DefaultStorageFactory) OpenStorage(path string, opts storage.Options) (SnapshotStore, error) {
	return storage.NewDefaultStorage(path, opts)
}

// DefaultServerFactory is the default implementation of ServerFactory
type DefaultServerFactory struct{}

// NewServerFactory creates a new server factory
func NewServerFactory() ServerFactory {
	return &DefaultServerFactory{}
}

// CreateServerStarter creates a server starter
func (f *DefaultServerFactory) CreateServerStarter() ServerStarter {
	return &DefaultServerStarter{}
}

// DefaultServerStarter is the default implementation of ServerStarter
type DefaultServerStarter struct{}

// StartServer starts the API server with the given configuration
func (s *DefaultServerStarter) StartServer(ctx context.Context, service *SnapshotService, config ServerConfig, metrics *Metrics, logger zerolog.Logger) error {
	return StartServer(ctx, service, config, metrics, logger)
}
