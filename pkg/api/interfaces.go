// Package api provides interfaces for dependency injection
package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ssargent/famblob/pkg/storage"
)

// StorageFactory opens the snapshot store
type StorageFactory interface {
	// OpenStorage opens (creating if needed) the store at path
	OpenStorage(path string, opts storage.Options) (SnapshotStore, error)
}

// ServerStarter defines the interface for starting the API server
type ServerStarter interface {
	// StartServer serves the API until ctx is cancelled
	StartServer(ctx context.Context, service *SnapshotService, config ServerConfig, metrics *Metrics, logger zerolog.Logger) error
}

// ServerFactory creates server instances
type ServerFactory interface {
	// CreateServerStarter creates a server starter
	CreateServerStarter() ServerStarter
}
