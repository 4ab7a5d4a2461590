/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/ssargent/famblob/pkg/api"
	"github.com/ssargent/famblob/pkg/config"
	"github.com/ssargent/famblob/pkg/device"
	"github.com/ssargent/famblob/pkg/storage"
)

// openService opens the snapshot store under the data directory and wraps
// it in a SnapshotService. The caller closes the returned store.
func openService(cfg *config.Config, metrics *api.Metrics) (*api.SnapshotService, api.SnapshotStore, error) {
	c, err := requireContainer()
	if err != nil {
		return nil, nil, err
	}

	store, err := c.GetStorageFactory().OpenStorage(cfg.StoragePath(), storage.Options{
		CacheSize: cfg.Storage.CacheSize,
	})
	if err != nil {
		return nil, nil, err
	}

	service := api.NewSnapshotService(store, newCodec(cfg), device.DefaultVersionMap(),
		cfg.Snapshot.AppVersion, metrics)
	return service, store, nil
}
