// Package di provides the dependency injection container used by the CLI
package di

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ssargent/caerevents/pkg/api"
	"github.com/ssargent/caerevents/pkg/metrics"
	"github.com/ssargent/caerevents/pkg/storage"
)

// StoreFactory opens packet archives
type StoreFactory interface {
	OpenStore(dataDir string, opts ...storage.Option) (*storage.PacketStore, error)
}

// ServerStarter runs the API server until ctx is cancelled
type ServerStarter interface {
	StartServer(ctx context.Context, store api.PacketStore, config api.ServerConfig, reg *prometheus.Registry, logger *zap.Logger) error
}

// Container holds all the dependencies for the application
type Container struct {
	storeFactory  StoreFactory
	serverStarter ServerStarter
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		storeFactory:  DefaultStoreFactory{},
		serverStarter: DefaultServerStarter{},
	}
}

// GetStoreFactory returns the store factory
func (c *Container) GetStoreFactory() StoreFactory {
	return c.storeFactory
}

// GetServerStarter returns the server starter
func (c *Container) GetServerStarter() ServerStarter {
	return c.serverStarter
}

// SetStoreFactory allows overriding the store factory (for testing)
func (c *Container) SetStoreFactory(factory StoreFactory) {
	c.storeFactory = factory
}

// SetServerStarter allows overriding the server starter (for testing)
func (c *Container) SetServerStarter(starter ServerStarter) {
	c.serverStarter = starter
}

// DefaultStoreFactory opens pebble archives on disk
type DefaultStoreFactory struct{}

// OpenStore opens the archive under dataDir
func (DefaultStoreFactory) OpenStore(dataDir string, opts ...storage.Option) (*storage.PacketStore, error) {
	return storage.Open(dataDir, opts...)
}

// DefaultServerStarter serves the archive API over HTTP
type DefaultServerStarter struct{}

// StartServer creates the server with metrics registered in reg and blocks
// until ctx is cancelled
func (DefaultServerStarter) StartServer(
	ctx context.Context,
	store api.PacketStore,
	config api.ServerConfig,
	reg *prometheus.Registry,
	logger *zap.Logger,
) error {
	server := api.NewServer(store, config, metrics.New(reg), logger, api.WithGatherer(reg))
	return server.ListenAndServe(ctx)
}
