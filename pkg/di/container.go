// Package di provides dependency injection container
package di

import (
	"github.com/ssargent/fitedit/pkg/editor" //nolint:depguard
	"github.com/ssargent/fitedit/pkg/metrics"
)

// Container holds all the dependencies for the application
type Container struct {
	serviceFactory editor.ServiceFactory
	metrics        *metrics.Metrics
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		serviceFactory: editor.NewServiceFactory(),
		metrics:        metrics.New(),
	}
}

// GetServiceFactory returns the editor service factory
func (c *Container) GetServiceFactory() editor.ServiceFactory {
	return c.serviceFactory
}

// SetServiceFactory allows overriding the editor service factory (for testing)
func (c *Container) SetServiceFactory(factory editor.ServiceFactory) {
	c.serviceFactory = factory
}

// GetMetrics returns the shared metrics
func (c *Container) GetMetrics() *metrics.Metrics {
	return c.metrics
}
