package repository

import (
	"sync"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory() *Factory {
	return &Factory{}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories()
	})
	return f.repos
}

// GetQueueRepository returns the queue repository instance
func (f *Factory) GetQueueRepository() QueueRepository {
	return f.GetRepositories().Queue
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory() {
	factoryOnce.Do(func() {
		globalFactory = NewFactory()
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}
