package repository

// QueueRepository defines the interface for queue/cache introspection used
// by the ops surface
type QueueRepository interface {
	GetListLength(key string) (int64, error)
	GetHashCounts(key string) (map[string]int64, error)
	GetKeyCount(pattern string) (int64, error)
}

// Repositories groups all repository instances
type Repositories struct {
	Queue QueueRepository
}

// NewRepositories creates all repository instances
func NewRepositories() *Repositories {
	return &Repositories{
		Queue: NewQueueRepository(),
	}
}
