package cache

import (
	"sync"

	"github.com/m-mizutani/cupnotifier/pkg/domain/interfaces"
	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
)

// memory is a process-local set of identity keys. It grows for the life of
// the process and is never persisted or pruned.
type memory struct {
	mu   sync.Mutex
	keys map[model.IdentityKey]struct{}
}

// NewMemory creates an empty in-memory DedupCache
func NewMemory() interfaces.DedupCache {
	return &memory{
		keys: make(map[model.IdentityKey]struct{}),
	}
}

func (c *memory) Contains(key model.IdentityKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.keys[key]
	return ok
}

// InsertAll adds all keys at once. Keys already present are ignored.
func (c *memory) InsertAll(keys []model.IdentityKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		c.keys[key] = struct{}{}
	}
}

func (c *memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}
