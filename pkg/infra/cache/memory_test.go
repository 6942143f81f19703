package cache_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/m-mizutani/cupnotifier/pkg/domain/model"
	"github.com/m-mizutani/cupnotifier/pkg/infra/cache"
	"github.com/m-mizutani/gt"
)

func TestMemory_InsertAll(t *testing.T) {
	c := cache.NewMemory()
	key := model.IdentityKey{Identity: "repo/app", NewValue: "1.1.0"}

	gt.Value(t, c.Contains(key)).Equal(false)
	gt.Number(t, c.Len()).Equal(0)

	c.InsertAll([]model.IdentityKey{key})
	gt.Value(t, c.Contains(key)).Equal(true)
	gt.Number(t, c.Len()).Equal(1)

	t.Run("Insert is idempotent", func(t *testing.T) {
		c.InsertAll([]model.IdentityKey{key, key})
		gt.Number(t, c.Len()).Equal(1)
	})

	t.Run("Different new value is a different key", func(t *testing.T) {
		other := model.IdentityKey{Identity: "repo/app", NewValue: "1.2.0"}
		gt.Value(t, c.Contains(other)).Equal(false)
	})

	t.Run("Empty insert is a no-op", func(t *testing.T) {
		c.InsertAll(nil)
		gt.Number(t, c.Len()).Equal(1)
	})
}

func TestMemory_Concurrent(t *testing.T) {
	c := cache.NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := model.IdentityKey{Identity: fmt.Sprintf("repo/app%d", i%4), NewValue: "1.0.0"}
			c.InsertAll([]model.IdentityKey{key})
			_ = c.Contains(key)
		}(i)
	}
	wg.Wait()

	gt.Number(t, c.Len()).Equal(4)
}
