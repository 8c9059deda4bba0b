package balance

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockTableOppositeOrder(t *testing.T) {
	locks := newLockTable()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		ids := []string{"a", "b"}
		if i%2 == 1 {
			ids = []string{"b", "a"}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.acquire(ids)
			counter++
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
	assert.Zero(t, locks.size())
}

func TestLockTableDuplicateIDs(t *testing.T) {
	locks := newLockTable()
	release := locks.acquire([]string{"a", "a"})
	assert.Equal(t, 1, locks.size())
	release()
	assert.Zero(t, locks.size())
}
