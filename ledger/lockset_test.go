package ledger

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockSet_Exclusion(t *testing.T) {
	l := NewLockSet()
	page := testAddress(1)

	var inside atomic.Int32
	var maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// each worker also locks a private address, in varying order
			release := l.Acquire([]Address{testAddress(byte(100 + i)), page, page})
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			inside.Add(-1)
			release()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, l.Held(), "released locks must be dropped")
}

func TestLockSet_DisjointDoNotBlock(t *testing.T) {
	l := NewLockSet()
	releaseA := l.Acquire([]Address{testAddress(1)})
	done := make(chan struct{})
	go func() {
		releaseB := l.Acquire([]Address{testAddress(2)})
		releaseB()
		close(done)
	}()
	<-done
	require.Equal(t, 1, l.Held())
	releaseA()
	require.Equal(t, 0, l.Held())
}
