package runtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyedMutex_Serializes_Same_Key(t *testing.T) {
	req := require.New(t)
	locks := NewKeyedMutex()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("pair:1:2")
			defer unlock()
			current := counter
			time.Sleep(time.Microsecond)
			counter = current + 1
		}()
	}
	wg.Wait()

	req.Equal(50, counter)
	req.Zero(locks.Len())
}

func TestKeyedMutex_Different_Keys_Do_Not_Block(t *testing.T) {
	req := require.New(t)
	locks := NewKeyedMutex()

	unlockA := locks.Lock("a")
	defer unlockA()

	acquired := make(chan struct{})
	go func() {
		unlock := locks.Lock("b")
		unlock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		req.Fail("lock on another key should not wait")
	}
}

func TestKeyedMutex_Unlock_Twice_Is_Harmless(t *testing.T) {
	req := require.New(t)
	locks := NewKeyedMutex()

	unlock := locks.Lock("a")
	unlock()
	unlock()
	req.Zero(locks.Len())
}
