package ticket

import (
	"strconv"
	"sync"
	"testing"
)

func TestIDGenerator_Monotonic(t *testing.T) {
	g := NewIDGenerator()

	prev := int64(0)
	for i := 0; i < 1000; i++ {
		id := g.Next()
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			t.Fatalf("Next() = %q, not a decimal integer: %v", id, err)
		}
		if n <= prev {
			t.Fatalf("Next() = %d, not greater than previous %d", n, prev)
		}
		prev = n
	}
}

func TestIDGenerator_ConcurrentUnique(t *testing.T) {
	g := NewIDGenerator()

	const goroutines = 10
	const perGoroutine = 100

	var mu sync.Mutex
	seen := make(map[string]bool)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				id := g.Next()
				mu.Lock()
				if seen[id] {
					t.Errorf("duplicate id %q", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*perGoroutine {
		t.Errorf("unique ids = %d, want %d", len(seen), goroutines*perGoroutine)
	}
}
