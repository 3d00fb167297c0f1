package fawkes

import "testing"

func TestIOPoolRejectsZeroSize(t *testing.T) {
	if recv := catchPanic(func() { NewIOPool(0) }); recv == nil {
		t.Error("NewIOPool(0) should panic")
	}
	if recv := catchPanic(func() { NewIOPool(-1) }); recv == nil {
		t.Error("NewIOPool(-1) should panic")
	}
}

func TestIOPoolSize(t *testing.T) {
	pool := NewIOPool(4)
	if pool.Size() != 4 {
		t.Errorf("Size() = %d, want 4", pool.Size())
	}
}

func TestIOPoolRoundRobin(t *testing.T) {
	pool := NewIOPool(4)

	var picked []*executor
	for i := 0; i < pool.Size(); i++ {
		picked = append(picked, pool.pick())
	}

	seen := make(map[*executor]struct{})
	for _, e := range picked {
		seen[e] = struct{}{}
	}
	if len(seen) != pool.Size() {
		t.Errorf("first %d picks hit %d distinct executors", pool.Size(), len(seen))
	}

	// The next pick wraps around to the first executor again.
	if next := pool.pick(); next != picked[0] {
		t.Error("round-robin should wrap to the first executor")
	}
}

func TestIOPoolJoinWithoutWork(t *testing.T) {
	pool := NewIOPool(2)
	// Must not block when no connection was ever handed over.
	pool.Join()
}
