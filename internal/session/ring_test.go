package session

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/fraud-watch/monitor/internal/feed"
)

func txs(prefix string, n int) []feed.Transaction {
	out := make([]feed.Transaction, n)
	for i := range out {
		out[i] = feed.Transaction{ID: fmt.Sprintf("%s-%d", prefix, i), Type: feed.OutcomeLegitimate}
	}
	return out
}

func ids(items []feed.Transaction) []string {
	out := make([]string, len(items))
	for i, tx := range items {
		out[i] = tx.ID
	}
	return out
}

func TestRingPushPrependsBatchInOrder(t *testing.T) {
	r := NewRing[feed.Transaction](Capacity)
	r.Push(txs("a", 2))
	r.Push(txs("b", 2))

	got := ids(r.Snapshot())
	want := []string{"b-0", "b-1", "a-0", "a-1"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

func TestRingOverflowDropsOldest(t *testing.T) {
	r := NewRing[feed.Transaction](Capacity)
	old := txs("old", 48)
	r.Push(old)
	r.Push(txs("new", 5))

	got := r.Snapshot()
	if len(got) != 50 {
		t.Fatalf("len = %d, want 50", len(got))
	}
	for i := 0; i < 5; i++ {
		if want := fmt.Sprintf("new-%d", i); got[i].ID != want {
			t.Errorf("got[%d] = %s, want %s", i, got[i].ID, want)
		}
	}
	// The three oldest original records (the tail) are gone.
	if got[49].ID != "old-44" {
		t.Errorf("last = %s, want old-44", got[49].ID)
	}
	for _, tx := range got {
		switch tx.ID {
		case "old-45", "old-46", "old-47":
			t.Errorf("%s should have been dropped", tx.ID)
		}
	}
}

func TestRingBatchLargerThanCapacity(t *testing.T) {
	r := NewRing[feed.Transaction](Capacity)
	r.Push(txs("old", 10))
	r.Push(txs("big", 70))

	got := r.Snapshot()
	if len(got) != Capacity {
		t.Fatalf("len = %d, want %d", len(got), Capacity)
	}
	if got[0].ID != "big-0" || got[49].ID != "big-49" {
		t.Errorf("got first=%s last=%s, want big-0 .. big-49", got[0].ID, got[49].ID)
	}
}

func TestRingEmptyPushIsNoop(t *testing.T) {
	r := NewRing[feed.Transaction](Capacity)
	r.Push(txs("a", 3))
	r.Push(nil)
	r.Push([]feed.Transaction{})
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}

func TestRingClear(t *testing.T) {
	r := NewRing[feed.Transaction](Capacity)
	r.Push(txs("a", 5))
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", r.Len())
	}
	if len(r.Snapshot()) != 0 {
		t.Error("Snapshot() should be empty after Clear")
	}
}

func TestRingSnapshotIsACopy(t *testing.T) {
	r := NewRing[feed.Transaction](Capacity)
	r.Push(txs("a", 2))
	snap := r.Snapshot()
	snap[0].ID = "mutated"
	if r.Snapshot()[0].ID != "a-0" {
		t.Error("mutating a snapshot changed the ring")
	}
}

func TestRingBoundHoldsForRandomPushes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	r := NewRing[int](Capacity)
	var model []int
	next := 0

	for i := 0; i < 500; i++ {
		batch := make([]int, rng.Intn(30))
		for j := range batch {
			batch[j] = next
			next++
		}
		r.Push(batch)

		model = append(append([]int{}, batch...), model...)
		if len(model) > Capacity {
			model = model[:Capacity]
		}

		if r.Len() > Capacity {
			t.Fatalf("push %d: Len() = %d exceeds capacity", i, r.Len())
		}
		if fmt.Sprint(r.Snapshot()) != fmt.Sprint(model) {
			t.Fatalf("push %d: contents diverged from model", i)
		}
	}
}

func TestNewRingRejectsZeroCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero capacity")
		}
	}()
	NewRing[int](0)
}
