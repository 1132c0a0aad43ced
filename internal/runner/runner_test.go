package runner

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/bibkit/pica/internal/types"
)

func TestPool_DeclarationOrder(t *testing.T) {
	// Later rules finish first; the result order must not change.
	rules := []int{0, 1, 2, 3, 4, 5, 6, 7}
	pool := New(4, rules, func(r int, _ types.Record) string {
		time.Sleep(time.Duration(len(rules)-r) * time.Millisecond)
		return fmt.Sprintf("rule-%d", r)
	})

	got := pool.Evaluate(types.Record{})
	want := []string{
		"rule-0", "rule-1", "rule-2", "rule-3",
		"rule-4", "rule-5", "rule-6", "rule-7",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Evaluate = %v, want %v", got, want)
	}
}

func TestPool_BoundedWorkers(t *testing.T) {
	var mu sync.Mutex
	active, peak := 0, 0

	rules := make([]int, 32)
	pool := New(3, rules, func(_ int, _ types.Record) struct{} {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return struct{}{}
	})

	pool.Evaluate(types.Record{})
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
}

func TestPool_NoRules(t *testing.T) {
	pool := New(0, nil, func(_ int, _ types.Record) int { return 0 })
	if got := pool.Evaluate(types.Record{}); len(got) != 0 {
		t.Errorf("Evaluate = %v, want empty", got)
	}
}

func TestSeen(t *testing.T) {
	seen := NewSeen()
	if !seen.Add([]byte("a")) {
		t.Error("first add of a: want true")
	}
	if seen.Add([]byte("a")) {
		t.Error("second add of a: want false")
	}
	if !seen.Add([]byte("b")) {
		t.Error("first add of b: want true")
	}
	if got := seen.Len(); got != 2 {
		t.Errorf("Len = %d, want 2", got)
	}
}

func TestSeen_CopiesKey(t *testing.T) {
	seen := NewSeen()
	buf := []byte("key")
	seen.Add(buf)
	copy(buf, "xyz")
	if seen.Add([]byte("key")) {
		t.Error("key must stay recorded after the caller's buffer is reused")
	}
}

func TestSeen_Concurrent(t *testing.T) {
	seen := NewSeen()
	firsts := make(chan bool, 64)
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			firsts <- seen.Add([]byte("shared"))
		}()
	}
	wg.Wait()
	close(firsts)

	n := 0
	for first := range firsts {
		if first {
			n++
		}
	}
	if n != 1 {
		t.Errorf("got %d first sightings, want exactly 1", n)
	}
	if seen.Len() != 1 {
		t.Errorf("Len = %d, want 1", seen.Len())
	}
}
