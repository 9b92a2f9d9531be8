package chat

import (
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"minichat/internal/frame"
)

func TestRegister(t *testing.T) {
	pool := NewUserPool()

	if _, ok := pool.Register("bob", nil); !ok {
		t.Fatal("registering a free handle failed")
	}
	if !pool.Contains("bob") {
		t.Error("pool does not contain bob after registration")
	}
	if pool.Contains("tom") {
		t.Error("pool contains a handle that was never registered")
	}
}

func TestRegisterTakenHandle(t *testing.T) {
	pool := NewUserPool()

	bob, ok := pool.Register("bob", nil)
	if !ok {
		t.Fatal("registering a free handle failed")
	}

	if _, ok := pool.Register("bob", nil); ok {
		t.Error("registering a taken handle succeeded")
	}

	bob.Release()

	if _, ok := pool.Register("bob", nil); !ok {
		t.Error("registering a released handle failed")
	}
}

func TestReleaseRemovesEntry(t *testing.T) {
	pool := NewUserPool()

	bob, _ := pool.Register("bob", nil)
	bob.Release()

	if pool.Contains("bob") {
		t.Error("pool still contains bob after release")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	pool := NewUserPool()

	var calls atomic.Int32
	bob, _ := pool.Register("bob", func(string, *UserPool) {
		calls.Add(1)
	})

	bob.Release()
	bob.Release()
	bob.Release()

	if got := calls.Load(); got != 1 {
		t.Errorf("release callback ran %d times, want 1", got)
	}
}

func TestReleaseCallbackRunsAfterRemoval(t *testing.T) {
	pool := NewUserPool()

	sawSelf := true
	bob, _ := pool.Register("bob", func(handle string, p *UserPool) {
		sawSelf = p.Contains(handle)
	})
	bob.Release()

	if sawSelf {
		t.Error("release callback observed the entry still present")
	}
}

func TestConcurrentRegisterSingleWinner(t *testing.T) {
	pool := NewUserPool()

	const racers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := pool.Register("bob", nil); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Errorf("%d racers won the handle, want exactly 1", got)
	}
}

func TestHandlesSnapshot(t *testing.T) {
	pool := NewUserPool()

	for _, h := range []string{"dudeson", "anne", "bob"} {
		if _, ok := pool.Register(h, nil); !ok {
			t.Fatalf("registering %q failed", h)
		}
	}

	got := pool.Handles()
	want := []string{"anne", "bob", "dudeson"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Handles() = %v, want %v", got, want)
	}
}

// A caller inspecting a snapshot must never hold up concurrent removals, even
// of handles it is still looking at.
func TestSnapshotDoesNotBlockRemoval(t *testing.T) {
	pool := NewUserPool()

	pool.Register("anne", nil)
	pool.Register("bob", nil)
	dudeson, _ := pool.Register("dudeson", nil)

	handles := pool.Handles()

	done := make(chan struct{})
	go func() {
		dudeson.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("removal blocked while a snapshot was held")
	}

	if len(handles) != 3 {
		t.Errorf("snapshot has %d handles, want 3", len(handles))
	}
	if pool.Contains("dudeson") {
		t.Error("dudeson still registered after release")
	}
}

func TestBroadcast(t *testing.T) {
	pool := NewUserPool()

	anne, _ := pool.Register("anne", nil)
	bob, _ := pool.Register("bob", nil)

	f := frame.Broadcast{Sender: "system", Text: "hi"}
	pool.Broadcast(f)

	stop := make(chan struct{})
	for _, g := range []*UserGuard{anne, bob} {
		got, ok := g.Queue().Next(stop)
		if !ok {
			t.Fatalf("%s's queue was empty after broadcast", g.Handle())
		}
		if !reflect.DeepEqual(got, frame.Server(f)) {
			t.Errorf("%s received %#v, want %#v", g.Handle(), got, f)
		}
	}
}

func TestBroadcastExcept(t *testing.T) {
	pool := NewUserPool()

	anne, _ := pool.Register("anne", nil)
	bob, _ := pool.Register("bob", nil)

	f := frame.Broadcast{Sender: "system", Text: "hi"}
	pool.BroadcastExcept("bob", f)

	stop := make(chan struct{})
	got, ok := anne.Queue().Next(stop)
	if !ok || !reflect.DeepEqual(got, frame.Server(f)) {
		t.Errorf("anne received %#v (ok=%v), want %#v", got, ok, f)
	}

	closedStop := make(chan struct{})
	close(closedStop)
	if skipped, ok := bob.Queue().Next(closedStop); ok {
		t.Errorf("bob received %#v from a broadcast that excluded him", skipped)
	}
}

func TestBroadcastPreservesPerQueueOrder(t *testing.T) {
	pool := NewUserPool()

	anne, _ := pool.Register("anne", nil)
	bob, _ := pool.Register("bob", nil)

	first := frame.Broadcast{Sender: "system", Text: "first"}
	second := frame.Broadcast{Sender: "system", Text: "second"}
	pool.Broadcast(first)
	pool.Broadcast(second)

	stop := make(chan struct{})
	for _, g := range []*UserGuard{anne, bob} {
		for _, want := range []frame.Server{first, second} {
			got, ok := g.Queue().Next(stop)
			if !ok {
				t.Fatalf("%s's queue ran dry", g.Handle())
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("%s received %#v, want %#v", g.Handle(), got, want)
			}
		}
	}
}

func TestBroadcastToReleasedQueueIsSwallowed(t *testing.T) {
	pool := NewUserPool()

	anne, _ := pool.Register("anne", nil)
	queue := anne.Queue()
	anne.Release()

	// Producers that grabbed the queue before release just lose the frame.
	queue.Push(frame.Broadcast{Sender: "system", Text: "hi"})

	closedStop := make(chan struct{})
	close(closedStop)
	if f, ok := queue.Next(closedStop); ok {
		t.Errorf("released queue delivered %#v", f)
	}
}

func TestGuardSendReachesOwnQueue(t *testing.T) {
	pool := NewUserPool()

	anne, _ := pool.Register("anne", nil)
	anne.Send(frame.Okay{ID: 42})

	stop := make(chan struct{})
	got, ok := anne.Queue().Next(stop)
	if !ok || got != (frame.Okay{ID: 42}) {
		t.Errorf("anne's queue delivered %#v (ok=%v), want Okay{42}", got, ok)
	}
}
