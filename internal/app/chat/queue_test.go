package chat

import (
	"reflect"
	"testing"
	"time"

	"minichat/internal/frame"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue()

	q.Push(frame.Okay{ID: 1})
	q.Push(frame.Broadcast{Sender: "bob", Text: "hi"})
	q.Push(frame.Okay{ID: 2})

	want := []frame.Server{
		frame.Okay{ID: 1},
		frame.Broadcast{Sender: "bob", Text: "hi"},
		frame.Okay{ID: 2},
	}

	stop := make(chan struct{})
	for i, w := range want {
		got, ok := q.Next(stop)
		if !ok {
			t.Fatalf("Next returned done after %d frames, want %d", i, len(want))
		}
		if !reflect.DeepEqual(got, w) {
			t.Errorf("frame %d = %#v, want %#v", i, got, w)
		}
	}
}

func TestQueuePushAfterCloseIsNoop(t *testing.T) {
	q := NewQueue()
	q.Close()
	q.Push(frame.Okay{ID: 1})

	stop := make(chan struct{})
	if _, ok := q.Next(stop); ok {
		t.Error("Next returned a frame from a closed queue")
	}
}

func TestQueueCloseWakesConsumer(t *testing.T) {
	q := NewQueue()

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Next(make(chan struct{}))
		done <- ok
	}()

	// Give the consumer a moment to block.
	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Next reported a frame after Close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer still blocked after Close")
	}
}

func TestQueueStopCancelsWait(t *testing.T) {
	q := NewQueue()
	stop := make(chan struct{})

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Next(stop)
		done <- ok
	}()

	close(stop)

	select {
	case ok := <-done:
		if ok {
			t.Error("Next reported a frame after stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("consumer still blocked after stop")
	}
}

func TestQueueDrainsBufferedFramesAfterStop(t *testing.T) {
	q := NewQueue()
	q.Push(frame.Okay{ID: 1})
	q.Push(frame.Okay{ID: 2})

	stop := make(chan struct{})
	close(stop)

	for i := byte(1); i <= 2; i++ {
		got, ok := q.Next(stop)
		if !ok {
			t.Fatalf("Next returned done before draining frame %d", i)
		}
		if got != (frame.Okay{ID: i}) {
			t.Errorf("drained %#v, want Okay{%d}", got, i)
		}
	}

	if _, ok := q.Next(stop); ok {
		t.Error("Next returned a frame from an empty stopped queue")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue()

	const producers = 8
	const perProducer = 100

	for p := 0; p < producers; p++ {
		go func(p int) {
			for i := 0; i < perProducer; i++ {
				q.Push(frame.Broadcast{Sender: "p", Text: "x"})
			}
		}(p)
	}

	stop := make(chan struct{})
	defer close(stop)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < producers*perProducer; i++ {
			if _, ok := q.Next(stop); !ok {
				t.Errorf("queue reported done after %d of %d frames", i, producers*perProducer)
				return
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not receive every pushed frame")
	}
}
