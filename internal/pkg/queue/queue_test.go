package queue_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/yigit/alumnitrack/internal/pkg/queue"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	if os.Getenv("TEST_INTEGRATION") != "" {
		// goleak is skipped while containers run
		os.Exit(m.Run())
	}
	goleak.VerifyTestMain(m)
}

type payload struct {
	Action string `json:"action"`
	ID     int64  `json:"id"`
}

func TestInMemoryPublishConsume(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := queue.NewInMemory(4)
	msg, err := queue.NewMessage("audit", payload{Action: "ARCHIVE_ALUMNI", ID: 7})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}
	if err := q.Publish(ctx, msg); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	out, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}

	select {
	case got := <-out:
		var p payload
		if err := got.Decode(&p); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got.Type != "audit" || p.Action != "ARCHIVE_ALUMNI" || p.ID != 7 {
			t.Fatalf("unexpected message %+v / %+v", got, p)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	cancel()
	for range out {
	}
}

func TestInMemoryPublishFullBuffer(t *testing.T) {
	q := queue.NewInMemory(1)
	ctx := context.Background()

	if err := q.Publish(ctx, queue.Message{Type: "a"}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := q.Publish(ctx, queue.Message{Type: "b"}); !errors.Is(err, queue.ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 buffered message, got %d", q.Len())
	}
}

func TestInMemoryPublishCanceledContext(t *testing.T) {
	q := queue.NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Publish(ctx, queue.Message{Type: "a"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryConsumeStopsOnCancel(t *testing.T) {
	q := queue.NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	out, err := q.Consume(ctx)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
