package queue_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/yigit/alumnitrack/internal/pkg/queue"
)

// setupRedis starts a Redis container and returns a connected client
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "docker.io/redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	addr, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("container endpoint: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func waitForLen(t *testing.T, client *redis.Client, key string, want int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		n, err := client.LLen(context.Background(), key).Result()
		if err != nil {
			t.Fatalf("LLen: %v", err)
		}
		if n == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("list %s has length %d, want %d", key, n, want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRedisQueueRequeuesUndeliveredMessageOnShutdown(t *testing.T) {
	client := setupRedis(t)
	const key = "alumnitrack:audit:test"
	q := queue.NewRedisQueue(client, key)

	bg := context.Background()
	for _, id := range []int64{1, 2} {
		msg, err := queue.NewMessage("audit", payload{Action: "ARCHIVE_ALUMNI", ID: id})
		if err != nil {
			t.Fatalf("NewMessage: %v", err)
		}
		if err := q.Publish(bg, msg); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(bg)
	out, err := q.Consume(ctx)
	if err != nil {
		cancel()
		t.Fatalf("Consume: %v", err)
	}

	var first payload
	select {
	case msg := <-out:
		if err := msg.Decode(&first); err != nil {
			t.Fatalf("Decode: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for the first message")
	}
	if first.ID != 1 {
		t.Fatalf("expected message 1 first, got %+v", first)
	}

	// the consumer pops message 2 and blocks on delivery since nothing reads out
	waitForLen(t, client, key, 0)
	cancel()
	waitForLen(t, client, key, 1)
	if _, ok := <-out; ok {
		t.Fatalf("expected the consumer channel to close without delivering")
	}

	ctx2, cancel2 := context.WithCancel(bg)
	defer cancel2()
	out2, err := q.Consume(ctx2)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	select {
	case msg := <-out2:
		var second payload
		if err := msg.Decode(&second); err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if second.ID != 2 {
			t.Fatalf("expected message 2 after requeue, got %+v", second)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for the requeued message")
	}
}
