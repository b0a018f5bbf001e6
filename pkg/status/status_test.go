package status

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNewUpdate(t *testing.T) {
	before := time.Now()
	update := NewUpdate(LevelProgress, "Receiving objects")
	after := time.Now()

	if update.Level != LevelProgress {
		t.Errorf("Level = %v, want %v", update.Level, LevelProgress)
	}
	if update.Message != "Receiving objects" {
		t.Errorf("Message = %q, want %q", update.Message, "Receiving objects")
	}
	if update.Timestamp.Before(before) || update.Timestamp.After(after) {
		t.Errorf("Timestamp %v is not between %v and %v", update.Timestamp, before, after)
	}
}

func TestUpdateBuilders(t *testing.T) {
	update := NewUpdate(LevelProgress, "clone").
		WithRepository("/repos/demo").
		WithOperation("clone").
		WithCancellable(true).
		WithMetadata("remote", "https://example.com/demo.git")

	if update.Repository != "/repos/demo" {
		t.Errorf("Repository = %q, want %q", update.Repository, "/repos/demo")
	}
	if update.Operation != "clone" {
		t.Errorf("Operation = %q, want %q", update.Operation, "clone")
	}
	if !update.Cancellable {
		t.Error("Cancellable = false, want true")
	}
	if update.Metadata["remote"] != "https://example.com/demo.git" {
		t.Errorf("Metadata[remote] = %v, want remote url", update.Metadata["remote"])
	}

	base := NewUpdate(LevelInfo, "base")
	_ = base.WithMetadata("k", "v")
	if base.Metadata != nil {
		t.Error("WithMetadata modified the receiver")
	}
}

func TestSend(t *testing.T) {
	t.Run("no channel", func(t *testing.T) {
		Send(context.Background(), NewUpdate(LevelInfo, "dropped"))
	})

	t.Run("sets missing timestamp", func(t *testing.T) {
		ch := make(chan Update, 1)
		Send(WithChannel(context.Background(), ch), Update{Level: LevelInfo, Message: "m"})
		got := <-ch
		if got.Timestamp.IsZero() {
			t.Error("Timestamp not set")
		}
	})

	t.Run("keeps existing timestamp", func(t *testing.T) {
		ch := make(chan Update, 1)
		stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		Send(WithChannel(context.Background(), ch), Update{Level: LevelInfo, Timestamp: stamp})
		if got := <-ch; !got.Timestamp.Equal(stamp) {
			t.Errorf("Timestamp = %v, want %v", got.Timestamp, stamp)
		}
	})

	t.Run("full channel does not block", func(t *testing.T) {
		ch := make(chan Update, 1)
		ctx := WithChannel(context.Background(), ch)
		Send(ctx, NewUpdate(LevelInfo, "first"))

		done := make(chan struct{})
		go func() {
			Send(ctx, NewUpdate(LevelInfo, "second"))
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Send() blocked on full channel")
		}
		if got := <-ch; got.Message != "first" {
			t.Errorf("Message = %q, want %q", got.Message, "first")
		}
	})
}

func TestStartHandlerDrainsOnCleanup(t *testing.T) {
	var mu sync.Mutex
	var got []string

	ctx, cleanup := StartHandler(context.Background(), func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, u.Message)
	})

	for _, m := range []string{"a", "b", "c"} {
		Send(ctx, NewUpdate(LevelInfo, m))
	}
	cleanup()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Errorf("handled %v, want 3 updates", got)
	}
}

func TestStartHandlerWithOptionsFlushTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	ctx, cleanup := StartHandlerWithOptions(context.Background(), func(Update) { <-block }, 1, 20*time.Millisecond)
	Send(ctx, NewUpdate(LevelInfo, "stuck"))

	start := time.Now()
	cleanup()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cleanup() took %v, want it bounded by the flush timeout", elapsed)
	}
}
