package shutdown

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestWithSignalsCancelsOnSIGTERM(t *testing.T) {
	ctx, cancel := WithSignals(context.Background())
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after SIGTERM")
	}
}

func TestGraceful(t *testing.T) {
	t.Run("stop finishes", func(t *testing.T) {
		ok := Graceful(time.Second, func(ctx context.Context) {})
		if !ok {
			t.Fatal("expected graceful stop")
		}
	})

	t.Run("stop hangs", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		ok := Graceful(20*time.Millisecond, func(ctx context.Context) { <-release })
		if ok {
			t.Fatal("expected timeout")
		}
	})
}
