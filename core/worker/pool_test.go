package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsJobs(t *testing.T) {
	p := New(Options{Workers: 2, QueueSize: 8})
	var n atomic.Int32
	for i := 0; i < 5; i++ {
		p.Submit(context.Background(), "count", func(context.Context) error {
			n.Add(1)
			return nil
		})
	}
	p.Close()
	if got := n.Load(); got != 5 {
		t.Fatalf("ran %d jobs, want 5", got)
	}
}

func TestPoolJobTimeout(t *testing.T) {
	p := New(Options{Workers: 1, QueueSize: 1, JobTimeout: 20 * time.Millisecond})
	done := make(chan error, 1)
	p.Submit(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		done <- ctx.Err()
		return ctx.Err()
	})
	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("err = %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job deadline not applied")
	}
	p.Close()
	if p.Failures() != 1 {
		t.Fatalf("failures = %d, want 1", p.Failures())
	}
}

func TestPoolDetachesCallerCancellation(t *testing.T) {
	p := New(Options{Workers: 1, QueueSize: 1})
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	got := make(chan error, 1)
	p.Submit(ctx, "detached", func(jobCtx context.Context) error {
		<-release
		got <- jobCtx.Err()
		return nil
	})
	cancel()
	close(release)
	if err := <-got; err != nil {
		t.Fatalf("job ctx cancelled with caller: %v", err)
	}
	p.Close()
}

func TestSubmitRunsInlineWhenFull(t *testing.T) {
	var inline atomic.Int32
	p := New(Options{Workers: 1, QueueSize: 1, OnInline: func() { inline.Add(1) }})

	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(context.Background(), "blocker", func(context.Context) error {
		close(started)
		<-block
		return nil
	})
	<-started
	p.Submit(context.Background(), "queued", func(context.Context) error { return nil })

	if err := p.TrySubmit(context.Background(), "rejected", func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("TrySubmit err = %v, want ErrQueueFull", err)
	}

	ran := false
	p.Submit(context.Background(), "overflow", func(context.Context) error {
		ran = true
		return nil
	})
	if !ran {
		t.Fatal("overflow job must run inline before Submit returns")
	}
	if inline.Load() != 1 {
		t.Fatalf("inline = %d, want 1", inline.Load())
	}
	close(block)
	p.Close()
}

func TestSubmitAfterClose(t *testing.T) {
	p := New(Options{Workers: 1})
	p.Close()
	if err := p.TrySubmit(context.Background(), "late", func(context.Context) error { return nil }); !errors.Is(err, ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
	var wg sync.WaitGroup
	wg.Add(1)
	p.Submit(context.Background(), "late", func(context.Context) error {
		wg.Done()
		return nil
	})
	wg.Wait()
}

func TestPoolRecoversPanics(t *testing.T) {
	p := New(Options{Workers: 1})
	p.Submit(context.Background(), "panic", func(context.Context) error { panic("boom") })
	p.Close()
	if p.Failures() != 1 {
		t.Fatalf("failures = %d, want 1", p.Failures())
	}
}
