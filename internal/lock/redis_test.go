package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLock(t *testing.T) *ScopeLock {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewScopeLockWithClient(client, time.Minute)
}

func TestWithLockRuns(t *testing.T) {
	l := newTestLock(t)
	ran := false
	err := l.WithLock(context.Background(), "Scrum", func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("fn did not run")
	}
}

func TestWithLockPropagatesError(t *testing.T) {
	l := newTestLock(t)
	boom := errors.New("boom")
	err := l.WithLock(context.Background(), "Scrum", func(context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
}

func TestWithLockReleasesAfterError(t *testing.T) {
	l := newTestLock(t)
	_ = l.WithLock(context.Background(), "Scrum", func(context.Context) error {
		return errors.New("boom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.WithLock(ctx, "Scrum", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("lock not released after error: %v", err)
	}
}

func TestWithLockSerializesSameScope(t *testing.T) {
	l := newTestLock(t)

	var mu sync.Mutex
	var active, maxActive int

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), "Scrum", func(context.Context) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				time.Sleep(20 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("lock admitted %d concurrent holders", maxActive)
	}
}

func TestWithLockContextCancelWhileWaiting(t *testing.T) {
	l := newTestLock(t)

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = l.WithLock(context.Background(), "Scrum", func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err := l.WithLock(ctx, "Scrum", func(context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
}
