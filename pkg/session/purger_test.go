package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakePurger struct {
	calls chan struct{}
	err   error
}

func (f *fakePurger) PurgeExpired() error {
	select {
	case f.calls <- struct{}{}:
	default:
	}
	return f.err
}

func TestStartPurgeWorker(t *testing.T) {
	purger := &fakePurger{calls: make(chan struct{}, 1), err: errors.New("ignored")}

	stop := StartPurgeWorker(context.Background(), purger, 5*time.Millisecond)
	defer stop()

	select {
	case <-purger.calls:
	case <-time.After(time.Second):
		t.Fatal("expected purge to run")
	}
}

func TestStartPurgeWorkerStopsOnContextCancel(t *testing.T) {
	purger := &fakePurger{calls: make(chan struct{}, 1)}
	ctx, cancel := context.WithCancel(context.Background())

	stop := StartPurgeWorker(ctx, purger, time.Hour)
	cancel()

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStartPurgeWorkerDisabled(t *testing.T) {
	stop := StartPurgeWorker(context.Background(), &fakePurger{}, 0)
	assert.NotPanics(t, stop)
	stop()
}
