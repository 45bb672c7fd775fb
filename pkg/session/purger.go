package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Purger removes expired sessions
type Purger interface {
	PurgeExpired() error
}

// StartPurgeWorker calls PurgeExpired every interval until ctx is done or the
// returned stop function is called. Stop waits for the worker to exit.
func StartPurgeWorker(ctx context.Context, sessions Purger, interval time.Duration) func() {
	if sessions == nil || interval <= 0 {
		return func() {}
	}

	workerCtx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer func() {
			ticker.Stop()
			close(done)
		}()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				if err := sessions.PurgeExpired(); err != nil {
					log.Error().Err(err).Msg("Failed to purge expired sessions")
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
