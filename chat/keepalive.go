package chat

import (
	"sync"
	"time"
)

// keepalive owns the periodic PING timer. It is started when the
// session reaches CONNECTED and stopped on any transition back to
// STANDBY; both operations are idempotent and only the state machine
// invokes them.
type keepalive struct {
	mu   sync.Mutex
	done chan struct{}
}

// start launches the timer, replacing any running one.
func (k *keepalive) start(every time.Duration, tick func()) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.done != nil {
		close(k.done)
	}
	done := make(chan struct{})
	k.done = done

	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				tick()
			case <-done:
				return
			}
		}
	}()
}

// stop cancels the timer if one is running.
func (k *keepalive) stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.done != nil {
		close(k.done)
		k.done = nil
	}
}
