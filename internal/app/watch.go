package app

import (
	"context"

	"github.com/futurepaul/popow/internal/domain/model"
)

type watcher struct {
	wake chan struct{}
}

// Watch returns a channel that receives the view after every change, starting
// with the current one. Delivery is latest-wins: a slow reader skips
// intermediate views but always gets the newest. The channel is closed when
// ctx ends.
func (c *Coordinator) Watch(ctx context.Context) <-chan model.View {
	w := &watcher{wake: make(chan struct{}, 1)}
	w.wake <- struct{}{}

	c.watchMu.Lock()
	c.watchers[w] = struct{}{}
	c.watchMu.Unlock()

	out := make(chan model.View, 1)
	go func() {
		defer close(out)
		defer func() {
			c.watchMu.Lock()
			delete(c.watchers, w)
			c.watchMu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.wake:
			}

			v := c.View(ctx)
			select {
			case out <- v:
			default:
				// Replace the unread view with the newer one.
				select {
				case <-out:
				default:
				}
				out <- v
			}
		}
	}()
	return out
}

// notify wakes every watcher without blocking.
func (c *Coordinator) notify() {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	for w := range c.watchers {
		select {
		case w.wake <- struct{}{}:
		default:
		}
	}
}

// Watchers returns the number of active watchers.
func (c *Coordinator) Watchers() int {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	return len(c.watchers)
}
