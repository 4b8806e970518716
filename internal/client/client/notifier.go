package client

import (
	"sync"

	"github.com/dmitrijs2005/gopanel/internal/client/models"
)

// notifier fans auth changes out to registered listeners.
type notifier struct {
	mu        sync.Mutex
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	fn func(models.AuthChange)
}

func (n *notifier) subscribe(fn func(models.AuthChange)) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.listeners = append(n.listeners, listener{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, l := range n.listeners {
				if l.id == id {
					n.listeners = append(n.listeners[:i:i], n.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// notify calls every listener in registration order. Listeners run outside
// the lock so they may subscribe or unsubscribe.
func (n *notifier) notify(change models.AuthChange) {
	n.mu.Lock()
	snapshot := make([]listener, len(n.listeners))
	copy(snapshot, n.listeners)
	n.mu.Unlock()

	for _, l := range snapshot {
		l.fn(change)
	}
}
