package store

import "sync"

// NetworkStore tracks whether the search service is reachable. It starts
// out connected.
type NetworkStore struct {
	mu        sync.Mutex
	connected bool
	listeners map[int]func(bool)
	nextID    int
}

func NewNetworkStore() *NetworkStore {
	return &NetworkStore{connected: true, listeners: make(map[int]func(bool))}
}

func (n *NetworkStore) Connected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.connected
}

// Set records the latest connectivity signal. Listeners only hear changes.
func (n *NetworkStore) Set(connected bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.connected == connected {
		return
	}
	n.connected = connected
	for _, fn := range n.listeners {
		fn(connected)
	}
}

// Subscribe registers fn and returns a func that removes it.
func (n *NetworkStore) Subscribe(fn func(bool)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}
