package output_storage

import (
	"fmt"
	"sync"
)

// Broadcaster fans a published value out to every subscriber. Delivery never
// blocks the publisher: a subscriber whose buffer is full loses its oldest
// pending value in favour of the newest one, which makes the broadcaster a
// good fit for "something changed" notifications.
type Broadcaster[T any] struct {
	messageReceiver chan T

	// sendMu guards messageReceiver against being closed while a publisher
	// is sending to it.
	sendMu sync.RWMutex
	closed bool

	mu          sync.Mutex
	subscribers map[chan T]struct{}
	stopped     bool
}

func RunNewBroadcaster[T any]() *Broadcaster[T] {
	broadcaster := &Broadcaster[T]{
		messageReceiver: make(chan T, 1),
		subscribers:     make(map[chan T]struct{}),
	}

	go broadcaster.start()

	return broadcaster
}

func (broadcaster *Broadcaster[T]) start() {
	logger.Println("Starting broadcaster")

	for msg := range broadcaster.messageReceiver {
		// Copy the map to avoid holding the lock for a long time.
		broadcaster.mu.Lock()
		subscribers := make([]chan T, 0, len(broadcaster.subscribers))
		for s := range broadcaster.subscribers {
			subscribers = append(subscribers, s)
		}
		broadcaster.mu.Unlock()

		for _, s := range subscribers {
			broadcaster.deliver(s, msg)
		}
	}

	broadcaster.mu.Lock()
	for subscriberSender := range broadcaster.subscribers {
		close(subscriberSender)
	}
	broadcaster.subscribers = make(map[chan T]struct{})
	broadcaster.stopped = true
	broadcaster.mu.Unlock()

	logger.Println("Stopping broadcaster")
}

func (broadcaster *Broadcaster[T]) deliver(s chan T, msg T) {
	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()

	// The subscriber may have gone away since the map was copied.
	if _, ok := broadcaster.subscribers[s]; !ok {
		return
	}

	select {
	case s <- msg:
	default:
		// channel is full, drop the first message
		select {
		case <-s:
		default:
		}
		select {
		case s <- msg:
		default:
		}
	}
}

// Stop closes every subscriber channel. Publishing after Stop is a no-op.
func (broadcaster *Broadcaster[T]) Stop() {
	broadcaster.sendMu.Lock()
	defer broadcaster.sendMu.Unlock()

	if broadcaster.closed {
		return
	}
	broadcaster.closed = true
	close(broadcaster.messageReceiver)
}

func (broadcaster *Broadcaster[T]) Subscribe() (chan T, error) {
	// Use a buffer of 1 so we can drop stale notifications without blocking.
	ch := make(chan T, 1)
	broadcaster.mu.Lock()
	if broadcaster.stopped {
		broadcaster.mu.Unlock()
		logger.Println("Can't subscribe")
		return nil, fmt.Errorf("failed to subscribe: broadcaster is stopped")
	}
	broadcaster.subscribers[ch] = struct{}{}
	broadcaster.mu.Unlock()
	logger.Println("New subscriber")
	return ch, nil
}

func (broadcaster *Broadcaster[T]) Unsubscribe(subscriberSender chan T) {
	broadcaster.mu.Lock()
	_, ok := broadcaster.subscribers[subscriberSender]
	delete(broadcaster.subscribers, subscriberSender)
	broadcaster.mu.Unlock()
	if ok {
		close(subscriberSender)
	}
	logger.Println("Unsubscribed")
}

func (broadcaster *Broadcaster[T]) Publish(msg T) {
	broadcaster.sendMu.RLock()
	defer broadcaster.sendMu.RUnlock()

	if broadcaster.closed {
		return
	}

	for {
		select {
		case broadcaster.messageReceiver <- msg:
			return
		default:
			// channel is full, drop the first message
			select {
			case <-broadcaster.messageReceiver:
			default:
			}
		}
	}
}
