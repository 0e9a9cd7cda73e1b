package service

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vickybesra/Order-Execution-Engine/models"
)

// Broadcaster fans status events out to every live subscriber of an order.
// The subscription registry is internally synchronized; no other component
// holds references to subscriber channels once registered.
type Broadcaster struct {
	mu          sync.Mutex
	byOrder     map[string]map[string]struct{}
	subscribers map[string]*subscription
	closed      bool
}

type subscription struct {
	id      string
	orderID string
	ch      chan models.StatusEvent
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		byOrder:     make(map[string]map[string]struct{}),
		subscribers: make(map[string]*subscription),
	}
}

// Subscribe registers ch to receive every event published for orderID and
// returns the subscription id used to tear it down.
func (b *Broadcaster) Subscribe(orderID string, ch chan models.StatusEvent) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{id: uuid.NewString(), orderID: orderID, ch: ch}
	if b.closed {
		return sub.id
	}
	if b.byOrder[orderID] == nil {
		b.byOrder[orderID] = make(map[string]struct{})
	}
	b.byOrder[orderID][sub.id] = struct{}{}
	b.subscribers[sub.id] = sub

	log.Debug().Str("order_id", orderID).Str("sub_id", sub.id).Msg("subscriber registered")
	return sub.id
}

// Unsubscribe removes the subscription and releases its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(subID)
}

// Publish delivers event to every live subscriber of orderID. Dead or stalled
// subscribers are dropped opportunistically without failing delivery to the
// others. Publishing with zero subscribers is a no-op.
func (b *Broadcaster) Publish(orderID string, event models.StatusEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.byOrder[orderID]
	if len(subs) == 0 {
		return
	}

	var dead []string
	for subID := range subs {
		sub, ok := b.subscribers[subID]
		if !ok {
			dead = append(dead, subID)
			continue
		}
		if !trySend(sub.ch, event) {
			log.Warn().Str("order_id", orderID).Str("sub_id", subID).
				Msg("dropping unresponsive subscriber")
			dead = append(dead, subID)
		}
	}
	for _, subID := range dead {
		b.removeLocked(subID)
	}
}

// SubscriberCount returns the number of live subscriptions for an order.
func (b *Broadcaster) SubscriberCount(orderID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.byOrder[orderID])
}

// CloseAll tears down every subscription and closes all channels.
func (b *Broadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, sub := range b.subscribers {
		safeClose(sub.ch)
		delete(b.subscribers, subID)
	}
	b.byOrder = make(map[string]map[string]struct{})
	b.closed = true
	log.Info().Msg("broadcaster closed")
}

func (b *Broadcaster) removeLocked(subID string) {
	sub, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	if set, ok := b.byOrder[sub.orderID]; ok {
		delete(set, subID)
		if len(set) == 0 {
			delete(b.byOrder, sub.orderID)
		}
	}
}

// trySend delivers without blocking; a closed or full channel reports false.
func trySend(ch chan models.StatusEvent, event models.StatusEvent) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case ch <- event:
		return true
	default:
		return false
	}
}

func safeClose(ch chan models.StatusEvent) {
	defer func() { _ = recover() }()
	close(ch)
}
