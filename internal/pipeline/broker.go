package pipeline

import "sync"

// broker fans snapshots out to subscribers without ever blocking the publisher.
// A full subscriber loses its oldest queued snapshot.
type broker struct {
	mu   sync.Mutex
	subs map[uint64]chan Snapshot
	next uint64
}

func newBroker() *broker {
	return &broker{subs: make(map[uint64]chan Snapshot)}
}

func (b *broker) subscribe(buffer int) (uint64, chan Snapshot) {
	if buffer < 1 {
		buffer = 1
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	ch := make(chan Snapshot, buffer)
	b.subs[b.next] = ch
	return b.next, ch
}

func (b *broker) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *broker) publish(s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		offer(ch, s.Clone())
	}
}

// offer sends s, evicting the oldest entry when ch is full.
func offer(ch chan Snapshot, s Snapshot) {
	for {
		select {
		case ch <- s:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func (b *broker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
