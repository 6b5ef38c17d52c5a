package app

import (
	"sync"

	"smartquiz/internal/domain"
)

// ResultsFeed fans finalized quiz results out to live subscribers (the
// websocket results endpoint). Slow subscribers have their oldest pending
// update dropped rather than blocking publication.
type ResultsFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.StatsRecord]struct{}
}

func NewResultsFeed() *ResultsFeed {
	return &ResultsFeed{subscribers: make(map[chan domain.StatsRecord]struct{})}
}

// Subscribe returns a channel of finalized results. The caller must invoke
// the returned cancel function to avoid leaks.
func (f *ResultsFeed) Subscribe() (<-chan domain.StatsRecord, func()) {
	ch := make(chan domain.StatsRecord, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a finalized record to every subscriber.
func (f *ResultsFeed) Publish(rec domain.StatsRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- rec:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- rec
		}
	}
}
