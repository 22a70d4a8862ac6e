package stats

import (
	"context"
	"encoding/json"
	"sync"
)

// FeedEvent is the JSON published for every finished game.
type FeedEvent struct {
	ID         string  `json:"id"`
	Height     int     `json:"height"`
	Width      int     `json:"width"`
	Mines      int     `json:"mines"`
	Outcome    Outcome `json:"outcome"`
	Moves      int     `json:"moves"`
	DurationMS int64   `json:"durationMs"`
}

// Feed is an in-process pub/sub of finished games. It is a Recorder, so it
// can sit next to the persistent stores in a Multi.
type Feed struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[chan []byte]struct{})}
}

// Subscribe returns a channel that receives JSON-encoded FeedEvents.
func (f *Feed) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *Feed) Unsubscribe(ch chan []byte) {
	f.mu.Lock()
	delete(f.subs, ch)
	f.mu.Unlock()
}

// Subscribers returns the number of active subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// Record publishes r to every subscriber. A subscriber whose buffer is full
// misses the event.
func (f *Feed) Record(_ context.Context, r Result) error {
	data, err := json.Marshal(FeedEvent{
		ID:         r.ID,
		Height:     r.Height,
		Width:      r.Width,
		Mines:      r.Mines,
		Outcome:    r.Outcome,
		Moves:      r.Moves,
		DurationMS: r.Duration().Milliseconds(),
	})
	if err != nil {
		return err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs {
		select {
		case ch <- data:
		default:
		}
	}
	return nil
}
