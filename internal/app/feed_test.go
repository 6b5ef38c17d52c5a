package app

import (
	"testing"

	"smartquiz/internal/domain"
)

func TestFeedDeliversToSubscribers(t *testing.T) {
	feed := NewResultsFeed()
	ch, cancel := feed.Subscribe()
	defer cancel()

	feed.Publish(domain.StatsRecord{SubjectName: "Go"})

	select {
	case rec := <-ch:
		if rec.SubjectName != "Go" {
			t.Errorf("received %+v", rec)
		}
	default:
		t.Fatal("expected a buffered record")
	}
}

func TestFeedDropsOldestWhenSlow(t *testing.T) {
	feed := NewResultsFeed()
	ch, cancel := feed.Subscribe()
	defer cancel()

	// over-fill the buffer; publishing must never block
	for i := 0; i < 20; i++ {
		feed.Publish(domain.StatsRecord{ID: int64(i)})
	}

	var last domain.StatsRecord
	received := 0
	for {
		select {
		case rec := <-ch:
			last = rec
			received++
			continue
		default:
		}
		break
	}
	if received == 0 {
		t.Fatal("expected some records to survive")
	}
	if last.ID != 19 {
		t.Errorf("newest record should survive the drops, got id %d", last.ID)
	}
}

func TestFeedCancelIsIdempotent(t *testing.T) {
	feed := NewResultsFeed()
	_, cancel := feed.Subscribe()
	cancel()
	cancel()

	// publishing after cancel must not panic on the closed channel
	feed.Publish(domain.StatsRecord{})
}
