package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"smartquiz/internal/domain"
)

type countingLoader struct {
	loads int32
}

func (l *countingLoader) Question(_ context.Context, id int64) (domain.Question, error) {
	atomic.AddInt32(&l.loads, 1)
	if id == 404 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return domain.Question{ID: id, Text: "q"}, nil
}

func (l *countingLoader) QuestionIDsBySubject(_ context.Context, subjectID int64) ([]int64, error) {
	return []int64{1, 2, 3}, nil
}

func TestQuestionCacheMemoizes(t *testing.T) {
	loader := &countingLoader{}
	cache := NewQuestionCache(loader, time.Minute)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		q, err := cache.Question(ctx, 1)
		if err != nil {
			t.Fatalf("Question failed: %v", err)
		}
		if q.ID != 1 {
			t.Fatalf("got question %d", q.ID)
		}
	}
	if got := atomic.LoadInt32(&loader.loads); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	loader := &countingLoader{}
	cache := NewQuestionCache(loader, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }

	ctx := context.Background()
	cache.Question(ctx, 1)
	now = now.Add(2 * time.Minute) // past TTL plus any jitter
	cache.Question(ctx, 1)

	if got := atomic.LoadInt32(&loader.loads); got != 2 {
		t.Fatalf("loader called %d times after expiry, want 2", got)
	}
}

func TestQuestionCacheErrorNotCached(t *testing.T) {
	loader := &countingLoader{}
	cache := NewQuestionCache(loader, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := cache.Question(ctx, 404); err == nil {
			t.Fatal("expected an error for the missing question")
		}
	}
	if got := atomic.LoadInt32(&loader.loads); got != 3 {
		t.Fatalf("errors must not be cached, loader called %d times", got)
	}
}

func TestQuestionCacheCollapsesConcurrentMisses(t *testing.T) {
	loader := &countingLoader{}
	cache := NewQuestionCache(loader, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Question(ctx, 7)
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&loader.loads); got != 1 {
		t.Fatalf("concurrent misses should collapse to 1 load, got %d", got)
	}
}

func TestQuestionIDsPassThrough(t *testing.T) {
	cache := NewQuestionCache(&countingLoader{}, time.Minute)
	ids, err := cache.QuestionIDsBySubject(context.Background(), 10)
	if err != nil || len(ids) != 3 {
		t.Fatalf("ids = %v (%v)", ids, err)
	}
}
