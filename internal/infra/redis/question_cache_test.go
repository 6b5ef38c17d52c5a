package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"smartquiz/internal/domain"
)

type countingLoader struct {
	loads int32
}

func (l *countingLoader) Question(_ context.Context, id int64) (domain.Question, error) {
	atomic.AddInt32(&l.loads, 1)
	return domain.Question{ID: id, Text: "q", Options: []domain.Option{
		{Text: "right", Correct: true}, {Text: "wrong"},
	}}, nil
}

func (l *countingLoader) QuestionIDsBySubject(_ context.Context, subjectID int64) ([]int64, error) {
	return []int64{1, 2}, nil
}

func newTestCache(t *testing.T, ttl time.Duration) (*QuestionCache, *countingLoader, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	loader := &countingLoader{}
	return NewQuestionCache(client, loader, ttl), loader, mr
}

func TestQuestionCacheRoundTrip(t *testing.T) {
	cache, loader, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	q, err := cache.Question(ctx, 5)
	if err != nil {
		t.Fatalf("Question failed: %v", err)
	}
	if q.ID != 5 || len(q.Options) != 2 || !q.Options[0].Correct {
		t.Fatalf("unexpected question %+v", q)
	}
	if !mr.Exists("question:5") {
		t.Fatal("question should be cached under question:5")
	}

	// second read must come from redis, options intact
	q, err = cache.Question(ctx, 5)
	if err != nil {
		t.Fatalf("cached read failed: %v", err)
	}
	if len(q.Options) != 2 || !q.Options[0].Correct || q.Options[1].Correct {
		t.Fatalf("options lost through the cache: %+v", q)
	}
	if got := atomic.LoadInt32(&loader.loads); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestQuestionCacheReloadsAfterExpiry(t *testing.T) {
	cache, loader, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	cache.Question(ctx, 5)
	mr.FastForward(2 * time.Minute)
	cache.Question(ctx, 5)

	if got := atomic.LoadInt32(&loader.loads); got != 2 {
		t.Fatalf("loader called %d times after expiry, want 2", got)
	}
}

func TestQuestionCacheIgnoresCorruptValue(t *testing.T) {
	cache, loader, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	mr.Set("question:9", "not json")
	q, err := cache.Question(ctx, 9)
	if err != nil {
		t.Fatalf("Question failed: %v", err)
	}
	if q.ID != 9 {
		t.Fatalf("unexpected question %+v", q)
	}
	if got := atomic.LoadInt32(&loader.loads); got != 1 {
		t.Fatalf("corrupt value should fall back to the loader once, got %d loads", got)
	}
}

func TestQuestionIDsPassThrough(t *testing.T) {
	cache, _, _ := newTestCache(t, time.Minute)
	ids, err := cache.QuestionIDsBySubject(context.Background(), 10)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ids = %v (%v)", ids, err)
	}
}
