package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"smartquiz/internal/domain"
)

// Loader fetches questions from the backing store.
type Loader interface {
	Question(ctx context.Context, id int64) (domain.Question, error)
	QuestionIDsBySubject(ctx context.Context, subjectID int64) ([]int64, error)
}

// QuestionCache keeps questions as JSON values in Redis (key question:{id})
// and falls back to the loader on a miss. Concurrent misses for the same id
// collapse into one load.
type QuestionCache struct {
	client *redis.Client
	loader Loader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionCache(client *redis.Client, loader Loader, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Question(ctx context.Context, id int64) (domain.Question, error) {
	key := questionKey(id)

	if q, ok := c.fromCache(ctx, key); ok {
		return q, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if q, ok := c.fromCache(ctx, key); ok {
			return q, nil
		}

		question, err := c.loader.Question(ctx, id)
		if err != nil {
			return domain.Question{}, err
		}

		if data, err := json.Marshal(question); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return question, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func (c *QuestionCache) QuestionIDsBySubject(ctx context.Context, subjectID int64) ([]int64, error) {
	return c.loader.QuestionIDsBySubject(ctx, subjectID)
}

func (c *QuestionCache) fromCache(ctx context.Context, key string) (domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal(data, &q); err != nil {
		return domain.Question{}, false
	}
	return q, true
}

func questionKey(id int64) string {
	return "question:" + strconv.FormatInt(id, 10)
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
