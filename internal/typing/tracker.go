package typing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is how long a typing signal stays visible without a refresh.
const DefaultTTL = 5 * time.Second

// Tracker keeps short-lived typing indicators per conversation in a Redis
// sorted set scored by expiry. A nil client turns every call into a no-op.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{client: client, ttl: ttl, now: time.Now}
}

func key(conversationID int64) string {
	return fmt.Sprintf("typing:conversation:%d", conversationID)
}

// Touch marks userID as typing in the conversation.
func (t *Tracker) Touch(ctx context.Context, conversationID, userID int64) error {
	if t.client == nil {
		return nil
	}
	expiry := t.now().Add(t.ttl)
	pipe := t.client.TxPipeline()
	pipe.ZAdd(ctx, key(conversationID), redis.Z{Score: float64(expiry.UnixMilli()), Member: strconv.FormatInt(userID, 10)})
	pipe.PExpire(ctx, key(conversationID), t.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Active returns the users still typing in the conversation.
func (t *Tracker) Active(ctx context.Context, conversationID int64) ([]int64, error) {
	if t.client == nil {
		return []int64{}, nil
	}
	now := strconv.FormatInt(t.now().UnixMilli(), 10)
	if err := t.client.ZRemRangeByScore(ctx, key(conversationID), "-inf", now).Err(); err != nil {
		return nil, err
	}
	members, err := t.client.ZRange(ctx, key(conversationID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
