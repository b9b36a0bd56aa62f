// README: Request queue backed by Redis; at-least-once delivery with visibility-timeout leases.
package queue

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one leased queue entry. Receipt must be passed back to Delete
// once the message has been fully handled; until the lease expires no other
// consumer will see the message.
type Message struct {
	ID      string
	Body    []byte
	Receipt string
}

// Queue is a durable at-least-once queue on Redis. Layout per queue name:
// a ready list (FIFO), a leased zset scored by lease expiry, and a body hash.
// Messages whose lease has expired are moved back to the ready list before
// each receive, which is what makes redelivery work across worker instances.
type Queue struct {
	redis *redis.Client
	name  string
}

func New(rdb *redis.Client, name string) *Queue {
	return &Queue{redis: rdb, name: name}
}

func (q *Queue) readyKey() string  { return "queue:" + q.name + ":ready" }
func (q *Queue) leasedKey() string { return "queue:" + q.name + ":leased" }
func (q *Queue) bodyKey() string   { return "queue:" + q.name + ":bodies" }

// reclaimScript moves every message with an expired lease back to the tail of
// the ready list. KEYS: leased, ready. ARGV: now (unix ms).
var reclaimScript = redis.NewScript(`
local expired = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(expired) do
    redis.call('ZREM', KEYS[1], id)
    redis.call('RPUSH', KEYS[2], id)
end
return #expired
`)

// popScript atomically pops one ready message and leases it.
// KEYS: ready, leased, bodies. ARGV: lease expiry (unix ms).
// Returns {id, body} or false when the queue is empty.
var popScript = redis.NewScript(`
local id = redis.call('LPOP', KEYS[1])
if not id then
    return false
end
local body = redis.call('HGET', KEYS[3], id)
if not body then
    return false
end
redis.call('ZADD', KEYS[2], ARGV[1], id)
return {id, body}
`)

// Enqueue appends a message body and returns the assigned message ID.
func (q *Queue) Enqueue(ctx context.Context, body []byte) (string, error) {
	id := newMessageID()
	pipe := q.redis.TxPipeline()
	pipe.HSet(ctx, q.bodyKey(), id, body)
	pipe.RPush(ctx, q.readyKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("queue enqueue: %w", err)
	}
	return id, nil
}

// Receive returns up to max messages, each leased for the given duration.
// Expired leases are reclaimed first so abandoned messages become visible
// again. An empty queue returns an empty slice, not an error.
func (q *Queue) Receive(ctx context.Context, max int, lease time.Duration) ([]Message, error) {
	now := time.Now()
	if _, err := reclaimScript.Run(ctx, q.redis,
		[]string{q.leasedKey(), q.readyKey()},
		now.UnixMilli(),
	).Result(); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("queue reclaim: %w", err)
	}

	expiry := now.Add(lease).UnixMilli()
	msgs := make([]Message, 0, max)
	for i := 0; i < max; i++ {
		res, err := popScript.Run(ctx, q.redis,
			[]string{q.readyKey(), q.leasedKey(), q.bodyKey()},
			expiry,
		).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return msgs, fmt.Errorf("queue receive: %w", err)
		}
		pair, ok := res.([]interface{})
		if !ok || len(pair) != 2 {
			break
		}
		id, _ := pair[0].(string)
		body, _ := pair[1].(string)
		msgs = append(msgs, Message{ID: id, Body: []byte(body), Receipt: id})
	}
	return msgs, nil
}

// Delete acknowledges a message, removing it for good. Safe to call more than
// once and safe to call after the lease has expired.
func (q *Queue) Delete(ctx context.Context, receipt string) error {
	pipe := q.redis.TxPipeline()
	pipe.ZRem(ctx, q.leasedKey(), receipt)
	pipe.LRem(ctx, q.readyKey(), 0, receipt)
	pipe.HDel(ctx, q.bodyKey(), receipt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue delete: %w", err)
	}
	return nil
}

// Len reports ready plus leased message counts, for observability.
func (q *Queue) Len(ctx context.Context) (ready int64, leased int64, err error) {
	ready, err = q.redis.LLen(ctx, q.readyKey()).Result()
	if err != nil {
		return 0, 0, err
	}
	leased, err = q.redis.ZCard(ctx, q.leasedKey()).Result()
	if err != nil {
		return 0, 0, err
	}
	return ready, leased, nil
}

func newMessageID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
