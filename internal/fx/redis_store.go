package fx

import (
    "context"
    "encoding/json"

    "github.com/redis/go-redis/v9"
)

const redisKey = "marketdash:fx:usd"

// RedisStore keeps the record under a single Redis key, for deployments
// where several instances should share the last-known-good rate.
type RedisStore struct {
    client *redis.Client
}

func NewRedisStore(addr, password string, db int) *RedisStore {
    return &RedisStore{client: redis.NewClient(&redis.Options{
        Addr:     addr,
        Password: password,
        DB:       db,
    })}
}

func (s *RedisStore) Load(ctx context.Context) (Record, bool) {
    b, err := s.client.Get(ctx, redisKey).Bytes()
    if err != nil {
        return Record{}, false
    }
    var rec Record
    if err := json.Unmarshal(b, &rec); err != nil || rec.Rate <= 0 {
        return Record{}, false
    }
    return rec, true
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
    b, err := json.Marshal(rec)
    if err != nil {
        return err
    }
    // The record is overwritten on every refresh and never expires; a stale
    // value is still the best warm-start available.
    return s.client.Set(ctx, redisKey, b, 0).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }
