package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/egebot/core/logger"
)

// RedisStore keeps sessions in Redis: the state as a string key and the data bag as a hash,
// each expiring ttl after its last write.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStore wraps client; prefix namespaces keys ("fsm" when empty).
func NewRedisStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "fsm"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// DialRedis parses a redis:// URL, connects and pings the server.
func DialRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		logger.Session.Error("redis ping failed",
			slog.String("event", "session.connect"),
			slog.String("host", opts.Addr),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Session.Info("redis connected",
		slog.String("event", "session.connect"),
		slog.String("host", opts.Addr),
		slog.Int("db", opts.DB),
		slog.Duration("duration", logger.Took(start)),
	)
	return client, nil
}

func (s *RedisStore) stateKey(chatID int64) string {
	return s.prefix + ":" + strconv.FormatInt(chatID, 10) + ":state"
}

func (s *RedisStore) dataKey(chatID int64) string {
	return s.prefix + ":" + strconv.FormatInt(chatID, 10) + ":data"
}

// GetState returns the stored state or StateIdle when the key is absent or expired.
func (s *RedisStore) GetState(ctx context.Context, chatID int64) (State, error) {
	v, err := s.client.Get(ctx, s.stateKey(chatID)).Result()
	if errors.Is(err, redis.Nil) {
		return StateIdle, nil
	}
	if err != nil {
		return StateIdle, fmt.Errorf("get state: %w", err)
	}
	return State(v), nil
}

// SetState stores st; StateIdle removes the key.
func (s *RedisStore) SetState(ctx context.Context, chatID int64, st State) error {
	var err error
	if st == StateIdle {
		err = s.client.Del(ctx, s.stateKey(chatID)).Err()
	} else {
		err = s.client.Set(ctx, s.stateKey(chatID), string(st), s.ttl).Err()
	}
	if err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// GetData returns the data bag; an absent hash yields an empty bag.
func (s *RedisStore) GetData(ctx context.Context, chatID int64) (Data, error) {
	m, err := s.client.HGetAll(ctx, s.dataKey(chatID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get data: %w", err)
	}
	return Data(m), nil
}

// UpdateData merges patch and refreshes the hash TTL atomically.
func (s *RedisStore) UpdateData(ctx context.Context, chatID int64, patch Data) error {
	if len(patch) == 0 {
		return nil
	}
	key := s.dataKey(chatID)
	values := make(map[string]any, len(patch))
	for k, v := range patch {
		values[k] = v
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, values)
		p.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update data: %w", err)
	}
	return nil
}

// Clear drops both keys.
func (s *RedisStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, s.stateKey(chatID), s.dataKey(chatID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
