package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mcoot/greenlight/internal/model"
	"github.com/mcoot/greenlight/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// All keys are namespaced by an instance id and removed on Close,
// so data lives no longer than the process that wrote it.
type Storage struct {
	client   *redis.Client
	cfg      Config
	instance string
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	instance := cfg.InstanceID
	if instance == "" {
		instance = uuid.NewString()
	}
	return &Storage{
		client:   client,
		cfg:      cfg,
		instance: instance,
	}
}

// InstanceID returns the namespace used for this storage's keys
func (s *Storage) InstanceID() string {
	return s.instance
}

// Close removes everything this instance wrote and closes the Redis connection
func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cleanupErr := s.purge(ctx)
	if err := s.client.Close(); err != nil {
		return err
	}
	return cleanupErr
}

func (s *Storage) purge(ctx context.Context) error {
	indexKey := sessionIndexKey(s.instance)
	keys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}
	keys = append(keys, indexKey, leaderboardKey(s.instance))
	return s.client.Del(ctx, keys...).Err()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session operations

func (s *Storage) SaveSession(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	key := sessionKey(s.instance, session.ID)
	indexKey := sessionIndexKey(s.instance)

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.SessionTTL)
	pipe.SAdd(ctx, indexKey, key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetSession(ctx context.Context, id model.SessionID) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(s.instance, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Storage) DeleteSession(ctx context.Context, id model.SessionID) error {
	key := sessionKey(s.instance, id)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, sessionIndexKey(s.instance), key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) SessionExists(ctx context.Context, id model.SessionID) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(s.instance, id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Leaderboard operations

func (s *Storage) AppendRound(ctx context.Context, result *model.RoundResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, leaderboardKey(s.instance), data).Err()
}

func (s *Storage) ListRounds(ctx context.Context) ([]model.RoundResult, error) {
	items, err := s.client.LRange(ctx, leaderboardKey(s.instance), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	rounds := make([]model.RoundResult, 0, len(items))
	for _, item := range items {
		var result model.RoundResult
		if err := json.Unmarshal([]byte(item), &result); err != nil {
			return nil, err
		}
		rounds = append(rounds, result)
	}
	return rounds, nil
}

func (s *Storage) CountRounds(ctx context.Context) (int, error) {
	n, err := s.client.LLen(ctx, leaderboardKey(s.instance)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
