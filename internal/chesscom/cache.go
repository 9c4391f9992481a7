package chesscom

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/park285/chesscom-review/internal/domain"
	"github.com/redis/go-redis/v9"
)

const DefaultArchiveTTL = 24 * time.Hour

// ArchiveCache holds finished monthly archives. ok is false on a miss.
type ArchiveCache interface {
	Get(ctx context.Context, username string, year, month int) (games []domain.RawGame, ok bool, err error)
	Put(ctx context.Context, username string, year, month int, games []domain.RawGame) error
}

type RedisArchiveCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisArchiveCache(rdb *redis.Client, ttl time.Duration) *RedisArchiveCache {
	if ttl <= 0 {
		ttl = DefaultArchiveTTL
	}
	return &RedisArchiveCache{rdb: rdb, ttl: ttl}
}

func (s *RedisArchiveCache) key(username string, year, month int) string {
	return fmt.Sprintf("chesscom:archive:%s:%04d:%02d", NormalizeUsername(username), year, month)
}

func (s *RedisArchiveCache) Get(ctx context.Context, username string, year, month int) ([]domain.RawGame, bool, error) {
	raw, err := s.rdb.Get(ctx, s.key(username, year, month)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var games []domain.RawGame
	if err := json.Unmarshal(raw, &games); err != nil {
		return nil, false, fmt.Errorf("decode cached archive: %w", err)
	}
	return games, true, nil
}

func (s *RedisArchiveCache) Put(ctx context.Context, username string, year, month int, games []domain.RawGame) error {
	raw, err := json.Marshal(games)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key(username, year, month), raw, s.ttl).Err()
}
