package cachestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-catalog/pkg/catalog"
)

const (
	redisPagePrefix    = "catalog:page:"
	redisCharacterHash = "catalog:characters"
)

// RedisConfig holds the configuration for the Redis-backed store.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
}

// RedisStore is a Store implementation backed by Redis, for deployments that
// want the page and character caches shared across processes. Entries carry
// no TTL; invalidation is explicit, exactly as with the in-memory store.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore creates and connects a RedisStore. It pings the Redis server
// to ensure connectivity before returning.
func NewRedisStore(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisStore{
		client: rdb,
		logger: logger.With().Str("component", "RedisStore").Logger(),
	}, nil
}

// GetPage retrieves a cached page by key.
func (s *RedisStore) GetPage(ctx context.Context, key string) ([]catalog.Character, error) {
	data, err := s.client.Get(ctx, redisPagePrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read page from redis: %w", err)
	}

	var page []catalog.Character
	if err := json.Unmarshal([]byte(data), &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached page: %w", err)
	}
	return page, nil
}

// PutPage stores a page and upserts each of its characters in one pipeline.
func (s *RedisStore) PutPage(ctx context.Context, key string, characters []catalog.Character) error {
	pageData, err := json.Marshal(characters)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, redisPagePrefix+key, pageData, 0)
	for _, character := range characters {
		characterData, err := json.Marshal(character)
		if err != nil {
			return fmt.Errorf("failed to marshal character %d: %w", character.ID, err)
		}
		pipe.HSet(ctx, redisCharacterHash, strconv.Itoa(character.ID), characterData)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write page to redis: %w", err)
	}

	s.logger.Debug().Str("key", key).Int("characters", len(characters)).Msg("Stored page in Redis.")
	return nil
}

// GetCharacter retrieves the most recently observed character by id.
func (s *RedisStore) GetCharacter(ctx context.Context, id int) (catalog.Character, error) {
	data, err := s.client.HGet(ctx, redisCharacterHash, strconv.Itoa(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return catalog.Character{}, ErrNotFound
		}
		return catalog.Character{}, fmt.Errorf("failed to read character from redis: %w", err)
	}

	var character catalog.Character
	if err := json.Unmarshal([]byte(data), &character); err != nil {
		return catalog.Character{}, fmt.Errorf("failed to unmarshal cached character: %w", err)
	}
	return character, nil
}

// PutCharacter upserts a single character.
func (s *RedisStore) PutCharacter(ctx context.Context, character catalog.Character) error {
	data, err := json.Marshal(character)
	if err != nil {
		return fmt.Errorf("failed to marshal character: %w", err)
	}
	if err := s.client.HSet(ctx, redisCharacterHash, strconv.Itoa(character.ID), data).Err(); err != nil {
		return fmt.Errorf("failed to write character to redis: %w", err)
	}
	return nil
}

// InvalidateByFilter removes every page cached under the given filter set.
func (s *RedisStore) InvalidateByFilter(ctx context.Context, filters catalog.Filters) error {
	return s.deleteByPattern(ctx, redisPagePrefix+filters.PageKeyPrefix()+"*")
}

// Clear empties both caches.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.deleteByPattern(ctx, redisPagePrefix+"*"); err != nil {
		return err
	}
	if err := s.client.Del(ctx, redisCharacterHash).Err(); err != nil {
		return fmt.Errorf("failed to clear character cache: %w", err)
	}
	return nil
}

// SnapshotCharacters concatenates every cached page's characters.
func (s *RedisStore) SnapshotCharacters(ctx context.Context) ([]catalog.Character, error) {
	var out []catalog.Character
	iter := s.client.Scan(ctx, 0, redisPagePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // Deleted between scan and read.
			}
			return nil, fmt.Errorf("failed to read page from redis: %w", err)
		}
		var page []catalog.Character
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cached page: %w", err)
		}
		out = append(out, page...)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan page keys: %w", err)
	}
	return out, nil
}

// HasPages reports whether any page is cached.
func (s *RedisStore) HasPages(ctx context.Context) (bool, error) {
	iter := s.client.Scan(ctx, 0, redisPagePrefix+"*", 1).Iterator()
	if iter.Next(ctx) {
		return true, nil
	}
	if err := iter.Err(); err != nil {
		return false, fmt.Errorf("failed to scan page keys: %w", err)
	}
	return false, nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	s.logger.Info().Msg("Closing Redis client connection...")
	return s.client.Close()
}

func (s *RedisStore) deleteByPattern(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys for pattern %q: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete %d keys: %w", len(keys), err)
	}
	s.logger.Debug().Int("deleted", len(keys)).Str("pattern", pattern).Msg("Invalidated cached pages.")
	return nil
}
