package training

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/Cheese-opening-trainer/internal/domain"
	"github.com/park285/Cheese-opening-trainer/internal/repertoire"
)

const maxUpdateRetries = 5

type RedisStore struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisStore(ctx context.Context, redisURL string, logger *zap.Logger) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for repertoire store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(rdb, logger), nil
}

func NewRedisStoreFromClient(rdb *redis.Client, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{rdb: rdb, logger: logger}
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

func (s *RedisStore) keyRep(owner, name string) string {
	return "trainer:rep:" + strings.TrimSpace(owner) + ":" + normalizeName(name)
}

func (s *RedisStore) keyIndex(owner string) string {
	return "trainer:rep:index:" + strings.TrimSpace(owner)
}

func (s *RedisStore) Create(ctx context.Context, owner, name string, rep *repertoire.Repertoire) error {
	raw, err := encodeStored(name, rep, time.Now())
	if err != nil {
		return err
	}
	key := s.keyRep(owner, name)
	return s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrRepertoireExists
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			pipe.SAdd(ctx, s.keyIndex(owner), normalizeName(name))
			return nil
		})
		return err
	}, key)
}

func (s *RedisStore) Save(ctx context.Context, owner, name string, rep *repertoire.Repertoire) error {
	raw, err := encodeStored(name, rep, time.Now())
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.keyRep(owner, name), raw, 0)
	pipe.SAdd(ctx, s.keyIndex(owner), normalizeName(name))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save repertoire: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, owner, name string) (*repertoire.Repertoire, error) {
	raw, err := s.rdb.Get(ctx, s.keyRep(owner, name)).Bytes()
	if err == redis.Nil {
		return nil, ErrRepertoireNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load repertoire: %w", err)
	}
	return decodeStored(raw, s.logger)
}

func (s *RedisStore) Delete(ctx context.Context, owner, name string) error {
	pipe := s.rdb.TxPipeline()
	del := pipe.Del(ctx, s.keyRep(owner, name))
	pipe.SRem(ctx, s.keyIndex(owner), normalizeName(name))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete repertoire: %w", err)
	}
	if del.Val() == 0 {
		return ErrRepertoireNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, owner string) ([]domain.RepertoireInfo, error) {
	names, err := s.rdb.SMembers(ctx, s.keyIndex(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("list repertoires: %w", err)
	}
	sort.Strings(names)
	out := make([]domain.RepertoireInfo, 0, len(names))
	for _, name := range names {
		raw, err := s.rdb.Get(ctx, s.keyRep(owner, name)).Bytes()
		if err == redis.Nil {
			// stale index entry
			_ = s.rdb.SRem(ctx, s.keyIndex(owner), name).Err()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list repertoires: %w", err)
		}
		info, err := infoFromStored(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *RedisStore) Update(ctx context.Context, owner, name string, fn func(*repertoire.Repertoire) error) error {
	key := s.keyRep(owner, name)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrRepertoireNotFound
		}
		if err != nil {
			return err
		}
		rep, err := decodeStored(raw, s.logger)
		if err != nil {
			return err
		}
		if err := fn(rep); err != nil {
			return err
		}
		next, err := encodeStored(name, rep, time.Now())
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("repertoire_update_retry", zap.String("key", key), zap.Int("attempt", i+1))
			continue
		}
		return err
	}
	return fmt.Errorf("update repertoire %q: %w", name, redis.TxFailedErr)
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
