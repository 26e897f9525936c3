package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/OldStager01/crop-advisor/internal/logger"
	"github.com/OldStager01/crop-advisor/internal/metrics"
	"github.com/OldStager01/crop-advisor/internal/resilience"
	"github.com/OldStager01/crop-advisor/pkg/models"
)

type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxFailures  int
	OpenTimeout  time.Duration
}

// RedisStore shares forecasts between replicas. Calls go through a circuit
// breaker; while it is open every read is a miss and writes are dropped.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	breaker *resilience.CircuitBreaker
}

func NewRedisStore(cfg RedisConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "forecast-store",
		MaxFailures: cfg.MaxFailures,
		Timeout:     cfg.OpenTimeout,
		IsFailure: func(err error) bool {
			return err != nil && !errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.WithFields(map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
			metrics.Get().SetCircuitBreakerState(name, int(to))
		},
	})

	return &RedisStore{client: client, prefix: cfg.KeyPrefix, breaker: breaker}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.StoredForecast, error) {
	var raw string
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		raw, err = s.client.Get(ctx, s.prefix+key).Result()
		return err
	})
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("forecast store get %s: %w", key, err)
	}

	var f models.StoredForecast
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil, fmt.Errorf("forecast store decode %s: %w", key, err)
	}
	return &f, nil
}

func (s *RedisStore) Put(ctx context.Context, f *models.StoredForecast, ttl time.Duration) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	err = s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, s.prefix+f.Key, b, ttl).Err()
	})
	if err != nil {
		return fmt.Errorf("forecast store put %s: %w", f.Key, err)
	}
	return nil
}

// Ping checks the server through the breaker, so readiness reports an
// open breaker and a successful ping after OpenTimeout helps it close.
func (s *RedisStore) Ping(ctx context.Context) error {
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return s.client.Ping(ctx).Err()
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		snap := s.breaker.Snapshot()
		return fmt.Errorf("%w: %s since %s", err, s.breaker.Name(), snap.LastFailure.UTC().Format(time.RFC3339))
	}
	return err
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
