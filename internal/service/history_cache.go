package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	RedisHistoryKeyPrefix = "analysis:history:"
	defaultHistoryTTL     = 10 * time.Minute
)

// HistoryCache caches a patient's analysis history projection.
type HistoryCache interface {
	Get(ctx context.Context, patientID uuid.UUID) ([]entity.AnalysisHistory, bool, error)
	Set(ctx context.Context, patientID uuid.UUID, history []entity.AnalysisHistory) error
	Invalidate(ctx context.Context, patientID uuid.UUID) error
}

type redisHistoryCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewHistoryCache(redisClient *redis.Client, ttl time.Duration) HistoryCache {
	if ttl <= 0 {
		ttl = defaultHistoryTTL
	}
	return &redisHistoryCache{redisClient: redisClient, ttl: ttl}
}

func historyKey(patientID uuid.UUID) string {
	return RedisHistoryKeyPrefix + patientID.String()
}

func (c *redisHistoryCache) Get(ctx context.Context, patientID uuid.UUID) ([]entity.AnalysisHistory, bool, error) {
	raw, err := c.redisClient.Get(ctx, historyKey(patientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get history cache: %w", err)
	}

	var history []entity.AnalysisHistory
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, false, fmt.Errorf("decode history cache: %w", err)
	}
	return history, true, nil
}

func (c *redisHistoryCache) Set(ctx context.Context, patientID uuid.UUID, history []entity.AnalysisHistory) error {
	if history == nil {
		history = []entity.AnalysisHistory{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode history cache: %w", err)
	}
	if err := c.redisClient.Set(ctx, historyKey(patientID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set history cache: %w", err)
	}
	return nil
}

func (c *redisHistoryCache) Invalidate(ctx context.Context, patientID uuid.UUID) error {
	if err := c.redisClient.Del(ctx, historyKey(patientID)).Err(); err != nil {
		return fmt.Errorf("invalidate history cache: %w", err)
	}
	return nil
}
