package service

import (
	"context"
	"testing"
	"time"

	"go-medical-appointment/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCacheRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewHistoryCache(client, time.Minute)
	ctx := context.Background()
	patientID := uuid.New()

	_, hit, err := cache.Get(ctx, patientID)
	require.NoError(t, err)
	assert.False(t, hit)

	history := []entity.AnalysisHistory{
		{
			Analysis:          entity.AnalysisHistoryAnalysis{Name: "Lipid panel"},
			PatientAnalysisID: 7,
			AnalysisDate:      entity.DateOf(time.Date(2030, 2, 10, 0, 0, 0, 0, time.UTC)),
		},
	}
	require.NoError(t, cache.Set(ctx, patientID, history))
	assert.Equal(t, time.Minute, mr.TTL(RedisHistoryKeyPrefix+patientID.String()))

	got, hit, err := cache.Get(ctx, patientID)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, history, got)

	require.NoError(t, cache.Invalidate(ctx, patientID))
	_, hit, err = cache.Get(ctx, patientID)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestHistoryCacheStoresEmptyHistory(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewHistoryCache(client, 0)
	ctx := context.Background()
	patientID := uuid.New()

	require.NoError(t, cache.Set(ctx, patientID, nil))

	got, hit, err := cache.Get(ctx, patientID)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Empty(t, got)
}

func TestHistoryCacheCorruptEntry(t *testing.T) {
	mr, client := newTestRedis(t)
	cache := NewHistoryCache(client, 0)
	patientID := uuid.New()

	require.NoError(t, mr.Set(RedisHistoryKeyPrefix+patientID.String(), "{not json"))

	_, hit, err := cache.Get(context.Background(), patientID)
	assert.Error(t, err)
	assert.False(t, hit)
}
