package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , ,"))
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, splitList("kafka-1:9092, kafka-2:9092,"))
}

func TestParseDuration(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, parseDuration("TEST_DURATION", time.Minute))

	viper.Set("TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, parseDuration("TEST_DURATION", time.Minute))

	viper.Set("TEST_DURATION", "-5m")
	assert.Equal(t, time.Minute, parseDuration("TEST_DURATION", time.Minute))
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())

	t.Setenv("APP_ENV", "Production")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("JWT_ACCESS_EXPIRY", "5m")
	t.Setenv("CALENDAR_TIMEZONE", "Asia/Jakarta")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, []string{"*"}, cfg.App.CORSOrigins)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "clinic.appointments", cfg.Kafka.Topic)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiry)
	assert.Equal(t, "Asia/Jakarta", cfg.Calendar.TimeZone)
	assert.Equal(t, 62, cfg.Calendar.MaxRangeDays)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Scheduler.ReminderLead)
}
