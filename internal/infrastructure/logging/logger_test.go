package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go-medical-appointment/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "clinic.log")

	log, err := Setup(config.LogConfig{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
	require.NoError(t, err)
	t.Cleanup(func() { log.SetOutput(os.Stdout) })

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.Info("appointment scheduled")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "appointment scheduled")
}

func TestSetupFallsBackToInfo(t *testing.T) {
	log, err := Setup(config.LogConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
