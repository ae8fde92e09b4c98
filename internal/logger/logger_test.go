package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront/internal/config"
)

func TestSetupWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.log")

	closer := Setup(config.LoggerConfig{Level: "debug", File: path, MaxSizeMB: 1}, true)
	t.Cleanup(func() {
		logrus.SetOutput(os.Stdout)
	})

	logrus.WithField("order_id", "abc").Info("order placed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"order_id":"abc"`)
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestSetupFallsBackToInfo(t *testing.T) {
	closer := Setup(config.LoggerConfig{Level: "chatty"}, false)
	assert.NoError(t, closer.Close())
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())
	_, isText := logrus.StandardLogger().Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}
