package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-builder/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("REORDER_DRAG_THRESHOLD", "")
	t.Setenv("GENERATION_TIMEOUT", "")
	t.Setenv("EVENTS_ENABLED", "")
	t.Setenv("SESSION_IDLE_TTL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8.0, cfg.DragThreshold)
	assert.Equal(t, 60*time.Second, cfg.GenerationTimeout)
	assert.False(t, cfg.Events.Enabled)
	assert.Equal(t, 2*time.Hour, cfg.SessionIdleTTL)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("REORDER_DRAG_THRESHOLD", "12.5")
	t.Setenv("GENERATION_TIMEOUT", "5s")
	t.Setenv("CACHE_TTL", "not-a-duration")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_IDLE_TTL", "15m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 12.5, cfg.DragThreshold)
	assert.Equal(t, 5*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 15*time.Minute, cfg.SessionIdleTTL)
}

func TestEventConfig_CreateEventPublisher(t *testing.T) {
	logger := slog.Default()

	disabled := EventConfig{Enabled: false, Publisher: "kafka"}
	publisher, err := disabled.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, publisher)

	unknown := EventConfig{Enabled: true, Publisher: "carrier-pigeon"}
	publisher, err = unknown.CreateEventPublisher(logger)
	require.NoError(t, err)
	assert.IsType(t, &events.MockEventPublisher{}, publisher)
}

func TestEventConfig_GetKafkaBrokers(t *testing.T) {
	c := EventConfig{KafkaBrokers: "a:9092, b:9092,,"}

	assert.Equal(t, []string{"a:9092", "b:9092"}, c.GetKafkaBrokers())
}
