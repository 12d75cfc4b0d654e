package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_WithAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := &ZapLogger{logger: zap.New(core).Sugar()}

	log := base.With("instance_id", "instance-a")
	log.Info("Bid processed", "auction_id", "a1")
	base.Warn("Lock lost")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, map[string]interface{}{"instance_id": "instance-a", "auction_id": "a1"}, entries[0].ContextMap())
	assert.Empty(t, entries[1].ContextMap())
}

func TestNewWithLevel(t *testing.T) {
	tests := []struct {
		level string
		debug bool
	}{
		{"debug", true},
		{"info", false},
		{"loud", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, ok := NewWithLevel(tt.level).(*ZapLogger)
			require.True(t, ok)
			assert.Equal(t, tt.debug, log.logger.Desugar().Core().Enabled(zapcore.DebugLevel))
		})
	}
}
