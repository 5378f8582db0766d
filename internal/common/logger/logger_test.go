package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservedLogger_ComponentAndFields(t *testing.T) {
	log, logs := NewObservedLogger()

	log.Component("orchestrator").
		WithFields(map[string]interface{}{"region": "Dubai"}).
		Warn("sub-query failed", map[string]interface{}{"error": errors.New("boom")})

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "orchestrator", ctx["component"])
	assert.Equal(t, "Dubai", ctx["region"])
	assert.Equal(t, "boom", ctx["error"])
	assert.Equal(t, "sub-query failed", entries[0].Message)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "debug"},
		{"warn", "warn"},
		{"error", "error"},
		{"", "info"},
		{"verbose", "info"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in).String())
		})
	}
}

func TestNoOpLogger(t *testing.T) {
	l := NewNoOpLogger()
	assert.NotPanics(t, func() {
		l.WithError(errors.New("x")).Info("ignored", nil)
	})
}
