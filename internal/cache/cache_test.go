package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
)

func TestNew_DisabledWithoutAddress(t *testing.T) {
	c, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "Refused", err: errors.New("dial tcp 127.0.0.1:6379: connection refused"), expected: true},
		{name: "EOF", err: errors.New("unexpected EOF"), expected: true},
		{name: "Timeout", err: errors.New("read tcp: i/o timeout"), expected: true},
		{name: "Server error", err: errors.New("WRONGTYPE Operation against a key"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isConnectionError(tt.err))
		})
	}
}

func TestSetCommand(t *testing.T) {
	tests := []struct {
		name     string
		ttl      time.Duration
		expected []string
	}{
		{name: "Whole seconds", ttl: 10 * time.Minute, expected: []string{"SET", keyPrefix + "sheet:abc", "payload", "EX", "600"}},
		{name: "Sub-second TTL rounds up to one", ttl: 200 * time.Millisecond, expected: []string{"SET", keyPrefix + "sheet:abc", "payload", "EX", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := setCommand(valkey.Builder{}, "sheet:abc", "payload", tt.ttl)
			assert.Equal(t, tt.expected, cmd.Commands())
		})
	}
}
