package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/valkey-io/valkey-go"
)

const (
	keyPrefix  = "mentions-dashboard:"
	maxRetries = 3
	retryDelay = 250 * time.Millisecond
)

// ValkeyCache implements Cache on a Valkey server
type ValkeyCache struct {
	client valkey.Client
}

// New connects to Valkey when VALKEY_ADDRESS is configured. It returns a nil
// Cache when caching is disabled.
func New(ctx context.Context, cfg *config.Config) (Cache, error) {
	if cfg.ValkeyAddress == "" {
		logrus.Info("Valkey address not configured, sheet cache disabled")
		return nil, nil
	}

	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.ValkeyAddress},
		Password:         cfg.ValkeyPassword,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if cfg.ValkeyTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey at %s: %w", cfg.ValkeyAddress, err)
	}

	logrus.Infof("Connected to Valkey at %s", cfg.ValkeyAddress)
	return &ValkeyCache{client: client}, nil
}

func (c *ValkeyCache) Get(ctx context.Context, key string) (string, bool, error) {
	res := c.doWithRetry(ctx, c.client.B().Get().Key(keyPrefix+key).Build().Pin())
	value, err := res.ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}
	return value, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	res := c.doWithRetry(ctx, setCommand(c.client.B(), key, value, ttl).Pin())
	if err := res.Error(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

// setCommand writes the value and its expiry in a single SET ... EX
func setCommand(b valkey.Builder, key, value string, ttl time.Duration) valkey.Completed {
	seconds := int64(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return b.Set().Key(keyPrefix + key).Value(value).ExSeconds(seconds).Build()
}

func (c *ValkeyCache) Close() {
	c.client.Close()
}

// doWithRetry expects cmd to be pinned since it may be sent more than once
func (c *ValkeyCache) doWithRetry(ctx context.Context, cmd valkey.Completed) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for attempt := 1; attempt <= maxRetries; attempt++ {
		result = c.client.Do(ctx, cmd)
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) || !isConnectionError(err) {
			break
		}

		logrus.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Valkey command failed, retrying")

		select {
		case <-ctx.Done():
			return result
		case <-time.After(retryDelay):
		}
	}
	return result
}

func isConnectionError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
