package ephemeriscache

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/valkey-io/valkey-go"
	"golang.org/x/crypto/blake2b"
)

// ValkeyCache persists provider payloads in a Valkey-compatible database.
type ValkeyCache struct {
	client valkey.Client
	prefix string
}

// NewValkeyCache constructs a cache backed by Valkey.
func NewValkeyCache(client valkey.Client, prefix string) *ValkeyCache {
	if prefix == "" {
		prefix = "ephemeris"
	}
	return &ValkeyCache{client: client, prefix: prefix}
}

func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	payload, err := c.client.Do(ctx, c.client.B().Get().Key(c.entryKey(key)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return payload, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	builder := c.client.B().Set().Key(c.entryKey(key)).Value(valkey.BinaryString(value))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return c.client.Do(ctx, cmd).Error()
}

// Run returns immediately; Valkey expires keys itself.
func (c *ValkeyCache) Run(context.Context, time.Duration) {}

func (c *ValkeyCache) entryKey(key string) string {
	return digestKey(c.prefix, key)
}

// digestKey bounds key length; query strings carry coordinates and timestamps.
func digestKey(prefix, key string) string {
	sum := blake2b.Sum256([]byte(key))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
