package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Valkey is a shared cache on a Valkey (Redis-compatible) server.
type Valkey struct {
	client valkey.Client
	prefix string
}

// NewValkey connects to addr. Keys are namespaced with prefix.
func NewValkey(addr, password string, db int, prefix string) (*Valkey, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
		Password:    password,
		SelectDB:    db,
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Valkey{client: client, prefix: prefix}, nil
}

func (v *Valkey) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := v.client.Do(ctx, v.client.B().Get().Key(v.prefix+key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return cmd.AsBytes()
}

// Set stores value; a non-positive ttl stores it without expiry.
func (v *Valkey) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	set := v.client.B().Set().Key(v.prefix + key).Value(valkey.BinaryString(value))
	if ttl > 0 {
		return v.client.Do(ctx, set.Ex(ttl).Build()).Error()
	}
	return v.client.Do(ctx, set.Build()).Error()
}

func (v *Valkey) Delete(ctx context.Context, key string) error {
	return v.client.Do(ctx, v.client.B().Del().Key(v.prefix+key).Build()).Error()
}

func (v *Valkey) Close() {
	v.client.Close()
}
