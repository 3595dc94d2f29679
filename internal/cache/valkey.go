package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore keeps entries in Valkey so resolutions are shared between
// server instances
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

var _ Store = (*ValkeyStore)(nil)

// NewValkeyStore connects to the Valkey server at addr. Keys are namespaced
// with prefix.
func NewValkeyStore(addr, prefix string) (*ValkeyStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &ValkeyStore{client: client, prefix: prefix}, nil
}

// Get retrieves and decodes the value stored at key
func (s *ValkeyStore) Get(ctx context.Context, key string, result interface{}) (bool, error) {
	cmd := s.client.Do(ctx, s.client.B().Get().Key(s.prefix+key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return false, nil
		}
		return false, fmt.Errorf("valkey get %s: %w", key, err)
	}
	b, err := cmd.AsBytes()
	if err != nil {
		return false, fmt.Errorf("valkey get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, result); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return true, nil
}

// Set stores data at key with a TTL
func (s *ValkeyStore) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data for cache: %w", err)
	}
	cmd := s.client.Do(ctx,
		s.client.B().Set().Key(s.prefix+key).Value(string(b)).Ex(ttl).Build(),
	)
	return cmd.Error()
}

// Close releases the client
func (s *ValkeyStore) Close() {
	s.client.Close()
}
