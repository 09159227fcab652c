package cookies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/artpar/postbox/internal/storage"
)

// Store defines the interface for cookie persistence.
type Store interface {
	// Load returns every stored cookie.
	Load(ctx context.Context) ([]Cookie, error)

	// Save replaces the stored cookies.
	Save(ctx context.Context, cookies []Cookie) error

	// Clear removes all cookies.
	Clear(ctx context.Context) error
}

// KVStore keeps cookies as one JSON list under storage.KeyCookies.
type KVStore struct {
	kv storage.KV
}

// NewKVStore creates a cookie store over kv.
func NewKVStore(kv storage.KV) *KVStore {
	return &KVStore{kv: kv}
}

func (s *KVStore) Load(ctx context.Context) ([]Cookie, error) {
	raw, err := s.kv.Get(ctx, storage.KeyCookies)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cookies []Cookie
	if err := json.Unmarshal([]byte(raw), &cookies); err != nil {
		return nil, fmt.Errorf("failed to decode cookies: %w", err)
	}
	return cookies, nil
}

func (s *KVStore) Save(ctx context.Context, cookies []Cookie) error {
	if cookies == nil {
		cookies = []Cookie{}
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, storage.KeyCookies, string(data))
}

func (s *KVStore) Clear(ctx context.Context) error {
	return s.kv.Delete(ctx, storage.KeyCookies)
}

var _ Store = (*KVStore)(nil)
