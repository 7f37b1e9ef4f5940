package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/mailbin/internal/domain"
	"github.com/bnema/mailbin/internal/ports"
)

// Keys are part of the on-device state layout and must not change.
const (
	TokenKey   = "@token"
	ProfileKey = "@user"
)

// KeyValueSessionStore persists the session under the fixed token and profile keys.
// Writes are not serialized; the last Set wins.
type KeyValueSessionStore struct {
	kv ports.KeyValueStore
}

var _ ports.SessionStore = (*KeyValueSessionStore)(nil)

func NewKeyValueSessionStore(kv ports.KeyValueStore) *KeyValueSessionStore {
	return &KeyValueSessionStore{kv: kv}
}

func (s *KeyValueSessionStore) Get(ctx context.Context) (domain.SessionToken, error) {
	value, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read session token: %w", err)
	}

	return domain.SessionToken(strings.TrimSpace(value)), nil
}

func (s *KeyValueSessionStore) Set(ctx context.Context, token domain.SessionToken) error {
	if token.IsZero() {
		return errors.New("refusing to store an empty session token")
	}
	if err := s.kv.Put(ctx, TokenKey, string(token)); err != nil {
		return fmt.Errorf("write session token: %w", err)
	}
	return nil
}

func (s *KeyValueSessionStore) GetProfile(ctx context.Context) (*domain.Profile, error) {
	value, err := s.kv.Get(ctx, ProfileKey)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cached profile: %w", err)
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(value), &profile); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}
	return &profile, nil
}

func (s *KeyValueSessionStore) SetProfile(ctx context.Context, profile domain.Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.kv.Put(ctx, ProfileKey, string(payload)); err != nil {
		return fmt.Errorf("write cached profile: %w", err)
	}
	return nil
}

func (s *KeyValueSessionStore) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{TokenKey, ProfileKey} {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}
