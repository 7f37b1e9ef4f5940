package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/mailbin/internal/adapters/secrets/file"
	passstore "github.com/bnema/mailbin/internal/adapters/secrets/pass"
	"github.com/bnema/mailbin/internal/ports"
	"go.uber.org/zap"
)

// Store prefers primary and falls back to fallback when primary fails.
// Deletes go to both backends so a value written while primary was down
// cannot reappear after it has been removed.
type Store struct {
	primary  ports.KeyValueStore
	fallback ports.KeyValueStore
	logger   *zap.Logger
}

var _ ports.KeyValueStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary store is nil")
	errNilFallbackStore = errors.New("fallback store is nil")
)

func NewStore(primary ports.KeyValueStore, fallback ports.KeyValueStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.KeyValueStore, fallback ports.KeyValueStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback, logger: zap.NewNop()}, nil
}

// NewPassFirstWithFileFallback keeps the session in pass and uses plain files when pass is missing or broken.
func NewPassFirstWithFileFallback(passPrefix string, fileRoot string) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(passPrefix), filestore.NewStore(fileRoot))
}

// WithLogger reports fallbacks on logger.
func (s *Store) WithLogger(logger *zap.Logger) *Store {
	if logger != nil {
		s.logger = logger
	}
	return s
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if isContextError(err) {
		return err
	}

	s.logger.Debug("primary store put failed, using fallback", zap.String("key", key), zap.Error(err))
	if fallbackErr := s.fallback.Put(ctx, key, value); fallbackErr != nil {
		return fmt.Errorf("primary store put failed: %w; fallback store put failed: %w", err, fallbackErr)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if isContextError(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		s.logger.Debug("read value from fallback store", zap.String("key", key), zap.NamedError("primary_error", err))
		return fallbackValue, nil
	}

	return "", fmt.Errorf("primary store get failed: %w; fallback store get failed: %w", err, fallbackErr)
}

// Delete removes key from both backends. It fails only when neither backend could delete it.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if err != nil && isContextError(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	switch {
	case err == nil && fallbackErr == nil:
		return nil
	case err != nil && fallbackErr != nil:
		return fmt.Errorf("primary store delete failed: %w; fallback store delete failed: %w", err, fallbackErr)
	case err != nil:
		s.logger.Debug("primary store delete failed", zap.String("key", key), zap.Error(err))
	default:
		s.logger.Warn("fallback store delete failed", zap.String("key", key), zap.Error(fallbackErr))
	}

	return nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
