package repository

import (
	"context"
	"fmt"

	"debt-planner/domain"
)

// KVStateStore stores the state as three records in a CacheRepository,
// e.g. a RedisCache.
type KVStateStore struct {
	cache CacheRepository
}

func NewKVStateStore(cache CacheRepository) *KVStateStore {
	return &KVStateStore{cache: cache}
}

func (s *KVStateStore) Load(ctx context.Context) (domain.PlannerState, error) {
	records := make(map[string]string, len(stateKeys))
	for _, key := range stateKeys {
		if val, ok := s.cache.Get(key); ok {
			records[key] = val
		}
	}
	return decodeState(records)
}

func (s *KVStateStore) Save(ctx context.Context, state domain.PlannerState) error {
	records, err := encodeState(state)
	if err != nil {
		return err
	}
	for _, key := range stateKeys {
		if err := s.cache.Set(key, records[key]); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}
