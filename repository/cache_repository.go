package repository

// CacheRepository is a flat string key-value store.
type CacheRepository interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}
