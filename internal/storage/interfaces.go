package storage

// Store is the embedded key-value persistence interface behind the offline
// queue and the local session record. Implementations must be safe for
// concurrent use. Get returns (nil, nil) when the key is absent so callers
// can treat missing and empty state alike.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
