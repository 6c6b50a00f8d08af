package store

// Store is a flat string key/value namespace backed by durable storage,
// the client-side analogue of the browser's localStorage. Writes are
// last-write-wins; separate operations are not transactional.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}
