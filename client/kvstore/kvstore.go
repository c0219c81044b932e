// Package kvstore provides the client-side key-value stores backing the
// notification poll controller: a durable store for state that must survive
// restarts (the watermark) and a session store for state that must not
// (one-time banner flags).
package kvstore

type Store interface {
	// Get returns the value for key; found is false when the key is absent.
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
}
