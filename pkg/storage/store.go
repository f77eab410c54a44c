package storage

import (
	"context"
	"errors"
)

// KV is a string key-value store.
// Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the value stored under key.
	// Returns ("", false, nil) if the key doesn't exist.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// ErrStoreClosed is returned when operations are attempted on a closed store.
var ErrStoreClosed = errors.New("storage: store is closed")

// prefixed namespaces keys of an underlying store.
type prefixed struct {
	kv     KV
	prefix string
}

// Prefixed returns a KV that stores every key under prefix in kv.
// Closing it does not close kv.
func Prefixed(kv KV, prefix string) KV {
	return &prefixed{kv: kv, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.kv.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.kv.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Delete(ctx context.Context, key string) error {
	return p.kv.Delete(ctx, p.prefix+key)
}

func (p *prefixed) Close() error { return nil }
