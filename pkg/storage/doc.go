// Package storage provides the string key-value backends that persist the
// router's history stack.
//
// The browser equivalent is sessionStorage: a flat map of string keys to
// string values. The KV interface captures that contract and adds context
// and error returns so that networked backends can be plugged in:
//
//	kv := storage.NewMemoryStore()
//	// or
//	kv := storage.NewFileStore(".navrouter/history.json")
//	// or
//	kv := storage.NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}))
//	// or
//	kv := storage.NewSQLStore(db, storage.WithSQLDialect(storage.DialectSQLite))
//	// or
//	kv := storage.NewS3Store(s3.NewFromConfig(cfg), "bucket")
//
// Prefixed namespaces one backend between several router instances:
//
//	tabA := storage.Prefixed(kv, "tab-a:")
package storage
