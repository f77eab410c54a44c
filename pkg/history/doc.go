// Package history implements the persisted, bounded stack of router states.
//
// A State is one history entry: a path, optional application data and, when
// data is present, an id that distinguishes entries sharing a path. The
// stack is stored as a JSON array under one key of a storage.KV:
//
//	[{"path":"/items"},{"path":"/items/7#3f2a…","data":{"tab":"specs"},"id":"3f2a…"}]
//
// Storage never surfaces a corrupt stored value to its caller: unreadable
// data is logged, reset to an empty array and treated as an empty stack.
package history
