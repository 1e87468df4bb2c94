// Package state provides the observable key-value store that backs every
// optimistic update in spendsync.
//
// The store holds JSON-shaped values (map[string]any, []any, strings, bools,
// numbers) under string keys. Values are written with two methods:
//
//   - Set replaces the value at a key (nil removes the key).
//   - Merge deep-merges a partial map into the existing value. Nested maps
//     merge recursively, every other value (slices included) replaces, and a
//     nil field inside the partial removes that field.
//
// Subscribers register with Connect, either on a single key or on a
// collection prefix (e.g. every "policy_<id>" key). Callbacks run
// synchronously on the writing goroutine, so a write returns only after its
// subscribers have seen it. A slow subscriber on one key never holds up
// writes to other keys. A callback that writes back into the store is safe:
// its notifications are queued and delivered after the current one.
//
// Each subscription receives values for a key in write order. When writers
// race, a value older than one the subscription already received is skipped.
//
// # Example
//
//	store := state.NewStore()
//	id := store.Connect(state.ConnectOptions{
//	    Key: keys.PersonalBankAccount,
//	    Callback: func(value any, key state.Key) {
//	        fmt.Println(key, value)
//	    },
//	})
//	defer store.Disconnect(id)
//
//	store.Merge(keys.PersonalBankAccount, map[string]any{"loading": true})
//
// Readers always receive deep copies, so mutating a value returned by Get or
// passed to a callback never changes the stored value.
package state
