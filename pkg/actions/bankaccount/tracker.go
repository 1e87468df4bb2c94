package bankaccount

import (
	"sync"

	"github.com/vango-dev/spendsync/pkg/keys"
	"github.com/vango-dev/spendsync/pkg/state"
)

// ACHTracker mirrors reimbursementAccount.achData.
type ACHTracker struct {
	mu    sync.RWMutex
	store *state.Store
	conn  state.ConnectionID
	data  map[string]any
}

// NewACHTracker creates a stopped tracker.
func NewACHTracker() *ACHTracker {
	return &ACHTracker{data: map[string]any{}}
}

// Start subscribes to store. Starting a running tracker restarts it on the
// new store.
func (t *ACHTracker) Start(store *state.Store) {
	t.Stop()
	conn := store.Connect(state.ConnectOptions{
		Key:      keys.ReimbursementAccount,
		Callback: t.onChange,
	})
	t.mu.Lock()
	t.store = store
	t.conn = conn
	t.mu.Unlock()
}

// Stop unsubscribes. The last seen data is kept.
func (t *ACHTracker) Stop() {
	t.mu.Lock()
	store, conn := t.store, t.conn
	t.store, t.conn = nil, 0
	t.mu.Unlock()
	if store != nil {
		store.Disconnect(conn)
	}
}

func (t *ACHTracker) onChange(value any, _ state.Key) {
	data := map[string]any{}
	if m, ok := value.(map[string]any); ok {
		if ach, ok := m["achData"].(map[string]any); ok {
			data = ach
		}
	}
	t.mu.Lock()
	t.data = data
	t.mu.Unlock()
}

// Data returns a copy of the current ACH data.
func (t *ACHTracker) Data() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]any, len(t.data))
	for k, v := range t.data {
		out[k] = v
	}
	return out
}
