package state

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// Callback receives the value of a key after it changed. value is nil when
// the key was removed or has never been written.
type Callback func(value any, key Key)

// ConnectionID identifies a subscription returned by Connect.
type ConnectionID uint64

// ConnectOptions describes a subscription.
// Exactly one of Key or Collection must be set.
type ConnectOptions struct {
	// Key subscribes to a single key.
	Key Key

	// Collection subscribes to every member key of the collection.
	// The callback fires once per changed member.
	Collection Collection

	// Callback is invoked with the new value on every change.
	Callback Callback

	// SkipInitial suppresses the callback with the current value(s) that
	// Connect otherwise delivers immediately.
	SkipInitial bool
}

type subscription struct {
	id   ConnectionID
	opts ConnectOptions

	// mu serializes deliveries to this subscription. seen holds the sequence
	// number of the last value delivered per key.
	mu     sync.Mutex
	seen   map[Key]uint64
	closed atomic.Bool
}

func (s *subscription) matches(key Key) bool {
	if s.opts.Key != "" {
		return s.opts.Key == key
	}
	return s.opts.Collection.Owns(key)
}

type notification struct {
	key    Key
	value  any
	seq    uint64
	target ConnectionID // 0 broadcasts to every matching subscription
}

// delivery is the notification queue of a goroutine that is currently
// invoking callbacks. Only that goroutine touches it.
type delivery struct {
	queue []notification
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report panicking callbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store is an observable key-value store.
// It is safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[Key]any

	subMu sync.RWMutex
	subs  map[ConnectionID]*subscription

	seq        uint64 // guarded by mu
	delivering sync.Map

	nextID atomic.Uint64
	logger *slog.Logger
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		values: make(map[Key]any),
		subs:   make(map[ConnectionID]*subscription),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the value stored at key.
func (s *Store) Get(key Key) (any, bool) {
	s.mu.RLock()
	v, ok := s.values[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// GetMap returns the value at key as a map, or nil if it is absent or not a map.
func (s *Store) GetMap(key Key) map[string]any {
	v, _ := s.Get(key)
	m, _ := v.(map[string]any)
	return m
}

// Members returns copies of every value in the collection, keyed by member id.
func (s *Store) Members(c Collection) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]any)
	for k, v := range s.values {
		if c.Owns(k) {
			out[c.ID(k)] = cloneValue(v)
		}
	}
	return out
}

// Snapshot returns a deep copy of every key in the store.
func (s *Store) Snapshot() map[Key]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[Key]any, len(s.values))
	for k, v := range s.values {
		out[k] = cloneValue(v)
	}
	return out
}

// Set replaces the value at key. A nil value removes the key.
func (s *Store) Set(key Key, value any) error {
	return s.Batch(func(b *Batch) error {
		return b.Set(key, value)
	})
}

// Merge deep-merges value into the existing value at key.
// Merging nil removes the key.
func (s *Store) Merge(key Key, value any) error {
	return s.Batch(func(b *Batch) error {
		return b.Merge(key, value)
	})
}

// Clear removes every key and notifies the affected subscribers.
func (s *Store) Clear() {
	s.mu.Lock()
	var pending []notification
	for k := range s.values {
		pending = append(pending, notification{key: k, seq: s.nextSeqLocked()})
	}
	s.values = make(map[Key]any)
	s.mu.Unlock()

	s.notify(pending)
}

// Batch applies several writes atomically: readers never observe a partial
// batch, and notifications for all of them are delivered after fn returns.
// If fn returns an error, the writes made so far are still kept.
//
// Subscribers have been notified by the time Batch returns, unless it is
// called from inside a callback. Such writes are delivered after the
// running callback returns.
func (s *Store) Batch(fn func(b *Batch) error) error {
	s.mu.Lock()
	b := &Batch{store: s}
	err := fn(b)
	s.mu.Unlock()

	s.notify(b.pending)
	return err
}

// Connect registers a subscription and returns its id.
// Unless SkipInitial is set, the callback is invoked with the current value
// (for a key) or once per existing member (for a collection) before Connect
// returns, when called outside of another callback.
func (s *Store) Connect(opts ConnectOptions) ConnectionID {
	if opts.Callback == nil || (opts.Key == "" && opts.Collection == "") {
		return 0
	}

	id := ConnectionID(s.nextID.Add(1))
	sub := &subscription{id: id, opts: opts, seen: make(map[Key]uint64)}

	s.subMu.Lock()
	s.subs[id] = sub
	s.subMu.Unlock()

	if opts.SkipInitial {
		return id
	}

	s.mu.Lock()
	var initial []notification
	if opts.Key != "" {
		initial = append(initial, notification{key: opts.Key, value: cloneValue(s.values[opts.Key]), seq: s.nextSeqLocked(), target: id})
	} else {
		for k, v := range s.values {
			if opts.Collection.Owns(k) {
				initial = append(initial, notification{key: k, value: cloneValue(v), seq: s.nextSeqLocked(), target: id})
			}
		}
	}
	s.mu.Unlock()

	s.notify(initial)
	return id
}

// Disconnect removes a subscription. Unknown ids are ignored. The callback
// is not invoked again once Disconnect returns, except by a delivery that
// was already running it.
func (s *Store) Disconnect(id ConnectionID) {
	s.subMu.Lock()
	sub, ok := s.subs[id]
	delete(s.subs, id)
	s.subMu.Unlock()
	if ok {
		sub.closed.Store(true)
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	return len(s.subs)
}

func (s *Store) nextSeqLocked() uint64 {
	s.seq++
	return s.seq
}

// notify delivers ns on the calling goroutine before returning. When the
// goroutine is already inside a callback, ns joins its queue instead and is
// delivered once that callback returns, so callbacks never nest.
//
// Writers on different goroutines deliver concurrently. Per subscription,
// deliveries are serialized and a value older than one already delivered
// for the same key is dropped, so subscribers always end on the latest value.
func (s *Store) notify(ns []notification) {
	if len(ns) == 0 {
		return
	}
	gid := goroutineID()
	if v, ok := s.delivering.Load(gid); ok {
		d := v.(*delivery)
		d.queue = append(d.queue, ns...)
		return
	}

	d := &delivery{queue: ns}
	s.delivering.Store(gid, d)
	defer s.delivering.Delete(gid)

	for len(d.queue) > 0 {
		n := d.queue[0]
		d.queue = d.queue[1:]
		s.deliver(n)
	}
}

func (s *Store) deliver(n notification) {
	s.subMu.RLock()
	var targets []*subscription
	if n.target != 0 {
		if sub, ok := s.subs[n.target]; ok {
			targets = append(targets, sub)
		}
	} else {
		for _, sub := range s.subs {
			if sub.matches(n.key) {
				targets = append(targets, sub)
			}
		}
	}
	s.subMu.RUnlock()

	for _, sub := range targets {
		s.invoke(sub, n)
	}
}

func (s *Store) invoke(sub *subscription, n notification) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed.Load() || sub.seen[n.key] >= n.seq {
		return
	}
	sub.seen[n.key] = n.seq

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("store callback panicked",
				"key", string(n.key),
				"connection", uint64(sub.id),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	// Each subscriber gets its own copy.
	sub.opts.Callback(cloneValue(n.value), n.key)
}

// Batch groups writes inside Store.Batch.
type Batch struct {
	store   *Store
	pending []notification
}

// Set replaces the value at key. A nil value removes the key.
func (b *Batch) Set(key Key, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	normalized, err := Normalize(value)
	if err != nil {
		return err
	}

	old, existed := b.store.values[key]
	if normalized == nil {
		if !existed {
			return nil
		}
		delete(b.store.values, key)
		b.pending = append(b.pending, notification{key: key, seq: b.store.nextSeqLocked()})
		return nil
	}

	next := cloneValue(normalized)
	if existed && equalValues(old, next) {
		return nil
	}
	b.store.values[key] = next
	b.pending = append(b.pending, notification{key: key, value: cloneValue(next), seq: b.store.nextSeqLocked()})
	return nil
}

// Merge deep-merges value into the existing value at key.
func (b *Batch) Merge(key Key, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	normalized, err := Normalize(value)
	if err != nil {
		return err
	}
	if normalized == nil {
		return b.Set(key, nil)
	}

	old, existed := b.store.values[key]
	next := mergeValue(old, normalized)
	if existed && equalValues(old, next) {
		return nil
	}
	b.store.values[key] = next
	b.pending = append(b.pending, notification{key: key, value: cloneValue(next), seq: b.store.nextSeqLocked()})
	return nil
}

// Get returns the current value at key, including writes made earlier in
// the same batch.
func (b *Batch) Get(key Key) (any, bool) {
	v, ok := b.store.values[key]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}
