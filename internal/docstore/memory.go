package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store used by tests and by deployments running
// without Firestore credentials. Subscribers receive the current snapshot
// immediately, then one snapshot per write.
type MemoryStore struct {
	mu     sync.Mutex
	exists bool
	data   map[string]any
	subs   map[int]func(Snapshot)
	nextID int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[int]func(Snapshot))}
}

func (s *MemoryStore) Subscribe(ctx context.Context, onSnapshot func(Snapshot), onError func(error)) Unsubscribe {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = onSnapshot
	snap := s.snapshotLocked()
	s.mu.Unlock()

	// Initial snapshot, delivered like the hosted store does.
	onSnapshot(snap)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *MemoryStore) Set(ctx context.Context, doc any) error {
	fields, err := toPlainMap(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.exists = true
	s.data = fields
	s.broadcastLocked()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, fields map[string]any) error {
	if !s.Exists() {
		return fmt.Errorf("update: document does not exist")
	}
	plain, err := toPlainMap(fields)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for k, v := range plain {
		s.data[k] = v
	}
	s.broadcastLocked()
	return nil
}

// Exists reports whether the document has been written.
func (s *MemoryStore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exists
}

// broadcastLocked notifies subscribers and releases the lock. Callbacks run
// outside the lock so a subscriber may call back into the store.
func (s *MemoryStore) broadcastLocked() {
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (s *MemoryStore) snapshotLocked() Snapshot {
	if !s.exists {
		return Snapshot{}
	}
	// Deep copy so subscribers cannot alias the stored document.
	data, err := json.Marshal(s.data)
	if err != nil {
		return Snapshot{Exists: true, Data: map[string]any{}}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return Snapshot{Exists: true, Data: map[string]any{}}
	}
	return Snapshot{Exists: true, Data: out}
}
