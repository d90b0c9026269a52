// Package docstore defines the contract against the hosted real-time document
// store holding the shared guild document, plus the concrete backends.
package docstore

import "context"

// Snapshot is one observation of the remote document. Data holds the present
// top-level fields; Exists is false when the document has never been written.
type Snapshot struct {
	Exists bool
	Data   map[string]any
}

// Unsubscribe stops a snapshot subscription.
type Unsubscribe func()

// Store is the document store adapter. Set replaces the whole document,
// Update merges the given top-level fields (last writer wins per field).
type Store interface {
	Subscribe(ctx context.Context, onSnapshot func(Snapshot), onError func(error)) Unsubscribe
	Set(ctx context.Context, doc any) error
	Update(ctx context.Context, fields map[string]any) error
}
