package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig holds connection settings for the hosted store.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	AppID           string
}

// FirestoreStore mirrors the guild document to a single Firestore document at
// artifacts/{appID}/public/data/guildState/master.
type FirestoreStore struct {
	client *firestore.Client
	doc    *firestore.DocumentRef
	logger *slog.Logger
}

// NewFirestore connects to Firestore and resolves the guild document ref.
func NewFirestore(ctx context.Context, cfg FirestoreConfig, logger *slog.Logger) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	path := fmt.Sprintf("artifacts/%s/public/data/guildState/master", cfg.AppID)
	return &FirestoreStore{
		client: client,
		doc:    client.Doc(path),
		logger: logger,
	}, nil
}

// Subscribe streams document snapshots until the returned Unsubscribe is
// called or ctx is cancelled. Stream errors other than cancellation are
// reported through onError; the listener then stops (the caller decides
// whether to resubscribe).
func (s *FirestoreStore) Subscribe(ctx context.Context, onSnapshot func(Snapshot), onError func(error)) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		it := s.doc.Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				onError(err)
				return
			}
			onSnapshot(Snapshot{
				Exists: snap.Exists(),
				Data:   snap.Data(),
			})
		}
	}()

	return func() { cancel() }
}

// Set replaces the whole document.
func (s *FirestoreStore) Set(ctx context.Context, doc any) error {
	fields, err := toPlainMap(doc)
	if err != nil {
		return err
	}
	if _, err := s.doc.Set(ctx, fields); err != nil {
		return fmt.Errorf("set document: %w", err)
	}
	return nil
}

// Update merges the given top-level fields into the document.
func (s *FirestoreStore) Update(ctx context.Context, fields map[string]any) error {
	plain, err := toPlainMap(fields)
	if err != nil {
		return err
	}
	if _, err := s.doc.Set(ctx, plain, firestore.MergeAll); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// toPlainMap round-trips a value through JSON so the stored field names match
// the model's JSON tags rather than Go field names.
func toPlainMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return out, nil
}
