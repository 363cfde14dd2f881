package economydb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	economydomain "github.com/copperkettle/pennybot/app/modules/economy/domain"
)

// FirestoreStore is the Firestore-backed RecordStore. UpsertMerge runs in a
// document-level transaction so the relative operations in a ChangeSet are
// resolved against the stored values current at commit time; two concurrent
// commits against the same document both land their deltas.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	defaults   SkeletonFactory
	logger     *slog.Logger
}

func NewFirestoreStore(client *firestore.Client, collection string, defaults SkeletonFactory, logger *slog.Logger) *FirestoreStore {
	return &FirestoreStore{
		client:     client,
		collection: collection,
		defaults:   defaults,
		logger:     logger,
	}
}

// FetchOrDefault returns the stored document for id, or the default skeleton
// if no document exists. Nothing is written.
func (s *FirestoreStore) FetchOrDefault(ctx context.Context, id string) (map[string]any, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return s.defaults(id), nil
	}
	if err != nil {
		return nil, storeErr("fetch", id, err)
	}
	return snap.Data(), nil
}

// UpsertMerge atomically reads the document (skeleton if absent), resolves
// the pending operations against its current values, merges the result on,
// writes, and returns the post-write document.
func (s *FirestoreStore) UpsertMerge(ctx context.Context, id string, changes map[string]any) (map[string]any, error) {
	ref := s.client.Collection(s.collection).Doc(id)
	var merged map[string]any
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		var current map[string]any
		switch {
		case status.Code(err) == codes.NotFound:
			current = s.defaults(id)
		case err != nil:
			return err
		default:
			current = snap.Data()
		}
		resolved := economydomain.Resolve(current, changes)
		merged = economydomain.Merge(current, resolved)
		return tx.Set(ref, merged)
	})
	if err != nil {
		s.logger.Error("record upsert failed",
			slog.String("record_id", id),
			slog.Any("error", err),
		)
		return nil, storeErr("upsert", id, err)
	}
	return merged, nil
}

func storeErr(op, id string, err error) error {
	return fmt.Errorf("%s record %q: %w", op, id, errors.Join(economydomain.ErrPersistence, err))
}
