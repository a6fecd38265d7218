package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"yuu/models"
	"yuu/pipeline"
)

const dreamsCollection = "dreams"

// FirestoreDreamStore keeps dreams as Firestore documents keyed by dream id.
// Users stay in the relational database.
type FirestoreDreamStore struct {
	client *firestore.Client
}

func NewFirestoreDreamStore(ctx context.Context, projectID string) (*FirestoreDreamStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &FirestoreDreamStore{client: client}, nil
}

func (s *FirestoreDreamStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreDreamStore) dreamsCol() *firestore.CollectionRef {
	return s.client.Collection(dreamsCollection)
}

func (s *FirestoreDreamStore) Create(ctx context.Context, dream *models.Dream) error {
	prepareNewDream(dream)
	if _, err := s.dreamsCol().Doc(dream.ID).Create(ctx, dream); err != nil {
		return fmt.Errorf("%w: firestore create dream: %v", pipeline.ErrPersistence, err)
	}
	return nil
}

func (s *FirestoreDreamStore) Load(ctx context.Context, id string) (*models.Dream, error) {
	snap, err := s.dreamsCol().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("%w: id=%s", pipeline.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: firestore load dream: %v", pipeline.ErrPersistence, err)
	}
	return decodeDream(snap)
}

// Replace overwrites the whole document (no merge).
func (s *FirestoreDreamStore) Replace(ctx context.Context, dream *models.Dream) error {
	if _, err := s.dreamsCol().Doc(dream.ID).Set(ctx, dream); err != nil {
		return fmt.Errorf("%w: firestore replace dream: %v", pipeline.ErrPersistence, err)
	}
	return nil
}

// Claim runs the status compare-and-set inside a transaction.
func (s *FirestoreDreamStore) Claim(ctx context.Context, dream *models.Dream, force bool) error {
	observed := dream.Status
	if observed == models.DREAM_STATUS_PROCESSING && !force {
		return pipeline.ErrClaimConflict
	}

	ref := s.dreamsCol().Doc(dream.ID)
	var claimed *models.Dream
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return pipeline.ErrNotFound
			}
			return err
		}
		current, err := decodeDream(snap)
		if err != nil {
			return err
		}
		if current.Status != observed {
			return pipeline.ErrClaimConflict
		}

		current.Status = models.DREAM_STATUS_PROCESSING
		current.Analysis = nil
		current.UpdatedAt = dream.UpdatedAt
		claimed = current
		return tx.Set(ref, current)
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrClaimConflict) || errors.Is(err, pipeline.ErrNotFound) {
			return err
		}
		return fmt.Errorf("%w: firestore claim dream: %v", pipeline.ErrPersistence, err)
	}

	*dream = *claimed
	return nil
}

func (s *FirestoreDreamStore) ListByOwner(ctx context.Context, ownerID int64, limit, skip int) ([]models.Dream, error) {
	q := s.dreamsCol().Where("user_id", "==", ownerID).OrderBy("created_at", firestore.Desc)
	if skip > 0 {
		q = q.Offset(skip)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	return s.collect(ctx, q)
}

func (s *FirestoreDreamStore) ListByStatus(ctx context.Context, st string, limit int) ([]models.Dream, error) {
	q := s.dreamsCol().Where("status", "==", st).OrderBy("updated_at", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	return s.collect(ctx, q)
}

func (s *FirestoreDreamStore) collect(ctx context.Context, q firestore.Query) ([]models.Dream, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []models.Dream
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("%w: firestore list dreams: %v", pipeline.ErrPersistence, err)
		}
		dream, err := decodeDream(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, *dream)
	}
	return out, nil
}

func decodeDream(snap *firestore.DocumentSnapshot) (*models.Dream, error) {
	var dream models.Dream
	if err := snap.DataTo(&dream); err != nil {
		return nil, fmt.Errorf("%w: decode dream %s: %v", pipeline.ErrPersistence, snap.Ref.ID, err)
	}
	dream.ID = snap.Ref.ID
	if dream.Analysis != nil {
		if err := dream.Analysis.Validate(); err != nil {
			return nil, fmt.Errorf("%w: dream %s has invalid analysis: %v", pipeline.ErrPersistence, snap.Ref.ID, err)
		}
	}
	return &dream, nil
}
