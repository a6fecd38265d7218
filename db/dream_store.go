package db

import (
	"context"
	"fmt"
	"time"

	"yuu/models"
	"yuu/pipeline"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
)

// DreamRepository is what the HTTP layer and the pipeline need from dream storage.
type DreamRepository interface {
	pipeline.Store
	Create(ctx context.Context, dream *models.Dream) error
	ListByOwner(ctx context.Context, ownerID int64, limit, skip int) ([]models.Dream, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]models.Dream, error)
}

// DreamStore keeps dreams in the relational database through gorm.
type DreamStore struct {
	db *gorm.DB
}

func NewDreamStore(db *gorm.DB) *DreamStore {
	return &DreamStore{db: db}
}

// Create assigns id, status and timestamps before inserting.
func (s *DreamStore) Create(ctx context.Context, dream *models.Dream) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prepareNewDream(dream)
	if err := s.db.Create(dream).Error; err != nil {
		return fmt.Errorf("%w: create dream: %v", pipeline.ErrPersistence, err)
	}
	return nil
}

func (s *DreamStore) Load(ctx context.Context, id string) (*models.Dream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var dream models.Dream
	if err := s.db.Where("id = ?", id).First(&dream).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, fmt.Errorf("%w: id=%s", pipeline.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: load dream %s: %v", pipeline.ErrPersistence, id, err)
	}
	return &dream, nil
}

// Replace saves every column of the dream. gorm's update callback refreshes UpdatedAt.
func (s *DreamStore) Replace(ctx context.Context, dream *models.Dream) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Save(dream).Error; err != nil {
		return fmt.Errorf("%w: replace dream %s: %v", pipeline.ErrPersistence, dream.ID, err)
	}
	return nil
}

// Claim: lock otimista, só muda para processing se o status ainda for o observado.
func (s *DreamStore) Claim(ctx context.Context, dream *models.Dream, force bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	observed := dream.Status
	if observed == models.DREAM_STATUS_PROCESSING && !force {
		return pipeline.ErrClaimConflict
	}

	res := s.db.Model(&models.Dream{}).
		Where("id = ? AND status = ?", dream.ID, observed).
		UpdateColumns(map[string]interface{}{
			"status":     models.DREAM_STATUS_PROCESSING,
			"analysis":   nil,
			"updated_at": dream.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("%w: claim dream %s: %v", pipeline.ErrPersistence, dream.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return pipeline.ErrClaimConflict
	}

	dream.Status = models.DREAM_STATUS_PROCESSING
	dream.Analysis = nil
	return nil
}

func (s *DreamStore) ListByOwner(ctx context.Context, ownerID int64, limit, skip int) ([]models.Dream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var dreams []models.Dream
	if err := s.db.
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Offset(skip).
		Limit(limit).
		Find(&dreams).Error; err != nil {
		return nil, fmt.Errorf("%w: list dreams: %v", pipeline.ErrPersistence, err)
	}
	return dreams, nil
}

func (s *DreamStore) ListByStatus(ctx context.Context, status string, limit int) ([]models.Dream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var dreams []models.Dream
	if err := s.db.
		Where("status = ?", status).
		Order("updated_at asc").
		Limit(limit).
		Find(&dreams).Error; err != nil {
		return nil, fmt.Errorf("%w: list dreams: %v", pipeline.ErrPersistence, err)
	}
	return dreams, nil
}

func prepareNewDream(dream *models.Dream) {
	now := time.Now().UTC()
	if dream.ID == "" {
		dream.ID = uuid.NewString()
	}
	if dream.Timestamp.IsZero() {
		dream.Timestamp = now
	}
	if dream.Timezone == "" {
		dream.Timezone = models.DREAM_DEFAULT_TIMEZONE
	}
	if dream.Language == "" {
		dream.Language = models.DREAM_DEFAULT_LANGUAGE
	}
	dream.Status = models.DREAM_STATUS_CREATED
	dream.Analysis = nil
	dream.AudioTranscript = ""
	dream.CreatedAt = now
	dream.UpdatedAt = now
}
