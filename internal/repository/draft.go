package repository

import (
	"context"

	"avatio/internal/models"

	"gorm.io/gorm"
)

// DraftRepository defines persistence operations for setup drafts. Every
// query is scoped to the owning user.
type DraftRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.SetupDraft, error)
	Get(ctx context.Context, id, userID uint) (*models.SetupDraft, error)
	Create(ctx context.Context, draft *models.SetupDraft) error
	// Update replaces the content and images of a draft.
	Update(ctx context.Context, draft *models.SetupDraft) error
	Delete(ctx context.Context, id, userID uint) error
}

type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository returns a new DraftRepository implementation.
func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

func (r *draftRepository) ListByUser(ctx context.Context, userID uint) ([]models.SetupDraft, error) {
	var drafts []models.SetupDraft
	if err := r.db.WithContext(ctx).
		Preload("Images").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&drafts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return drafts, nil
}

func (r *draftRepository) Get(ctx context.Context, id, userID uint) (*models.SetupDraft, error) {
	var draft models.SetupDraft
	if err := r.db.WithContext(ctx).
		Preload("Images").
		Where("id = ? AND user_id = ?", id, userID).
		First(&draft).Error; err != nil {
		return nil, translate(err, "Draft", id)
	}
	return &draft, nil
}

func (r *draftRepository) Create(ctx context.Context, draft *models.SetupDraft) error {
	if err := r.db.WithContext(ctx).Create(draft).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *draftRepository) Update(ctx context.Context, draft *models.SetupDraft) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.SetupDraft{}).
			Where("id = ? AND user_id = ?", draft.ID, draft.UserID).
			Updates(map[string]any{"content": draft.Content, "setup_id": draft.SetupID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Draft", draft.ID)
		}
		if err := tx.Where("draft_id = ?", draft.ID).Delete(&models.SetupDraftImage{}).Error; err != nil {
			return err
		}
		for i := range draft.Images {
			draft.Images[i].ID = 0
			draft.Images[i].DraftID = draft.ID
		}
		if len(draft.Images) > 0 {
			return tx.Create(&draft.Images).Error
		}
		return nil
	})
	return translate(err, "Draft", draft.ID)
}

func (r *draftRepository) Delete(ctx context.Context, id, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteDraft(tx, id, userID)
	})
	return translate(err, "Draft", id)
}

func deleteDraft(tx *gorm.DB, id, userID uint) error {
	var count int64
	if err := tx.Model(&models.SetupDraft{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.NewNotFoundError("Draft", id)
	}
	if err := tx.Where("draft_id = ?", id).Delete(&models.SetupDraftImage{}).Error; err != nil {
		return err
	}
	return tx.Where("id = ? AND user_id = ?", id, userID).Delete(&models.SetupDraft{}).Error
}
