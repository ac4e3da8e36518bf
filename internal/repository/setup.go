package repository

import (
	"context"

	"avatio/internal/cache"
	"avatio/internal/models"

	"gorm.io/gorm"
)

// SetupFilter selects setups for listings.
type SetupFilter struct {
	Query  string
	Tag    string
	UserID uint
	// ViewerID excludes setups owned by users the viewer has muted.
	ViewerID      uint
	IncludeHidden bool
	Page          int
	Limit         int
}

// SetupRepository defines persistence operations for setups and their collections.
type SetupRepository interface {
	Get(ctx context.Context, id uint) (*models.Setup, error)
	List(ctx context.Context, f SetupFilter) ([]models.Setup, int64, error)
	// Create inserts a setup with all collections. When draftID is set the
	// owner's draft is deleted in the same transaction.
	Create(ctx context.Context, setup *models.Setup, draftID *uint) error
	// Update rewrites name and description and replaces every collection.
	Update(ctx context.Context, setup *models.Setup) error
	// Delete removes the setup and its rows, returning the image URLs it owned.
	Delete(ctx context.Context, id uint) ([]string, error)
	SetVisibility(ctx context.Context, id uint, hidden bool, reason string) error
}

type setupRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewSetupRepository returns a new SetupRepository implementation.
func NewSetupRepository(db *gorm.DB, c *cache.Cache) SetupRepository {
	return &setupRepository{db: db, cache: c}
}

func (r *setupRepository) Get(ctx context.Context, id uint) (*models.Setup, error) {
	var setup models.Setup
	err := r.cache.Aside(ctx, cache.SetupKey(id), &setup, cache.SetupTTL, func() error {
		err := r.db.WithContext(ctx).
			Preload("User").
			Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
			Preload("Items.Item").
			Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
			Preload("Tags").
			Preload("Coauthors.User").
			First(&setup, id).Error
		return translate(err, "Setup", id)
	})
	if err != nil {
		return nil, err
	}
	return &setup, nil
}

func (r *setupRepository) List(ctx context.Context, f SetupFilter) ([]models.Setup, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Setup{})
	if !f.IncludeHidden {
		query = query.Where("setups.hidden = ?", false)
	}
	if f.UserID != 0 {
		query = query.Where("setups.user_id = ?", f.UserID)
	}
	if f.Query != "" {
		pattern := likePattern(f.Query)
		query = query.Where("(LOWER(setups.name) LIKE LOWER(?) ESCAPE '\\' OR LOWER(setups.description) LIKE LOWER(?) ESCAPE '\\')", pattern, pattern)
	}
	if f.Tag != "" {
		query = query.Where("EXISTS (SELECT 1 FROM setup_tags st WHERE st.setup_id = setups.id AND st.tag = ?)", f.Tag)
	}
	if f.ViewerID != 0 {
		query = query.Where("setups.user_id NOT IN (SELECT mutee_id FROM mutes WHERE muter_id = ?)", f.ViewerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var setups []models.Setup
	if err := query.
		Preload("User").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Tags").
		Order("setups.created_at DESC, setups.id DESC").
		Limit(f.Limit).
		Offset(offset(f.Page, f.Limit)).
		Find(&setups).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return setups, total, nil
}

func (r *setupRepository) Create(ctx context.Context, setup *models.Setup, draftID *uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(setup).Error; err != nil {
			return err
		}
		if draftID == nil {
			return nil
		}
		return deleteDraft(tx, *draftID, setup.UserID)
	})
	return translate(err, "Setup", setup.ID)
}

func (r *setupRepository) Update(ctx context.Context, setup *models.Setup) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Setup{}).Where("id = ?", setup.ID).Updates(map[string]any{
			"name":        setup.Name,
			"description": setup.Description,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Setup", setup.ID)
		}

		if err := deleteSetupCollections(tx, setup.ID); err != nil {
			return err
		}
		return createSetupCollections(tx, setup)
	})
	return translate(err, "Setup", setup.ID)
}

func (r *setupRepository) Delete(ctx context.Context, id uint) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.SetupImage{}).Where("setup_id = ?", id).Pluck("url", &urls).Error; err != nil {
			return err
		}
		if err := deleteSetupCollections(tx, id); err != nil {
			return err
		}
		if err := tx.Where("setup_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		if err := tx.Where("setup_id = ?", id).Delete(&models.SetupReport{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SetupDraft{}).Where("setup_id = ?", id).Update("setup_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Setup{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Setup", id)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err, "Setup", id)
	}
	return urls, nil
}

func (r *setupRepository) SetVisibility(ctx context.Context, id uint, hidden bool, reason string) error {
	if !hidden {
		reason = ""
	}
	res := r.db.WithContext(ctx).Model(&models.Setup{}).Where("id = ?", id).Updates(map[string]any{
		"hidden":        hidden,
		"hidden_reason": reason,
	})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Setup", id)
	}
	return nil
}

func deleteSetupCollections(tx *gorm.DB, setupID uint) error {
	for _, model := range []any{&models.SetupItem{}, &models.SetupImage{}, &models.SetupTag{}, &models.SetupCoauthor{}} {
		if err := tx.Where("setup_id = ?", setupID).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func createSetupCollections(tx *gorm.DB, setup *models.Setup) error {
	for i := range setup.Items {
		setup.Items[i].ID = 0
		setup.Items[i].SetupID = setup.ID
	}
	for i := range setup.Images {
		setup.Images[i].ID = 0
		setup.Images[i].SetupID = setup.ID
	}
	for i := range setup.Tags {
		setup.Tags[i].ID = 0
		setup.Tags[i].SetupID = setup.ID
	}
	for i := range setup.Coauthors {
		setup.Coauthors[i].ID = 0
		setup.Coauthors[i].SetupID = setup.ID
	}

	if len(setup.Items) > 0 {
		if err := tx.Omit("Item").Create(&setup.Items).Error; err != nil {
			return err
		}
	}
	if len(setup.Images) > 0 {
		if err := tx.Create(&setup.Images).Error; err != nil {
			return err
		}
	}
	if len(setup.Tags) > 0 {
		if err := tx.Create(&setup.Tags).Error; err != nil {
			return err
		}
	}
	if len(setup.Coauthors) > 0 {
		if err := tx.Omit("User").Create(&setup.Coauthors).Error; err != nil {
			return err
		}
	}
	return nil
}
