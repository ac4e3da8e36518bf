package repository

import (
	"context"

	"avatio/internal/cache"
	"avatio/internal/models"

	"gorm.io/gorm"
)

// ItemUpdate carries admin corrections to an item. Nil fields are left untouched.
type ItemUpdate struct {
	Name     *string
	Price    *int
	Nsfw     *bool
	Category *string
}

// ItemRepository defines persistence operations for items.
type ItemRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Item, error)
	Search(ctx context.Context, q, platform string, page, limit int) ([]models.Item, int64, error)
	Update(ctx context.Context, id uint, in ItemUpdate) error
	// CountExisting returns how many of ids name existing items.
	CountExisting(ctx context.Context, ids []uint) (int64, error)
}

type itemRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewItemRepository returns a new ItemRepository implementation.
func NewItemRepository(db *gorm.DB, c *cache.Cache) ItemRepository {
	return &itemRepository{db: db, cache: c}
}

func (r *itemRepository) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := r.cache.Aside(ctx, cache.ItemKey(id), &item, cache.ItemTTL, func() error {
		return translate(r.db.WithContext(ctx).First(&item, id).Error, "Item", id)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) Search(ctx context.Context, q, platform string, page, limit int) ([]models.Item, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Item{})
	if q != "" {
		pattern := likePattern(q)
		query = query.Where("(LOWER(name) LIKE LOWER(?) ESCAPE '\\' OR LOWER(shop_name) LIKE LOWER(?) ESCAPE '\\')", pattern, pattern)
	}
	if platform != "" {
		query = query.Where("platform = ?", platform)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var items []models.Item
	if err := query.Order("id DESC").Limit(limit).Offset(offset(page, limit)).Find(&items).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return items, total, nil
}

func (r *itemRepository) Update(ctx context.Context, id uint, in ItemUpdate) error {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Price != nil {
		updates["price"] = *in.Price
	}
	if in.Nsfw != nil {
		updates["nsfw"] = *in.Nsfw
	}
	if in.Category != nil {
		updates["category"] = *in.Category
	}
	if len(updates) == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count == 0 {
			return models.NewNotFoundError("Item", id)
		}
		return nil
	}

	res := r.db.WithContext(ctx).Model(&models.Item{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Item", id)
	}
	return nil
}

func (r *itemRepository) CountExisting(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Item{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
