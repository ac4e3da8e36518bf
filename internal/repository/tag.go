package repository

import (
	"context"

	"avatio/internal/cache"
	"avatio/internal/models"

	"gorm.io/gorm"
)

// TagRepository ranks the tags used by visible setups.
type TagRepository interface {
	Popular(ctx context.Context, q string, limit int) ([]models.TagCount, error)
}

type tagRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB, c *cache.Cache) TagRepository {
	return &tagRepository{db: db, cache: c}
}

// Popular returns the most used tags. The unfiltered ranking is cached.
func (r *tagRepository) Popular(ctx context.Context, q string, limit int) ([]models.TagCount, error) {
	var tags []models.TagCount
	fetch := func() error {
		query := r.db.WithContext(ctx).
			Table("setup_tags").
			Select("setup_tags.tag AS tag, COUNT(*) AS count").
			Joins("JOIN setups ON setups.id = setup_tags.setup_id").
			Where("setups.hidden = ?", false)
		if q != "" {
			query = query.Where("LOWER(setup_tags.tag) LIKE LOWER(?) ESCAPE '\\'", likePattern(q))
		}
		if err := query.Group("setup_tags.tag").
			Order("count DESC, tag ASC").
			Limit(limit).
			Scan(&tags).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	}

	if q != "" {
		if err := fetch(); err != nil {
			return nil, err
		}
		return tags, nil
	}
	if err := r.cache.Aside(ctx, cache.PopularTagsKey, &tags, cache.PopularTagsTTL, fetch); err != nil {
		return nil, err
	}
	return tags, nil
}
