package repository

import (
	"context"

	"avatio/internal/models"

	"gorm.io/gorm"
)

// ImageReferenceRepository lists every image URL the database references.
type ImageReferenceRepository interface {
	ListSetupImageURLs(ctx context.Context) ([]string, error)
	ListDraftImageURLs(ctx context.Context) ([]string, error)
	ListUserImageURLs(ctx context.Context) ([]string, error)
	// IsURLReferenced reports whether any setup, draft or user row links url.
	IsURLReferenced(ctx context.Context, url string) (bool, error)
}

type imageReferenceRepository struct {
	db *gorm.DB
}

// NewImageReferenceRepository returns a new ImageReferenceRepository implementation.
func NewImageReferenceRepository(db *gorm.DB) ImageReferenceRepository {
	return &imageReferenceRepository{db: db}
}

func (r *imageReferenceRepository) ListSetupImageURLs(ctx context.Context) ([]string, error) {
	return r.pluck(ctx, &models.SetupImage{}, "url")
}

func (r *imageReferenceRepository) ListDraftImageURLs(ctx context.Context) ([]string, error) {
	return r.pluck(ctx, &models.SetupDraftImage{}, "url")
}

func (r *imageReferenceRepository) ListUserImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("image <> ''").
		Distinct().
		Pluck("image", &urls).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return urls, nil
}

func (r *imageReferenceRepository) pluck(ctx context.Context, model any, column string) ([]string, error) {
	var urls []string
	if err := r.db.WithContext(ctx).Model(model).Distinct().Pluck(column, &urls).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return urls, nil
}

func (r *imageReferenceRepository) IsURLReferenced(ctx context.Context, url string) (bool, error) {
	checks := []struct {
		model  any
		column string
	}{
		{&models.SetupImage{}, "url"},
		{&models.SetupDraftImage{}, "url"},
		{&models.User{}, "image"},
	}
	for _, c := range checks {
		var count int64
		if err := r.db.WithContext(ctx).Model(c.model).Where(c.column+" = ?", url).Limit(1).Count(&count).Error; err != nil {
			return false, models.NewInternalError(err)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}
