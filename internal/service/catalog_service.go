package service

import (
	"context"
	"strings"

	"avatio/internal/cache"
	"avatio/internal/models"
	"avatio/internal/repository"
)

// ItemUpdateInput is the body of an admin item edit. Nil fields are unchanged.
type ItemUpdateInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=256"`
	Price    *int    `json:"price" validate:"omitempty,gte=0"`
	Nsfw     *bool   `json:"nsfw"`
	Category *string `json:"category" validate:"omitempty,max=64"`
}

// CatalogService serves items and tags.
type CatalogService struct {
	items    repository.ItemRepository
	tags     repository.TagRepository
	dispatch *Dispatcher
}

// NewCatalogService returns a new CatalogService.
func NewCatalogService(items repository.ItemRepository, tags repository.TagRepository, dispatch *Dispatcher) *CatalogService {
	return &CatalogService{items: items, tags: tags, dispatch: dispatch}
}

// GetItem returns an item by id.
func (s *CatalogService) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	return s.items.GetByID(ctx, id)
}

// SearchItems returns one page of items matching q on platform.
func (s *CatalogService) SearchItems(ctx context.Context, q, platform string, page, limit int) (models.Paginated[models.Item], error) {
	items, total, err := s.items.Search(ctx, strings.TrimSpace(q), platform, page, limit)
	if err != nil {
		return models.Paginated[models.Item]{}, err
	}
	return models.NewPaginated(items, page, limit, total), nil
}

// UpdateItem applies an admin edit and drops the cached item.
func (s *CatalogService) UpdateItem(ctx context.Context, actorID *uint, id uint, in ItemUpdateInput) error {
	err := s.items.Update(ctx, id, repository.ItemUpdate{
		Name:     in.Name,
		Price:    in.Price,
		Nsfw:     in.Nsfw,
		Category: in.Category,
	})
	if err != nil {
		return err
	}
	s.dispatch.Purge(ctx, cache.ItemKey(id))
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    actorID,
		Action:     "item.update",
		TargetType: "item",
		TargetID:   id,
		Details:    in,
	})
	return nil
}

// PopularTags returns the most used tags, optionally filtered by q.
func (s *CatalogService) PopularTags(ctx context.Context, q string, limit int) ([]models.TagCount, error) {
	tags, err := s.tags.Popular(ctx, strings.TrimSpace(q), limit)
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.TagCount{}
	}
	return tags, nil
}
