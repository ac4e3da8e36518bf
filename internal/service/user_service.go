package service

import (
	"context"
	"strings"

	"avatio/internal/cache"
	"avatio/internal/models"
	"avatio/internal/repository"
	"avatio/internal/storage"
	"avatio/internal/validation"
)

// UpdateProfileInput is the body of a profile update. Nil fields are unchanged.
type UpdateProfileInput struct {
	Handle *string `json:"handle" validate:"omitempty,handle"`
	Name   *string `json:"name" validate:"omitempty,min=1,max=128"`
	Bio    *string `json:"bio" validate:"omitempty,max=2000" sanitize:"html"`
	Image  *string `json:"image" validate:"omitempty,max=512"`
}

// UserService serves profiles and the caller's own account.
type UserService struct {
	users    repository.UserRepository
	setups   repository.SetupRepository
	cache    *cache.Cache
	resolver storage.URLResolver
	dispatch *Dispatcher
}

// NewUserService returns a new UserService.
func NewUserService(
	users repository.UserRepository,
	setups repository.SetupRepository,
	c *cache.Cache,
	resolver storage.URLResolver,
	dispatch *Dispatcher,
) *UserService {
	return &UserService{users: users, setups: setups, cache: c, resolver: resolver, dispatch: dispatch}
}

// GetProfile returns a user with badges and shops. The result is cached as
// a variant of the user's entity key.
func (s *UserService) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	key := cache.UserProfileKey(id)
	var rec models.ModeratedUser
	err := s.cache.AsideVariant(ctx, cache.UserKey(id), key, &rec, cache.UserTTL, func() error {
		u, err := s.users.GetProfile(ctx, id)
		if err != nil {
			return err
		}
		rec = models.WithModeration(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec.Unwrap(), nil
}

// GetByHandle resolves a public handle.
func (s *UserService) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	return s.users.GetByHandle(ctx, strings.ToLower(handle))
}

// ListSetups returns one page of a user's visible setups. Pages are cached
// and tracked so a purge of the user's setups drops every page.
func (s *UserService) ListSetups(ctx context.Context, userID uint, page, limit int) (models.Paginated[models.Setup], error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return models.Paginated[models.Setup]{}, err
	}

	key := cache.UserSetupsPageKey(userID, page, limit)
	var result models.Paginated[models.Setup]
	err := s.cache.AsideVariant(ctx, cache.UserSetupsKey(userID), key, &result, cache.UserSetupsTTL, func() error {
		setups, total, err := s.setups.List(ctx, repository.SetupFilter{UserID: userID, Page: page, Limit: limit})
		if err != nil {
			return err
		}
		result = models.NewPaginated(setups, page, limit, total)
		return nil
	})
	if err != nil {
		return models.Paginated[models.Setup]{}, err
	}
	return result, nil
}

// UpdateProfile applies in to userID. The bio is sanitized, the handle must
// be free and the avatar must live in the avatar namespace.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in UpdateProfileInput) (*models.User, error) {
	update := repository.ProfileUpdate{Name: in.Name}
	if in.Handle != nil {
		handle := strings.ToLower(strings.TrimSpace(*in.Handle))
		if err := validation.ValidateHandle(handle); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		update.Handle = &handle
	}
	if in.Bio != nil {
		bio := validation.SanitizeHTML(*in.Bio)
		update.Bio = &bio
	}
	if in.Image != nil && *in.Image != "" {
		key, ok := s.resolver.KeyFor(*in.Image)
		if !ok || storage.NamespaceOf(key) != storage.AvatarNamespace {
			return nil, models.NewValidationError("image must be an uploaded avatar")
		}
	}
	update.Image = in.Image

	if err := s.users.UpdateProfile(ctx, userID, update); err != nil {
		return nil, err
	}
	s.dispatch.Purge(ctx, cache.UserKey(userID), cache.UserSetupsKey(userID))
	return s.GetProfile(ctx, userID)
}
