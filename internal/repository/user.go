package repository

import (
	"context"
	"time"

	"avatio/internal/cache"
	"avatio/internal/models"

	"gorm.io/gorm"
)

// ProfileUpdate carries the fields a user may change on their own profile.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Handle *string
	Name   *string
	Bio    *string
	Image  *string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetProfile(ctx context.Context, id uint) (*models.User, error)
	GetByHandle(ctx context.Context, handle string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) error
	SetBan(ctx context.Context, id uint, banned bool, reason string, at time.Time) error
	SetRole(ctx context.Context, id uint, role models.Role) error
	Search(ctx context.Context, q string, page, limit int) ([]models.User, int64, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB, c *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: c}
}

// GetByID returns the bare account row. It backs session resolution and is
// cached under user:<id>.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var rec models.ModeratedUser
	err := r.cache.Aside(ctx, cache.UserKey(id), &rec, cache.UserTTL, func() error {
		var user models.User
		if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
			return translate(err, "User", id)
		}
		rec = models.WithModeration(&user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec.Unwrap(), nil
}

// GetProfile returns the account with its badges and verified shops.
func (r *userRepository) GetProfile(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Preload("Badges").
		Preload("Shops").
		First(&user, id).Error; err != nil {
		return nil, translate(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByHandle(ctx context.Context, handle string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&user).Error; err != nil {
		return nil, translate(err, "User", handle)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Handle is already taken")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, in ProfileUpdate) error {
	updates := map[string]any{}
	if in.Handle != nil {
		updates["handle"] = *in.Handle
	}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Bio != nil {
		updates["bio"] = *in.Bio
	}
	if in.Image != nil {
		updates["image"] = *in.Image
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("Handle is already taken")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) SetBan(ctx context.Context, id uint, banned bool, reason string, at time.Time) error {
	updates := map[string]any{"is_banned": banned, "ban_reason": reason, "banned_at": nil}
	if banned {
		updates["banned_at"] = at
	}
	return r.update(ctx, id, updates)
}

func (r *userRepository) SetRole(ctx context.Context, id uint, role models.Role) error {
	return r.update(ctx, id, map[string]any{"role": role})
}

func (r *userRepository) update(ctx context.Context, id uint, updates map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) Search(ctx context.Context, q string, page, limit int) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if q != "" {
		pattern := likePattern(q)
		query = query.Where("(LOWER(handle) LIKE LOWER(?) ESCAPE '\\' OR LOWER(name) LIKE LOWER(?) ESCAPE '\\')", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var users []models.User
	if err := query.Order("id ASC").Limit(limit).Offset(offset(page, limit)).Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}
