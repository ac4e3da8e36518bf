package repository

import (
	"context"

	"avatio/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationRepository defines persistence operations for bookmarks, follows
// and mutes. Adds are idempotent and report whether a row was created;
// removals of a missing pair succeed.
type RelationRepository interface {
	AddBookmark(ctx context.Context, userID, setupID uint) (bool, error)
	RemoveBookmark(ctx context.Context, userID, setupID uint) error
	ListBookmarks(ctx context.Context, userID uint, page, limit int) ([]models.Setup, int64, error)

	Follow(ctx context.Context, followerID, followeeID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID uint) error
	Followers(ctx context.Context, userID uint, page, limit int) ([]models.User, int64, error)
	Following(ctx context.Context, userID uint, page, limit int) ([]models.User, int64, error)

	Mute(ctx context.Context, muterID, muteeID uint) (bool, error)
	Unmute(ctx context.Context, muterID, muteeID uint) error
	ListMutes(ctx context.Context, muterID uint, page, limit int) ([]models.User, int64, error)
}

type relationRepository struct {
	db *gorm.DB
}

// NewRelationRepository returns a new RelationRepository implementation.
func NewRelationRepository(db *gorm.DB) RelationRepository {
	return &relationRepository{db: db}
}

func (r *relationRepository) insert(ctx context.Context, row any) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *relationRepository) remove(ctx context.Context, model any, query string, args ...any) error {
	if err := r.db.WithContext(ctx).Where(query, args...).Delete(model).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *relationRepository) AddBookmark(ctx context.Context, userID, setupID uint) (bool, error) {
	return r.insert(ctx, &models.Bookmark{UserID: userID, SetupID: setupID})
}

func (r *relationRepository) RemoveBookmark(ctx context.Context, userID, setupID uint) error {
	return r.remove(ctx, &models.Bookmark{}, "user_id = ? AND setup_id = ?", userID, setupID)
}

func (r *relationRepository) ListBookmarks(ctx context.Context, userID uint, page, limit int) ([]models.Setup, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Setup{}).
		Joins("JOIN bookmarks ON bookmarks.setup_id = setups.id").
		Where("bookmarks.user_id = ? AND setups.hidden = ?", userID, false)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var setups []models.Setup
	if err := query.
		Preload("User").
		Preload("Images").
		Preload("Tags").
		Order("bookmarks.created_at DESC").
		Limit(limit).
		Offset(offset(page, limit)).
		Find(&setups).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return setups, total, nil
}

func (r *relationRepository) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return r.insert(ctx, &models.Follow{FollowerID: followerID, FolloweeID: followeeID})
}

func (r *relationRepository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	return r.remove(ctx, &models.Follow{}, "follower_id = ? AND followee_id = ?", followerID, followeeID)
}

func (r *relationRepository) Followers(ctx context.Context, userID uint, page, limit int) ([]models.User, int64, error) {
	return r.users(ctx, "JOIN follows ON follows.follower_id = users.id", "follows.followee_id = ?", "follows.created_at DESC", userID, page, limit)
}

func (r *relationRepository) Following(ctx context.Context, userID uint, page, limit int) ([]models.User, int64, error) {
	return r.users(ctx, "JOIN follows ON follows.followee_id = users.id", "follows.follower_id = ?", "follows.created_at DESC", userID, page, limit)
}

func (r *relationRepository) Mute(ctx context.Context, muterID, muteeID uint) (bool, error) {
	return r.insert(ctx, &models.Mute{MuterID: muterID, MuteeID: muteeID})
}

func (r *relationRepository) Unmute(ctx context.Context, muterID, muteeID uint) error {
	return r.remove(ctx, &models.Mute{}, "muter_id = ? AND mutee_id = ?", muterID, muteeID)
}

func (r *relationRepository) ListMutes(ctx context.Context, muterID uint, page, limit int) ([]models.User, int64, error) {
	return r.users(ctx, "JOIN mutes ON mutes.mutee_id = users.id", "mutes.muter_id = ?", "mutes.created_at DESC", muterID, page, limit)
}

func (r *relationRepository) users(ctx context.Context, join, where, order string, id uint, page, limit int) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Joins(join).Where(where, id)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	var users []models.User
	if err := query.Order(order).Limit(limit).Offset(offset(page, limit)).Find(&users).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}
