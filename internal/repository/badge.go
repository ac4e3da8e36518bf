package repository

import (
	"context"

	"avatio/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BadgeRepository grants and revokes profile badges.
type BadgeRepository interface {
	Grant(ctx context.Context, userID uint, kind models.BadgeKind) (bool, error)
	Revoke(ctx context.Context, userID uint, kind models.BadgeKind) (bool, error)
}

type badgeRepository struct {
	db *gorm.DB
}

// NewBadgeRepository returns a new BadgeRepository implementation.
func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

func (r *badgeRepository) Grant(ctx context.Context, userID uint, kind models.BadgeKind) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}, {Name: "kind"}}, DoNothing: true}).
		Create(&models.Badge{UserID: userID, Kind: kind})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *badgeRepository) Revoke(ctx context.Context, userID uint, kind models.BadgeKind) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND kind = ?", userID, kind).Delete(&models.Badge{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
