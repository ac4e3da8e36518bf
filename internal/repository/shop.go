package repository

import (
	"context"

	"avatio/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ShopRepository persists shop verification codes and verified shops.
type ShopRepository interface {
	// PutCode stores code, replacing any earlier code for the same shop.
	PutCode(ctx context.Context, code *models.ShopVerificationCode) error
	GetCode(ctx context.Context, userID uint, platform, shopID string) (*models.ShopVerificationCode, error)
	// Verify upserts the shop link and consumes the code in one transaction.
	Verify(ctx context.Context, shop *models.UserShop) error
}

type shopRepository struct {
	db *gorm.DB
}

// NewShopRepository returns a new ShopRepository implementation.
func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) PutCode(ctx context.Context, code *models.ShopVerificationCode) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "platform"}, {Name: "shop_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"code", "expires_at"}),
	}).Create(code).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *shopRepository) GetCode(ctx context.Context, userID uint, platform, shopID string) (*models.ShopVerificationCode, error) {
	var code models.ShopVerificationCode
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND platform = ? AND shop_id = ?", userID, platform, shopID).
		First(&code).Error; err != nil {
		return nil, translate(err, "Verification code", shopID)
	}
	return &code, nil
}

func (r *shopRepository) Verify(ctx context.Context, shop *models.UserShop) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "platform"}, {Name: "shop_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"shop_url", "verified_at"}),
		}).Create(shop).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND platform = ? AND shop_id = ?", shop.UserID, shop.Platform, shop.ShopID).
			Delete(&models.ShopVerificationCode{}).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
