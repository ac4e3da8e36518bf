package database

import "avatio/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Parents precede the tables that reference them.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Badge{},
		&models.UserShop{},
		&models.ShopVerificationCode{},
		&models.Item{},
		&models.Setup{},
		&models.SetupItem{},
		&models.SetupImage{},
		&models.SetupTag{},
		&models.SetupCoauthor{},
		&models.SetupDraft{},
		&models.SetupDraftImage{},
		&models.Bookmark{},
		&models.Follow{},
		&models.Mute{},
		&models.SetupReport{},
		&models.ItemReport{},
		&models.UserReport{},
		&models.Notification{},
		&models.AuditLog{},
	}
}
