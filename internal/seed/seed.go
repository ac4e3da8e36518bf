package seed

import (
	"context"
	"fmt"
	"strings"

	"avatio/internal/middleware"
	"avatio/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumItems    int
	NumSetups   int
	ShouldClean bool
	// AdminHandle, when set, creates or promotes that account to admin.
	AdminHandle string
	Factory     FactoryOptions
}

// Summary counts what a run created.
type Summary struct {
	Users     int
	Items     int
	Setups    int
	Follows   int
	Bookmarks int
	AdminID   uint
}

// seededTables are cleared by ShouldClean, children first.
var seededTables = []string{
	"bookmarks", "follows", "mutes",
	"setup_reports", "item_reports", "user_reports",
	"setup_items", "setup_images", "setup_tags", "setup_coauthors", "setups",
	"setup_draft_images", "setup_drafts",
	"notifications", "audit_logs", "badges", "user_shops", "shop_verification_codes",
	"items", "users",
}

// Seed populates the database with demo data.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (Summary, error) {
	var sum Summary
	middleware.Logger.InfoContext(ctx, "starting database seeding",
		"users", opts.NumUsers, "items", opts.NumItems, "setups", opts.NumSetups)

	db = db.WithContext(ctx)
	if opts.ShouldClean && !opts.Factory.DryRun {
		if err := clearData(db); err != nil {
			middleware.Logger.WarnContext(ctx, "could not clear all existing data, continuing", "error", err)
		}
	}

	f := NewFactory(db, opts.Factory)

	if opts.AdminHandle != "" {
		admin, err := ensureAdmin(db, f, opts.AdminHandle)
		if err != nil {
			return sum, fmt.Errorf("failed to ensure admin: %w", err)
		}
		sum.AdminID = admin.ID
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		u, err := f.CreateUser()
		if err != nil {
			return sum, fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	items := make([]*models.Item, 0, opts.NumItems)
	for range opts.NumItems {
		it, err := f.CreateItem()
		if err != nil {
			return sum, fmt.Errorf("failed to create item: %w", err)
		}
		items = append(items, it)
	}
	sum.Items = len(items)

	if len(users) == 0 {
		return sum, nil
	}

	setups := make([]*models.Setup, 0, opts.NumSetups)
	for i := range opts.NumSetups {
		s, err := f.CreateSetup(users[i%len(users)], items)
		if err != nil {
			return sum, fmt.Errorf("failed to create setup: %w", err)
		}
		setups = append(setups, s)
	}
	sum.Setups = len(setups)

	// A sparse social mesh: each user follows the next two and bookmarks one setup.
	for i, u := range users {
		for step := 1; step <= 2 && step < len(users); step++ {
			if err := f.CreateFollow(u, users[(i+step)%len(users)]); err != nil {
				return sum, fmt.Errorf("failed to create follow: %w", err)
			}
			sum.Follows++
		}
		if len(setups) > 0 {
			if err := f.CreateBookmark(u, setups[(i*7)%len(setups)]); err != nil {
				return sum, fmt.Errorf("failed to create bookmark: %w", err)
			}
			sum.Bookmarks++
		}
	}

	middleware.Logger.InfoContext(ctx, "database seeding completed",
		"users", sum.Users, "items", sum.Items, "setups", sum.Setups,
		"follows", sum.Follows, "bookmarks", sum.Bookmarks)
	return sum, nil
}

func ensureAdmin(db *gorm.DB, f *Factory, handle string) (*models.User, error) {
	var admin models.User
	err := db.Where("handle = ?", handle).Limit(1).Find(&admin).Error
	if err != nil {
		return nil, err
	}
	if admin.ID != 0 {
		if err := db.Model(&admin).Update("role", models.RoleAdmin).Error; err != nil {
			return nil, err
		}
		return &admin, nil
	}
	return f.CreateUser(func(u *models.User) {
		u.Handle = handle
		u.Name = handle
		u.Role = models.RoleAdmin
	})
}

func clearData(db *gorm.DB) error {
	middleware.Logger.Info("clearing existing data")
	if db.Dialector.Name() == "postgres" {
		return db.Exec("TRUNCATE TABLE " + strings.Join(seededTables, ", ") + " RESTART IDENTITY CASCADE").Error
	}
	for _, table := range seededTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
