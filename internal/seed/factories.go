// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"avatio/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// FactoryOptions tune how entities are generated.
type FactoryOptions struct {
	// DryRun assigns synthetic IDs and logs instead of writing.
	DryRun bool
	// MaxDays spreads CreatedAt over this many past days. Defaults to 90.
	MaxDays int
	// Seed fixes the random source. Zero uses the clock.
	Seed int64
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts FactoryOptions
	rand *rand.Rand
	fake *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts FactoryOptions) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{
		db:     db,
		opts:   opts,
		rand:   rand.New(rand.NewSource(seed)), //nolint:gosec // demo data only
		fake:   gofakeit.New(seed),
		nextID: 1000,
	}
}

var (
	itemCategories = []string{"avatar", "hair", "clothing", "accessory", "shader", "gimmick", "texture"}
	setupTags      = []string{"casual", "cute", "cool", "gothic", "fantasy", "sci-fi", "kemomimi", "quest", "pc-only", "summer"}
	itemPlatforms  = []string{"booth", "gumroad"}
)

func (f *Factory) pastTime() time.Time {
	days := f.rand.Intn(f.opts.MaxDays)
	hours := f.rand.Intn(24)
	return time.Now().Add(-time.Duration(days)*24*time.Hour - time.Duration(hours)*time.Hour)
}

func (f *Factory) assignID() uint {
	f.nextID++
	return f.nextID
}

// CreateUser constructs and persists a sample user.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	handle := strings.ToLower(f.fake.Username())
	handle = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, handle)
	if len(handle) > 24 {
		handle = handle[:24]
	}
	user := &models.User{
		Handle: fmt.Sprintf("%s_%d", handle, f.fake.Number(100, 999)),
		Name:   f.fake.Name(),
		Bio:    f.fake.Sentence(10),
		Role:   models.RoleUser,
	}
	user.CreatedAt = f.pastTime()

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.assignID()
		log.Printf("[dry-run] CreateUser: %s", user.Handle)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateItem constructs and persists a sample catalog item.
func (f *Factory) CreateItem(overrides ...func(*models.Item)) (*models.Item, error) {
	item := &models.Item{
		Platform:   itemPlatforms[f.rand.Intn(len(itemPlatforms))],
		ExternalID: fmt.Sprintf("%d", f.fake.Number(1000000, 9999999)),
		Name:       f.fake.ProductName(),
		Price:      f.fake.Number(0, 60) * 100,
		ImageURL:   fmt.Sprintf("https://picsum.photos/seed/%s/512/512", f.fake.UUID()),
		ShopName:   f.fake.Company(),
		Category:   itemCategories[f.rand.Intn(len(itemCategories))],
		Nsfw:       f.rand.Intn(20) == 0,
	}

	for _, override := range overrides {
		override(item)
	}

	if f.opts.DryRun {
		item.ID = f.assignID()
		return item, nil
	}
	if err := f.db.Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// CreateSetup constructs and persists a setup for user using some of items.
func (f *Factory) CreateSetup(user *models.User, items []*models.Item, overrides ...func(*models.Setup)) (*models.Setup, error) {
	setup := &models.Setup{
		UserID:      user.ID,
		Name:        f.fake.HipsterSentence(3),
		Description: f.fake.Paragraph(1, 2, 12, "\n"),
	}
	setup.CreatedAt = f.pastTime()
	setup.UpdatedAt = setup.CreatedAt

	if n := len(items); n > 0 {
		for pos, idx := range f.rand.Perm(n)[:min(n, 1+f.rand.Intn(6))] {
			setup.Items = append(setup.Items, models.SetupItem{ItemID: items[idx].ID, Position: pos})
		}
	}
	for _, idx := range f.rand.Perm(len(setupTags))[:1+f.rand.Intn(3)] {
		setup.Tags = append(setup.Tags, models.SetupTag{Tag: setupTags[idx]})
	}

	for _, override := range overrides {
		override(setup)
	}

	if f.opts.DryRun {
		setup.ID = f.assignID()
		return setup, nil
	}
	if err := f.db.Create(setup).Error; err != nil {
		return nil, err
	}
	return setup, nil
}

// CreateFollow makes follower follow followee. Existing edges are kept.
func (f *Factory) CreateFollow(follower, followee *models.User) error {
	if f.opts.DryRun || follower.ID == followee.ID {
		return nil
	}
	return f.db.Where(models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}).
		FirstOrCreate(&models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}).Error
}

// CreateBookmark stores a bookmark of setup by user. Existing rows are kept.
func (f *Factory) CreateBookmark(user *models.User, setup *models.Setup) error {
	if f.opts.DryRun {
		return nil
	}
	return f.db.Where(models.Bookmark{UserID: user.ID, SetupID: setup.ID}).
		FirstOrCreate(&models.Bookmark{UserID: user.ID, SetupID: setup.ID}).Error
}
