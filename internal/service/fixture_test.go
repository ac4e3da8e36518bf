package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"avatio/internal/cache"
	"avatio/internal/models"
	"avatio/internal/repository"
	"avatio/internal/storage"
	"avatio/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPublicURL = "https://cdn.avatio.test"

// publisherStub records every pushed payload.
type publisherStub struct {
	mu       sync.Mutex
	payloads map[uint][]string
	err      error
}

func (p *publisherStub) PublishUser(_ context.Context, userID uint, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.payloads == nil {
		p.payloads = map[uint][]string{}
	}
	p.payloads[userID] = append(p.payloads[userID], payload)
	return p.err
}

func (p *publisherStub) count(userID uint) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads[userID])
}

type testEnv struct {
	db        *gorm.DB
	mr        *miniredis.Miniredis
	cache     *cache.Cache
	store     *storage.MemoryStore
	resolver  storage.URLResolver
	publisher *publisherStub
	dispatch  *Dispatcher

	users         repository.UserRepository
	setups        repository.SetupRepository
	drafts        repository.DraftRepository
	items         repository.ItemRepository
	tags          repository.TagRepository
	reports       repository.ReportRepository
	notifications repository.NotificationRepository
	audits        repository.AuditRepository
	relations     repository.RelationRepository
	badges        repository.BadgeRepository
	shops         repository.ShopRepository
	refs          repository.ImageReferenceRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := cache.New(rdb)

	env := &testEnv{
		db:            db,
		mr:            mr,
		cache:         c,
		store:         storage.NewMemoryStore(),
		resolver:      storage.NewURLResolver(testPublicURL),
		publisher:     &publisherStub{},
		users:         repository.NewUserRepository(db, c),
		setups:        repository.NewSetupRepository(db, c),
		drafts:        repository.NewDraftRepository(db),
		items:         repository.NewItemRepository(db, c),
		tags:          repository.NewTagRepository(db, c),
		reports:       repository.NewReportRepository(db),
		notifications: repository.NewNotificationRepository(db),
		audits:        repository.NewAuditRepository(db),
		relations:     repository.NewRelationRepository(db),
		badges:        repository.NewBadgeRepository(db),
		shops:         repository.NewShopRepository(db),
		refs:          repository.NewImageReferenceRepository(db),
	}
	env.dispatch = NewDispatcher(env.notifications, env.audits, c, env.publisher)
	t.Cleanup(env.dispatch.Wait)
	return env
}

func (e *testEnv) setupService() *SetupService {
	return NewSetupService(e.setups, e.drafts, e.items, e.users, e.refs, e.store, e.resolver, e.dispatch)
}

func (e *testEnv) userService() *UserService {
	return NewUserService(e.users, e.setups, e.cache, e.resolver, e.dispatch)
}

func (e *testEnv) moderationService() *ModerationService {
	return NewModerationService(e.users, e.setups, e.badges, e.audits, e.dispatch)
}

func (e *testEnv) relationService() *RelationService {
	return NewRelationService(e.relations, e.users, e.setups, e.dispatch)
}

func (e *testEnv) reportService() *ReportService {
	return NewReportService(e.reports, e.setups, e.items, e.users, e.dispatch)
}

// setupImage stores a blob under the setup namespace and returns its public URL.
func (e *testEnv) setupImage(name string) string {
	key := storage.SetupNamespace + name + ".webp"
	e.store.PutAt(key, []byte("img"), e.store.Now())
	return e.resolver.URLFor(key)
}

// notificationsOf waits for pending side effects and lists every notification of userID.
func (e *testEnv) notificationsOf(t *testing.T, userID uint) []models.Notification {
	t.Helper()
	e.dispatch.Wait()
	var out []models.Notification
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("id ASC").Find(&out).Error)
	return out
}

func (e *testEnv) auditActions(t *testing.T) []string {
	t.Helper()
	e.dispatch.Wait()
	var actions []string
	require.NoError(t, e.db.Model(&models.AuditLog{}).Order("id ASC").Pluck("action", &actions).Error)
	return actions
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func ptr[T any](v T) *T {
	return &v
}
