package repository

import (
	"context"
	"testing"
	"time"

	"avatio/internal/models"
	"avatio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestSetupRepository_CreateGetDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewSetupRepository(db, nil)

	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	coauthor := testutil.CreateUser(t, db, "coauthor", models.RoleUser)
	item := testutil.CreateItem(t, db, "Hair")

	draft := &models.SetupDraft{UserID: owner.ID, Content: datatypes.JSON(`{}`)}
	require.NoError(t, NewDraftRepository(db).Create(ctx, draft))

	setup := &models.Setup{
		UserID:    owner.ID,
		Name:      "Winter",
		Items:     []models.SetupItem{{ItemID: item.ID, Position: 0}},
		Images:    []models.SetupImage{{URL: "https://cdn.test/setup/a.webp", Width: 4, Height: 4}},
		Tags:      []models.SetupTag{{Tag: "cute"}},
		Coauthors: []models.SetupCoauthor{{UserID: coauthor.ID}},
	}
	require.NoError(t, repo.Create(ctx, setup, &draft.ID))

	_, err := NewDraftRepository(db).Get(ctx, draft.ID, owner.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "draft consumed by publish")

	got, err := repo.Get(ctx, setup.ID)
	require.NoError(t, err)
	assert.Equal(t, "Winter", got.Name)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Item)
	assert.Equal(t, "Hair", got.Items[0].Item.Name)
	require.Len(t, got.Coauthors, 1)
	assert.Equal(t, coauthor.ID, got.Coauthors[0].User.ID)

	urls, err := repo.Delete(ctx, setup.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/setup/a.webp"}, urls)

	_, err = repo.Get(ctx, setup.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	var left int64
	db.Model(&models.SetupImage{}).Where("setup_id = ?", setup.ID).Count(&left)
	assert.Zero(t, left)

	_, err = repo.Delete(ctx, setup.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestSetupRepository_CreateWithForeignDraftRollsBack(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	other := testutil.CreateUser(t, db, "other", models.RoleUser)
	draft := &models.SetupDraft{UserID: other.ID, Content: datatypes.JSON(`{}`)}
	require.NoError(t, NewDraftRepository(db).Create(ctx, draft))

	err := NewSetupRepository(db, nil).Create(ctx, &models.Setup{UserID: owner.ID, Name: "x"}, &draft.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	var count int64
	db.Model(&models.Setup{}).Count(&count)
	assert.Zero(t, count)
}

func TestSetupRepository_UpdateReplacesCollections(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewSetupRepository(db, nil)

	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	setup := testutil.CreateSetup(t, db, owner.ID, "Before", []string{"https://cdn.test/setup/old.webp"}, "old")

	setup.Name = "After"
	setup.Images = []models.SetupImage{{URL: "https://cdn.test/setup/new.webp"}}
	setup.Tags = []models.SetupTag{{Tag: "new"}, {Tag: "fresh"}}
	require.NoError(t, repo.Update(ctx, setup))

	got, err := repo.Get(ctx, setup.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "https://cdn.test/setup/new.webp", got.Images[0].URL)
	assert.Len(t, got.Tags, 2)

	err = repo.Update(ctx, &models.Setup{ID: 999, Name: "ghost"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))
}

func TestSetupRepository_ListFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewSetupRepository(db, nil)
	relations := NewRelationRepository(db)

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", models.RoleUser)
	testutil.CreateSetup(t, db, alice.ID, "Summer 100% cotton", nil, "summer")
	testutil.CreateSetup(t, db, bob.ID, "Winter coat", nil, "winter")
	hidden := testutil.CreateSetup(t, db, bob.ID, "Secret", nil)
	require.NoError(t, repo.SetVisibility(ctx, hidden.ID, true, "spam"))

	tests := []struct {
		name   string
		filter SetupFilter
		want   []string
	}{
		{"visible only", SetupFilter{}, []string{"Winter coat", "Summer 100% cotton"}},
		{"include hidden", SetupFilter{IncludeHidden: true}, []string{"Secret", "Winter coat", "Summer 100% cotton"}},
		{"by user", SetupFilter{UserID: alice.ID}, []string{"Summer 100% cotton"}},
		{"query escapes wildcards", SetupFilter{Query: "100%"}, []string{"Summer 100% cotton"}},
		{"percent alone is literal", SetupFilter{Query: "%"}, []string{"Summer 100% cotton"}},
		{"case insensitive", SetupFilter{Query: "WINTER"}, []string{"Winter coat"}},
		{"tag", SetupFilter{Tag: "summer"}, []string{"Summer 100% cotton"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.filter.Page, tt.filter.Limit = 1, 20
			setups, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.want)), total)
			var names []string
			for _, s := range setups {
				names = append(names, s.Name)
			}
			assert.ElementsMatch(t, tt.want, names)
		})
	}

	t.Run("mutes hide setups for the muter", func(t *testing.T) {
		_, err := relations.Mute(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		setups, total, err := repo.List(ctx, SetupFilter{ViewerID: alice.ID, Page: 1, Limit: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, alice.ID, setups[0].UserID)
	})
}

func TestSetupRepository_SetVisibilityClearsReason(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewSetupRepository(db, nil)

	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	setup := testutil.CreateSetup(t, db, owner.ID, "s", nil)

	require.NoError(t, repo.SetVisibility(ctx, setup.ID, true, "nsfw"))
	require.NoError(t, repo.SetVisibility(ctx, setup.ID, false, "ignored"))

	got, err := repo.Get(ctx, setup.ID)
	require.NoError(t, err)
	assert.False(t, got.Hidden)
	assert.Empty(t, got.HiddenReason)

	assert.True(t, models.IsCode(repo.SetVisibility(ctx, 999, true, ""), models.CodeNotFound))
}

func TestDraftRepository_ScopedToOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewDraftRepository(db)

	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	other := testutil.CreateUser(t, db, "other", models.RoleUser)

	draft := &models.SetupDraft{
		UserID:  owner.ID,
		Content: datatypes.JSON(`{"name":"wip"}`),
		Images:  []models.SetupDraftImage{{URL: "https://cdn.test/setup/d1.webp"}},
	}
	require.NoError(t, repo.Create(ctx, draft))

	_, err := repo.Get(ctx, draft.ID, other.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	draft.Images = []models.SetupDraftImage{{URL: "https://cdn.test/setup/d2.webp"}, {URL: "https://cdn.test/setup/d3.webp"}}
	require.NoError(t, repo.Update(ctx, draft))

	got, err := repo.Get(ctx, draft.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, got.Images, 2)

	drafts, err := repo.ListByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	assert.True(t, models.IsCode(repo.Delete(ctx, draft.ID, other.ID), models.CodeNotFound))
	require.NoError(t, repo.Delete(ctx, draft.ID, owner.ID))
}

func TestNotificationRepository_ReadState(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewNotificationRepository(db)

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", models.RoleUser)

	var ids []uint
	for _, title := range []string{"one", "two", "three"} {
		n := &models.Notification{UserID: alice.ID, Type: models.NotificationSystem, Title: title}
		require.NoError(t, repo.Create(ctx, n))
		ids = append(ids, n.ID)
	}

	count, err := repo.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	now := time.Now().UTC()
	require.NoError(t, repo.SetRead(ctx, ids[0], alice.ID, true, now))
	err = repo.SetRead(ctx, ids[1], bob.ID, true, now)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "another user's notification is not visible")

	unread, total, err := repo.List(ctx, alice.ID, true, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, unread, 2)

	require.NoError(t, repo.SetRead(ctx, ids[0], alice.ID, false, now))
	count, err = repo.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	updated, err := repo.MarkAllRead(ctx, alice.ID, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), updated)

	count, err = repo.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestReportRepository_ListAndResolve(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewReportRepository(db)

	reporter := testutil.CreateUser(t, db, "reporter", models.RoleUser)
	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)
	setup := testutil.CreateSetup(t, db, owner.ID, "s", nil)

	report := &models.SetupReport{ReporterID: reporter.ID, SetupID: setup.ID, Spam: true}
	require.NoError(t, repo.CreateSetupReport(ctx, report))
	require.NoError(t, repo.CreateUserReport(ctx, &models.UserReport{ReporterID: reporter.ID, ReportedUserID: owner.ID, Impersonation: true}))

	unresolved := false
	reports, total, err := repo.ListSetupReports(ctx, &unresolved, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.NotNil(t, reports[0].Reporter)
	assert.Equal(t, reporter.ID, reports[0].Reporter.ID)

	require.NoError(t, repo.SetResolved(ctx, models.ReportSetups, report.ID, true))
	_, total, err = repo.ListSetupReports(ctx, &unresolved, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = repo.ListSetupReports(ctx, nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	users, _, err := repo.ListUserReports(ctx, nil, 1, 20)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, owner.ID, users[0].ReportedUser.ID)

	assert.True(t, models.IsCode(repo.SetResolved(ctx, models.ReportItems, 42, true), models.CodeNotFound))
}

func TestRelationRepository_Idempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewRelationRepository(db)

	alice := testutil.CreateUser(t, db, "alice", models.RoleUser)
	bob := testutil.CreateUser(t, db, "bob", models.RoleUser)
	setup := testutil.CreateSetup(t, db, bob.ID, "s", nil)

	created, err := repo.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, created)

	followers, total, err := repo.Followers(ctx, bob.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, alice.ID, followers[0].ID)

	following, _, err := repo.Following(ctx, alice.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, following[0].ID)

	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
	require.NoError(t, repo.Unfollow(ctx, alice.ID, bob.ID))
	_, total, err = repo.Followers(ctx, bob.ID, 1, 20)
	require.NoError(t, err)
	assert.Zero(t, total)

	for i := 0; i < 2; i++ {
		_, err = repo.AddBookmark(ctx, alice.ID, setup.ID)
		require.NoError(t, err)
	}
	bookmarks, total, err := repo.ListBookmarks(ctx, alice.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, setup.ID, bookmarks[0].ID)
	require.NoError(t, repo.RemoveBookmark(ctx, alice.ID, setup.ID))

	created, err = repo.Mute(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, created)
	mutes, _, err := repo.ListMutes(ctx, alice.ID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, mutes[0].ID)
	require.NoError(t, repo.Unmute(ctx, alice.ID, bob.ID))
}

func TestBadgeRepository_GrantRevoke(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewBadgeRepository(db)
	user := testutil.CreateUser(t, db, "u", models.RoleUser)

	created, err := repo.Grant(ctx, user.ID, models.BadgePatron)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = repo.Grant(ctx, user.ID, models.BadgePatron)
	require.NoError(t, err)
	assert.False(t, created)

	profile, err := NewUserRepository(db, nil).GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, profile.Badges, 1)

	removed, err := repo.Revoke(ctx, user.ID, models.BadgePatron)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Revoke(ctx, user.ID, models.BadgePatron)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestShopRepository_VerifyConsumesCode(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewShopRepository(db)
	user := testutil.CreateUser(t, db, "seller", models.RoleUser)

	expires := time.Now().Add(time.Hour)
	require.NoError(t, repo.PutCode(ctx, &models.ShopVerificationCode{UserID: user.ID, Platform: "booth", ShopID: "shop1", Code: "first", ExpiresAt: expires}))
	require.NoError(t, repo.PutCode(ctx, &models.ShopVerificationCode{UserID: user.ID, Platform: "booth", ShopID: "shop1", Code: "second", ExpiresAt: expires}))

	code, err := repo.GetCode(ctx, user.ID, "booth", "shop1")
	require.NoError(t, err)
	assert.Equal(t, "second", code.Code)

	require.NoError(t, repo.Verify(ctx, &models.UserShop{UserID: user.ID, Platform: "booth", ShopID: "shop1", ShopURL: "https://shop1.booth.pm", VerifiedAt: time.Now()}))

	_, err = repo.GetCode(ctx, user.ID, "booth", "shop1")
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	profile, err := NewUserRepository(db, nil).GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, profile.Shops, 1)
	assert.Equal(t, "shop1", profile.Shops[0].ShopID)
}

func TestTagRepository_Popular(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, "owner", models.RoleUser)

	testutil.CreateSetup(t, db, owner.ID, "a", nil, "cute", "winter")
	testutil.CreateSetup(t, db, owner.ID, "b", nil, "cute")
	hidden := testutil.CreateSetup(t, db, owner.ID, "c", nil, "winter", "secret")
	require.NoError(t, NewSetupRepository(db, nil).SetVisibility(ctx, hidden.ID, true, ""))

	repo := NewTagRepository(db, nil)
	tags, err := repo.Popular(ctx, "", 10)
	require.NoError(t, err)
	assert.Equal(t, []models.TagCount{{Tag: "cute", Count: 2}, {Tag: "winter", Count: 1}}, tags)

	tags, err = repo.Popular(ctx, "WIN", 10)
	require.NoError(t, err)
	assert.Equal(t, []models.TagCount{{Tag: "winter", Count: 1}}, tags)
}

func TestImageReferenceRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	repo := NewImageReferenceRepository(db)

	user := testutil.CreateUser(t, db, "u", models.RoleUser)
	require.NoError(t, db.Model(user).Update("image", "https://cdn.test/avatar/me.webp").Error)
	testutil.CreateUser(t, db, "noimage", models.RoleUser)
	testutil.CreateSetup(t, db, user.ID, "s", []string{"https://cdn.test/setup/s1.webp"})
	require.NoError(t, NewDraftRepository(db).Create(ctx, &models.SetupDraft{
		UserID:  user.ID,
		Content: datatypes.JSON(`{}`),
		Images:  []models.SetupDraftImage{{URL: "https://cdn.test/setup/d1.webp"}},
	}))

	setups, err := repo.ListSetupImageURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/setup/s1.webp"}, setups)

	drafts, err := repo.ListDraftImageURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/setup/d1.webp"}, drafts)

	avatars, err := repo.ListUserImageURLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.test/avatar/me.webp"}, avatars)

	for url, want := range map[string]bool{
		"https://cdn.test/setup/s1.webp":   true,
		"https://cdn.test/setup/d1.webp":   true,
		"https://cdn.test/avatar/me.webp":  true,
		"https://cdn.test/setup/gone.webp": false,
	} {
		ok, err := repo.IsURLReferenced(ctx, url)
		require.NoError(t, err)
		assert.Equal(t, want, ok, url)
	}
}
