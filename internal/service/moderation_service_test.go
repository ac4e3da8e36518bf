package service

import (
	"context"
	"testing"

	"avatio/internal/cache"
	"avatio/internal/models"
	"avatio/internal/repository"
	"avatio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationService_BanAndUnban(t *testing.T) {
	env := newTestEnv(t)
	svc := env.moderationService()
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.db, "admin", models.RoleAdmin)
	target := testutil.CreateUser(t, env.db, "target", models.RoleUser)

	// Warm the session cache so the purge is observable.
	_, err := env.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	require.True(t, env.mr.Exists(cache.UserKey(target.ID)))

	require.NoError(t, svc.Ban(ctx, &admin.ID, target.ID, BanInput{Reason: "<i>spam</i><script>x</script>"}))
	assert.False(t, env.mr.Exists(cache.UserKey(target.ID)))

	banned, err := env.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, banned.IsBanned)
	assert.NotContains(t, banned.BanReason, "script")
	assert.NotNil(t, banned.BannedAt)

	require.NoError(t, svc.Unban(ctx, &admin.ID, target.ID))
	restored, err := env.users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsBanned)

	notes := env.notificationsOf(t, target.ID)
	require.Len(t, notes, 2)
	assert.ElementsMatch(t, []string{models.NotificationBan, models.NotificationUnban}, []string{notes[0].Type, notes[1].Type})
	assert.ElementsMatch(t, []string{"user.ban", "user.unban"}, env.auditActions(t))
}

func TestModerationService_SelfProtection(t *testing.T) {
	env := newTestEnv(t)
	svc := env.moderationService()
	admin := testutil.CreateUser(t, env.db, "admin", models.RoleAdmin)

	assertCode(t, svc.Ban(context.Background(), &admin.ID, admin.ID, BanInput{}), models.CodeValidation)
	assertCode(t, svc.SetRole(context.Background(), &admin.ID, admin.ID, RoleInput{Role: models.RoleUser}), models.CodeValidation)
	assert.NoError(t, svc.SetRole(context.Background(), &admin.ID, admin.ID, RoleInput{Role: models.RoleAdmin}))
}

func TestModerationService_BanMissingUser(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin", models.RoleAdmin)

	err := env.moderationService().Ban(context.Background(), &admin.ID, 999, BanInput{})
	assertCode(t, err, models.CodeNotFound)
	assert.Empty(t, env.auditActions(t))
}

func TestModerationService_BadgesAreIdempotent(t *testing.T) {
	env := newTestEnv(t)
	svc := env.moderationService()
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.db, "admin", models.RoleAdmin)
	target := testutil.CreateUser(t, env.db, "target", models.RoleUser)

	require.NoError(t, svc.GrantBadge(ctx, &admin.ID, target.ID, models.BadgePatron))
	require.NoError(t, svc.GrantBadge(ctx, &admin.ID, target.ID, models.BadgePatron))
	require.NoError(t, svc.RevokeBadge(ctx, &admin.ID, target.ID, models.BadgePatron))
	require.NoError(t, svc.RevokeBadge(ctx, &admin.ID, target.ID, models.BadgePatron))
	assertCode(t, svc.GrantBadge(ctx, &admin.ID, target.ID, "wizard"), models.CodeValidation)

	assert.Len(t, env.notificationsOf(t, target.ID), 1)
	assert.ElementsMatch(t, []string{"badge.grant", "badge.revoke"}, env.auditActions(t))
}

func TestModerationService_SetSetupVisibility(t *testing.T) {
	env := newTestEnv(t)
	svc := env.moderationService()
	ctx := context.Background()
	admin := testutil.CreateUser(t, env.db, "admin", models.RoleAdmin)
	owner := testutil.CreateUser(t, env.db, "owner", models.RoleUser)
	s := testutil.CreateSetup(t, env.db, owner.ID, "one", nil, "cute")

	_, err := env.setups.Get(ctx, s.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SetSetupVisibility(ctx, &admin.ID, s.ID, VisibilityInput{Hidden: ptr(true), Reason: "nsfw"}))
	assert.False(t, env.mr.Exists(cache.SetupKey(s.ID)))

	got, err := env.setups.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.Hidden)
	assert.Equal(t, "nsfw", got.HiddenReason)

	notes := env.notificationsOf(t, owner.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationModeration, notes[0].Type)
	assert.Contains(t, notes[0].Message, "nsfw")
}

func TestModerationService_SendNotificationReturnsID(t *testing.T) {
	env := newTestEnv(t)
	svc := env.moderationService()
	admin := testutil.CreateUser(t, env.db, "admin", models.RoleAdmin)
	target := testutil.CreateUser(t, env.db, "target", models.RoleUser)

	id, err := svc.SendNotification(context.Background(), &admin.ID, SendNotificationInput{
		UserID:  target.ID,
		Type:    models.NotificationSystem,
		Title:   "Maintenance",
		Message: "Tonight",
		Data:    map[string]any{"window": "2h"},
	})
	require.NoError(t, err)

	notes := env.notificationsOf(t, target.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, id, notes[0].ID)

	logs, err := svc.ListAuditLogs(context.Background(), repository.AuditFilter{Action: "notification.send", Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 1, logs.Pagination.Total)

	_, err = svc.SendNotification(context.Background(), &admin.ID, SendNotificationInput{UserID: 999, Type: models.NotificationSystem, Title: "x"})
	assertCode(t, err, models.CodeNotFound)
}
