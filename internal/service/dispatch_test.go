package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"avatio/internal/models"
	"avatio/internal/observability"
	"avatio/internal/testutil"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_NotifyOutlivesRequestContext(t *testing.T) {
	env := newTestEnv(t)
	u := testutil.CreateUser(t, env.db, "alice", models.RoleUser)

	ctx, cancel := context.WithCancel(context.Background())
	env.dispatch.Notify(ctx, NotificationInput{
		UserID: u.ID,
		Type:   models.NotificationSystem,
		Title:  "hello",
		Data:   map[string]any{"k": "v"},
	})
	cancel()

	got := env.notificationsOf(t, u.ID)
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Title)
	assert.JSONEq(t, `{"k":"v"}`, string(got[0].Data))
	assert.Nil(t, got[0].ReadAt)

	require.Equal(t, 1, env.publisher.count(u.ID))
	var event NotificationEvent
	require.NoError(t, json.Unmarshal([]byte(env.publisher.payloads[u.ID][0]), &event))
	assert.Equal(t, "notification", event.Type)
	assert.Equal(t, got[0].ID, event.Payload.ID)
}

func TestDispatcher_FailuresAreCountedNotReturned(t *testing.T) {
	env := newTestEnv(t)

	before := promtest.ToFloat64(observability.SideEffectFailures.WithLabelValues("test_failure"))
	env.dispatch.Go(context.Background(), "test_failure", func(context.Context) error {
		return errors.New("boom")
	})
	env.dispatch.Go(context.Background(), "test_failure", func(context.Context) error {
		panic("kaboom")
	})
	env.dispatch.Wait()

	after := promtest.ToFloat64(observability.SideEffectFailures.WithLabelValues("test_failure"))
	assert.Equal(t, before+2, after)
}

func TestDispatcher_PublishFailureKeepsNotification(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("redis down")
	u := testutil.CreateUser(t, env.db, "bob", models.RoleUser)

	n, err := env.dispatch.NotifyNow(context.Background(), NotificationInput{
		UserID: u.ID,
		Type:   models.NotificationSystem,
		Title:  "maintenance",
	})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)

	got := env.notificationsOf(t, u.ID)
	require.Len(t, got, 1)
	assert.Equal(t, n.ID, got[0].ID)
}

func TestDispatcher_AuditRecordsActorKind(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.CreateUser(t, env.db, "admin", models.RoleAdmin)

	env.dispatch.Audit(context.Background(), AuditInput{ActorID: &admin.ID, Action: "user.ban", TargetType: "user", TargetID: uint(9)})
	env.dispatch.Audit(context.Background(), AuditInput{Action: "sweep.run", TargetType: "storage", TargetID: "setup/"})
	env.dispatch.Wait()

	var count int64
	require.NoError(t, env.db.Model(&models.AuditLog{}).Count(&count).Error)
	require.EqualValues(t, 2, count)

	// detached writes land in any order
	var ban, sweep models.AuditLog
	require.NoError(t, env.db.Where("action = ?", "user.ban").First(&ban).Error)
	require.NoError(t, env.db.Where("action = ?", "sweep.run").First(&sweep).Error)

	assert.Equal(t, models.ActorUser, ban.ActorKind)
	assert.Equal(t, "9", ban.TargetID)
	require.NotNil(t, ban.ActorID)
	assert.Equal(t, admin.ID, *ban.ActorID)

	assert.Equal(t, models.ActorSystem, sweep.ActorKind)
	assert.Equal(t, "setup/", sweep.TargetID)
	assert.Nil(t, sweep.ActorID)
}

func TestDispatcher_NilPublisherAndCache(t *testing.T) {
	env := newTestEnv(t)
	d := NewDispatcher(env.notifications, env.audits, nil, nil)
	u := testutil.CreateUser(t, env.db, "carol", models.RoleUser)

	d.Purge(context.Background(), "user:1")
	d.Notify(context.Background(), NotificationInput{UserID: u.ID, Type: models.NotificationSystem, Title: "quiet"})
	d.Wait()

	got := env.notificationsOf(t, u.ID)
	assert.Len(t, got, 1)
}
