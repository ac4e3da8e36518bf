// Package service implements the application's business logic on top of
// the repositories, the cache and the object store.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"avatio/internal/cache"
	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/observability"
	"avatio/internal/repository"

	"gorm.io/datatypes"
)

const defaultSideEffectTimeout = 10 * time.Second

// Side effect kinds, used as the metric label.
const (
	SideEffectNotify  = "notify"
	SideEffectPublish = "publish"
	SideEffectAudit   = "audit"
)

// Publisher pushes a payload to a user's real-time channel.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// NotificationInput is one notification to deliver.
type NotificationInput struct {
	UserID      uint
	Type        string
	Title       string
	Message     string
	Data        any
	ActionLabel string
	ActionURL   string
}

// AuditInput is one audit entry. A nil ActorID records a system actor.
type AuditInput struct {
	ActorID    *uint
	Action     string
	TargetType string
	TargetID   any
	Details    any
}

// Dispatcher runs the best-effort side effects of a committed write.
// Notification and audit inserts are detached from the request: they
// outlive its cancellation and never report back to the caller.
type Dispatcher struct {
	notifications repository.NotificationRepository
	audits        repository.AuditRepository
	cache         *cache.Cache
	publisher     Publisher
	timeout       time.Duration
	wg            sync.WaitGroup
}

// NewDispatcher builds a Dispatcher. cache and publisher may be nil.
func NewDispatcher(
	notifications repository.NotificationRepository,
	audits repository.AuditRepository,
	c *cache.Cache,
	publisher Publisher,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		audits:        audits,
		cache:         c,
		publisher:     publisher,
		timeout:       defaultSideEffectTimeout,
	}
}

// Go runs fn on its own goroutine with a context detached from ctx.
// Failures and panics are logged and counted.
func (d *Dispatcher) Go(ctx context.Context, kind string, fn func(ctx context.Context) error) {
	detached, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				observability.SideEffectFailures.WithLabelValues(kind).Inc()
				middleware.Logger.ErrorContext(detached, "side effect panicked",
					"kind", kind, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			}
		}()

		if err := fn(detached); err != nil {
			observability.SideEffectFailures.WithLabelValues(kind).Inc()
			middleware.Logger.WarnContext(detached, "side effect failed", "kind", kind, "error", err)
		}
	}()
}

// Notify inserts one notification and pushes it to the user's live connections.
func (d *Dispatcher) Notify(ctx context.Context, in NotificationInput) {
	d.Go(ctx, SideEffectNotify, func(ctx context.Context) error {
		n, err := d.buildNotification(in)
		if err != nil {
			return err
		}
		if err := d.notifications.Create(ctx, n); err != nil {
			return err
		}
		d.publish(ctx, n)
		return nil
	})
}

// NotifyNow inserts the notification synchronously and returns it. The
// real-time push stays detached.
func (d *Dispatcher) NotifyNow(ctx context.Context, in NotificationInput) (*models.Notification, error) {
	n, err := d.buildNotification(in)
	if err != nil {
		return nil, models.NewValidationError("Invalid notification data")
	}
	if err := d.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	d.Go(ctx, SideEffectPublish, func(ctx context.Context) error {
		d.publish(ctx, n)
		return nil
	})
	return n, nil
}

func (d *Dispatcher) buildNotification(in NotificationInput) (*models.Notification, error) {
	data, err := marshalJSON(in.Data)
	if err != nil {
		return nil, err
	}
	return &models.Notification{
		UserID:      in.UserID,
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		Data:        data,
		ActionLabel: in.ActionLabel,
		ActionURL:   in.ActionURL,
	}, nil
}

// NotificationEvent is the envelope pushed over the notification stream.
type NotificationEvent struct {
	Type    string               `json:"type"`
	Payload *models.Notification `json:"payload"`
}

func (d *Dispatcher) publish(ctx context.Context, n *models.Notification) {
	if d.publisher == nil {
		return
	}
	payload, err := json.Marshal(NotificationEvent{Type: "notification", Payload: n})
	if err != nil {
		return
	}
	if err := d.publisher.PublishUser(ctx, n.UserID, string(payload)); err != nil {
		observability.SideEffectFailures.WithLabelValues(SideEffectPublish).Inc()
		middleware.Logger.WarnContext(ctx, "notification publish failed",
			"user_id", n.UserID, "error", err)
	}
}

// Audit appends one audit entry.
func (d *Dispatcher) Audit(ctx context.Context, in AuditInput) {
	d.Go(ctx, SideEffectAudit, func(ctx context.Context) error {
		details, err := marshalJSON(in.Details)
		if err != nil {
			return err
		}
		kind := models.ActorUser
		if in.ActorID == nil {
			kind = models.ActorSystem
		}
		return d.audits.Create(ctx, &models.AuditLog{
			ActorID:    in.ActorID,
			ActorKind:  kind,
			Action:     in.Action,
			TargetType: in.TargetType,
			TargetID:   fmt.Sprint(in.TargetID),
			Details:    details,
		})
	})
}

// Purge invalidates keys synchronously. Failures are logged only.
func (d *Dispatcher) Purge(ctx context.Context, keys ...string) {
	if err := d.cache.Purge(ctx, keys...); err != nil {
		middleware.Logger.WarnContext(ctx, "cache purge failed", "keys", keys, "error", err)
	}
}

// Wait blocks until every side effect started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func marshalJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(datatypes.JSON); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
