package service

import (
	"context"
	"fmt"
	"time"

	"avatio/internal/cache"
	"avatio/internal/models"
	"avatio/internal/repository"
	"avatio/internal/validation"
)

// BanInput is the body of a ban.
type BanInput struct {
	Reason string `json:"reason" validate:"max=500" sanitize:"html"`
}

// RoleInput is the body of a role change.
type RoleInput struct {
	Role models.Role `json:"role" validate:"required,oneof=user admin"`
}

// VisibilityInput is the body of a setup visibility change.
type VisibilityInput struct {
	Hidden *bool  `json:"hidden" validate:"required"`
	Reason string `json:"reason" validate:"max=500" sanitize:"html"`
}

// SendNotificationInput is the body of an admin notification.
type SendNotificationInput struct {
	UserID      uint           `json:"userId" validate:"required"`
	Type        string         `json:"type" validate:"required,oneof=system moderation badge"`
	Title       string         `json:"title" validate:"required,max=200"`
	Message     string         `json:"message" validate:"max=2000" sanitize:"html"`
	ActionLabel string         `json:"actionLabel" validate:"max=64"`
	ActionURL   string         `json:"actionUrl" validate:"omitempty,url,max=512"`
	Data        map[string]any `json:"data"`
}

// ModerationService implements admin actions on accounts and content. Every
// action writes first, then purges, notifies the affected user and audits.
type ModerationService struct {
	users    repository.UserRepository
	setups   repository.SetupRepository
	badges   repository.BadgeRepository
	audits   repository.AuditRepository
	dispatch *Dispatcher

	// Now stamps ban times.
	Now func() time.Time
}

// NewModerationService returns a new ModerationService.
func NewModerationService(
	users repository.UserRepository,
	setups repository.SetupRepository,
	badges repository.BadgeRepository,
	audits repository.AuditRepository,
	dispatch *Dispatcher,
) *ModerationService {
	return &ModerationService{
		users:    users,
		setups:   setups,
		badges:   badges,
		audits:   audits,
		dispatch: dispatch,
		Now:      time.Now,
	}
}

func isSelf(actorID *uint, targetID uint) bool {
	return actorID != nil && *actorID == targetID
}

// SearchUsers lists accounts for the admin user table.
func (s *ModerationService) SearchUsers(ctx context.Context, q string, page, limit int) (models.Paginated[models.ModeratedUser], error) {
	users, total, err := s.users.Search(ctx, q, page, limit)
	if err != nil {
		return models.Paginated[models.ModeratedUser]{}, err
	}
	views := make([]models.ModeratedUser, len(users))
	for i := range users {
		views[i] = models.WithModeration(&users[i])
	}
	return models.NewPaginated(views, page, limit, total), nil
}

// Ban bans targetID. Admins cannot ban themselves.
func (s *ModerationService) Ban(ctx context.Context, actorID *uint, targetID uint, in BanInput) error {
	if isSelf(actorID, targetID) {
		return models.NewValidationError("You cannot ban yourself")
	}
	reason := validation.SanitizeHTML(in.Reason)
	if err := s.users.SetBan(ctx, targetID, true, reason, s.Now().UTC()); err != nil {
		return err
	}
	s.dispatch.Purge(ctx, cache.UserKey(targetID))

	message := "Your account has been banned."
	if reason != "" {
		message = fmt.Sprintf("Your account has been banned: %s", reason)
	}
	s.dispatch.Notify(ctx, NotificationInput{
		UserID:  targetID,
		Type:    models.NotificationBan,
		Title:   "Account banned",
		Message: message,
	})
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    actorID,
		Action:     "user.ban",
		TargetType: "user",
		TargetID:   targetID,
		Details:    map[string]any{"reason": reason},
	})
	return nil
}

// Unban lifts a ban on targetID.
func (s *ModerationService) Unban(ctx context.Context, actorID *uint, targetID uint) error {
	if err := s.users.SetBan(ctx, targetID, false, "", time.Time{}); err != nil {
		return err
	}
	s.dispatch.Purge(ctx, cache.UserKey(targetID))
	s.dispatch.Notify(ctx, NotificationInput{
		UserID:  targetID,
		Type:    models.NotificationUnban,
		Title:   "Account restored",
		Message: "Your account is no longer banned.",
	})
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    actorID,
		Action:     "user.unban",
		TargetType: "user",
		TargetID:   targetID,
	})
	return nil
}

// SetRole changes the role of targetID. Admins cannot demote themselves.
func (s *ModerationService) SetRole(ctx context.Context, actorID *uint, targetID uint, in RoleInput) error {
	if isSelf(actorID, targetID) && in.Role != models.RoleAdmin {
		return models.NewValidationError("You cannot remove your own admin role")
	}
	if err := s.users.SetRole(ctx, targetID, in.Role); err != nil {
		return err
	}
	s.dispatch.Purge(ctx, cache.UserKey(targetID))
	s.dispatch.Notify(ctx, NotificationInput{
		UserID:  targetID,
		Type:    models.NotificationRoleChange,
		Title:   "Role changed",
		Message: fmt.Sprintf("Your role is now %s.", in.Role),
		Data:    map[string]any{"role": in.Role},
	})
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    actorID,
		Action:     "user.role",
		TargetType: "user",
		TargetID:   targetID,
		Details:    map[string]any{"role": in.Role},
	})
	return nil
}

var grantableBadges = map[models.BadgeKind]struct{}{
	models.BadgeDeveloper:   {},
	models.BadgeContributor: {},
	models.BadgeTranslator:  {},
	models.BadgeAlphaTester: {},
	models.BadgeShopOwner:   {},
	models.BadgePatron:      {},
}

// GrantBadge gives targetID a badge. Granting a badge twice is a no-op.
func (s *ModerationService) GrantBadge(ctx context.Context, actorID *uint, targetID uint, kind models.BadgeKind) error {
	if _, ok := grantableBadges[kind]; !ok {
		return models.NewValidationError("Unknown badge")
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}
	created, err := s.badges.Grant(ctx, targetID, kind)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	s.dispatch.Purge(ctx, cache.UserKey(targetID))
	s.dispatch.Notify(ctx, NotificationInput{
		UserID:  targetID,
		Type:    models.NotificationBadge,
		Title:   "New badge",
		Message: fmt.Sprintf("You received the %s badge.", kind),
		Data:    map[string]any{"badge": kind},
	})
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    actorID,
		Action:     "badge.grant",
		TargetType: "user",
		TargetID:   targetID,
		Details:    map[string]any{"badge": kind},
	})
	return nil
}

// RevokeBadge removes a badge. Revoking a missing badge is a no-op.
func (s *ModerationService) RevokeBadge(ctx context.Context, actorID *uint, targetID uint, kind models.BadgeKind) error {
	if _, ok := grantableBadges[kind]; !ok {
		return models.NewValidationError("Unknown badge")
	}
	removed, err := s.badges.Revoke(ctx, targetID, kind)
	if err != nil {
		return err
	}
	if !removed {
		return nil
	}
	s.dispatch.Purge(ctx, cache.UserKey(targetID))
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    actorID,
		Action:     "badge.revoke",
		TargetType: "user",
		TargetID:   targetID,
		Details:    map[string]any{"badge": kind},
	})
	return nil
}

// SetSetupVisibility hides or restores a setup and tells its owner.
func (s *ModerationService) SetSetupVisibility(ctx context.Context, actorID *uint, setupID uint, in VisibilityInput) error {
	setup, err := s.setups.Get(ctx, setupID)
	if err != nil {
		return err
	}
	hidden := *in.Hidden
	reason := validation.SanitizeHTML(in.Reason)
	if err := s.setups.SetVisibility(ctx, setupID, hidden, reason); err != nil {
		return err
	}
	s.dispatch.Purge(ctx, cache.SetupKey(setupID), cache.UserSetupsKey(setup.UserID), cache.PopularTagsKey)

	title, message := "Setup restored", fmt.Sprintf("Your setup %q is visible again.", setup.Name)
	if hidden {
		title, message = "Setup hidden", fmt.Sprintf("Your setup %q was hidden by a moderator.", setup.Name)
		if reason != "" {
			message += " Reason: " + reason
		}
	}
	s.dispatch.Notify(ctx, NotificationInput{
		UserID:    setup.UserID,
		Type:      models.NotificationModeration,
		Title:     title,
		Message:   message,
		Data:      map[string]any{"setupId": setupID, "hidden": hidden},
		ActionURL: fmt.Sprintf("/setups/%d", setupID),
	})
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    actorID,
		Action:     "setup.visibility",
		TargetType: "setup",
		TargetID:   setupID,
		Details:    map[string]any{"hidden": hidden, "reason": reason},
	})
	return nil
}

// SendNotification delivers an admin-authored notification and returns its id.
func (s *ModerationService) SendNotification(ctx context.Context, actorID *uint, in SendNotificationInput) (uint, error) {
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return 0, err
	}
	n, err := s.dispatch.NotifyNow(ctx, NotificationInput{
		UserID:      in.UserID,
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		Data:        in.Data,
		ActionLabel: in.ActionLabel,
		ActionURL:   in.ActionURL,
	})
	if err != nil {
		return 0, err
	}
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    actorID,
		Action:     "notification.send",
		TargetType: "user",
		TargetID:   in.UserID,
		Details:    map[string]any{"notificationId": n.ID, "type": in.Type},
	})
	return n.ID, nil
}

// ListAuditLogs returns one page of the audit trail.
func (s *ModerationService) ListAuditLogs(ctx context.Context, f repository.AuditFilter) (models.Paginated[models.AuditLog], error) {
	logs, total, err := s.audits.List(ctx, f)
	if err != nil {
		return models.Paginated[models.AuditLog]{}, err
	}
	return models.NewPaginated(logs, f.Page, f.Limit, total), nil
}
