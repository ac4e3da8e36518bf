package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types.
const (
	NotificationBan        = "ban"
	NotificationUnban      = "unban"
	NotificationRoleChange = "role_change"
	NotificationModeration = "moderation"
	NotificationFollow     = "follow"
	NotificationCoauthor   = "coauthor"
	NotificationBadge      = "badge"
	NotificationSystem     = "system"
)

// Notification is addressed to a single user. Only ReadAt ever changes after insert.
type Notification struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"not null;index:idx_notifications_user_created" json:"userId"`
	Type        string         `gorm:"size:32;not null" json:"type"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Message     string         `gorm:"type:text" json:"message"`
	Data        datatypes.JSON `json:"data,omitempty"`
	ActionLabel string         `gorm:"size:64" json:"actionLabel,omitempty"`
	ActionURL   string         `gorm:"size:512" json:"actionUrl,omitempty"`
	ReadAt      *time.Time     `json:"readAt"`
	CreatedAt   time.Time      `gorm:"index:idx_notifications_user_created" json:"createdAt"`
}

// Actor kinds recorded on audit rows.
const (
	ActorUser   = "user"
	ActorSystem = "system"
)

// AuditLog is an append-only record of an admin or system action.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	ActorID    *uint          `gorm:"index" json:"actorId"`
	ActorKind  string         `gorm:"size:16;not null" json:"actorKind"`
	Action     string         `gorm:"size:64;not null;index" json:"action"`
	TargetType string         `gorm:"size:32;not null;index:idx_audit_target" json:"targetType"`
	TargetID   string         `gorm:"size:64;not null;index:idx_audit_target" json:"targetId"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}
