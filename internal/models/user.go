// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is the privilege level of a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered account. Handle is the public, renamable identifier.
// Moderation state never appears in its JSON; ModeratedUser carries it.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Handle    string     `gorm:"size:64;not null;uniqueIndex" json:"handle"`
	Name      string     `gorm:"size:128" json:"name"`
	Bio       string     `gorm:"type:text" json:"bio"`
	Image     string     `gorm:"size:512;index" json:"image,omitempty"`
	Role      Role       `gorm:"size:16;not null" json:"role"`
	IsBanned  bool       `gorm:"not null" json:"-"`
	BanReason string     `gorm:"size:500" json:"-"`
	BannedAt  *time.Time `json:"-"`
	Badges    []Badge    `gorm:"foreignKey:UserID" json:"badges,omitempty"`
	Shops     []UserShop `gorm:"foreignKey:UserID" json:"shops,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// BeforeCreate defaults the role of new accounts.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// ModeratedUser is the account view for admins and for the account owner,
// and the cached form of a user.
type ModeratedUser struct {
	User
	IsBanned  bool       `json:"isBanned"`
	BanReason string     `json:"banReason,omitempty"`
	BannedAt  *time.Time `json:"bannedAt,omitempty"`
}

// WithModeration returns the moderated view of u.
func WithModeration(u *User) ModeratedUser {
	return ModeratedUser{User: *u, IsBanned: u.IsBanned, BanReason: u.BanReason, BannedAt: u.BannedAt}
}

// Unwrap returns the account with its moderation state restored.
func (m ModeratedUser) Unwrap() *User {
	u := m.User
	u.IsBanned, u.BanReason, u.BannedAt = m.IsBanned, m.BanReason, m.BannedAt
	return &u
}

// BadgeKind enumerates the badges an admin can grant.
type BadgeKind string

const (
	BadgeDeveloper   BadgeKind = "developer"
	BadgeContributor BadgeKind = "contributor"
	BadgeTranslator  BadgeKind = "translator"
	BadgeAlphaTester BadgeKind = "alpha_tester"
	BadgeShopOwner   BadgeKind = "shop_owner"
	BadgePatron      BadgeKind = "patron"
)

// Badge is a profile decoration granted to a user. One row per (user, kind).
type Badge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_badge" json:"userId"`
	Kind      BadgeKind `gorm:"size:32;not null;uniqueIndex:idx_user_badge" json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserShop links a user to a verified shop on an item platform.
type UserShop struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_shop" json:"userId"`
	Platform   string    `gorm:"size:32;not null;uniqueIndex:idx_user_shop" json:"platform"`
	ShopID     string    `gorm:"size:128;not null;uniqueIndex:idx_user_shop" json:"shopId"`
	ShopURL    string    `gorm:"size:512" json:"shopUrl"`
	VerifiedAt time.Time `json:"verifiedAt"`
}

// ShopVerificationCode is a short-lived code the user places on their shop page.
type ShopVerificationCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_shop_code" json:"userId"`
	Platform  string    `gorm:"size:32;not null;uniqueIndex:idx_shop_code" json:"platform"`
	ShopID    string    `gorm:"size:128;not null;uniqueIndex:idx_shop_code" json:"shopId"`
	Code      string    `gorm:"size:64;not null" json:"code"`
	ExpiresAt time.Time `gorm:"not null" json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the code is past its validity window.
func (c *ShopVerificationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
