package models

import (
	"time"

	"gorm.io/datatypes"
)

// Setup is a user's published collection of avatar items.
type Setup struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"not null;index" json:"userId"`
	User         *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name         string          `gorm:"size:128;not null" json:"name"`
	Description  string          `gorm:"type:text" json:"description"`
	Hidden       bool            `gorm:"not null;index" json:"hidden"`
	HiddenReason string          `gorm:"size:500" json:"hiddenReason,omitempty"`
	Items        []SetupItem     `gorm:"foreignKey:SetupID;constraint:OnDelete:CASCADE" json:"items"`
	Images       []SetupImage    `gorm:"foreignKey:SetupID;constraint:OnDelete:CASCADE" json:"images"`
	Tags         []SetupTag      `gorm:"foreignKey:SetupID;constraint:OnDelete:CASCADE" json:"tags"`
	Coauthors    []SetupCoauthor `gorm:"foreignKey:SetupID;constraint:OnDelete:CASCADE" json:"coauthors"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// SetupItem places an item in a setup.
type SetupItem struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	SetupID     uint   `gorm:"not null;index" json:"setupId"`
	ItemID      uint   `gorm:"not null;index" json:"itemId"`
	Item        *Item  `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Note        string `gorm:"size:500" json:"note,omitempty"`
	Unsupported bool   `gorm:"not null" json:"unsupported"`
	Position    int    `gorm:"not null" json:"position"`
}

// SetupImage references an object-storage URL owned by a setup.
type SetupImage struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	SetupID     uint                        `gorm:"not null;index" json:"setupId"`
	URL         string                      `gorm:"size:512;not null;index" json:"url"`
	Width       int                         `json:"width"`
	Height      int                         `json:"height"`
	ThemeColors datatypes.JSONSlice[string] `json:"themeColors"`
	CreatedAt   time.Time                   `json:"createdAt"`
}

// SetupTag is a free-form label. Unique per setup.
type SetupTag struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	SetupID uint   `gorm:"not null;uniqueIndex:idx_setup_tag" json:"-"`
	Tag     string `gorm:"size:64;not null;uniqueIndex:idx_setup_tag;index" json:"tag"`
}

// SetupCoauthor credits another user on a setup.
type SetupCoauthor struct {
	ID      uint   `gorm:"primaryKey" json:"-"`
	SetupID uint   `gorm:"not null;uniqueIndex:idx_setup_coauthor" json:"-"`
	UserID  uint   `gorm:"not null;uniqueIndex:idx_setup_coauthor" json:"userId"`
	User    *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Note    string `gorm:"size:140" json:"note,omitempty"`
}

// SetupDraft is unpublished editor state. SetupID is set when the draft edits an existing setup.
type SetupDraft struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index" json:"userId"`
	SetupID   *uint             `gorm:"index" json:"setupId,omitempty"`
	Content   datatypes.JSON    `json:"content"`
	Images    []SetupDraftImage `gorm:"foreignKey:DraftID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// SetupDraftImage references an object-storage URL owned by a draft.
type SetupDraftImage struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	DraftID     uint                        `gorm:"not null;index" json:"draftId"`
	URL         string                      `gorm:"size:512;not null;index" json:"url"`
	Width       int                         `json:"width"`
	Height      int                         `json:"height"`
	ThemeColors datatypes.JSONSlice[string] `json:"themeColors"`
	CreatedAt   time.Time                   `json:"createdAt"`
}

// Item is a purchasable product mirrored from an external platform.
type Item struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Platform   string    `gorm:"size:32;not null;uniqueIndex:idx_item_platform_external" json:"platform"`
	ExternalID string    `gorm:"size:64;not null;uniqueIndex:idx_item_platform_external" json:"externalId"`
	Name       string    `gorm:"size:256;not null" json:"name"`
	Price      int       `json:"price"`
	ImageURL   string    `gorm:"size:512" json:"imageUrl"`
	ShopName   string    `gorm:"size:128" json:"shopName"`
	Category   string    `gorm:"size:64;index" json:"category"`
	Nsfw       bool      `gorm:"not null" json:"nsfw"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TagCount is a tag with the number of visible setups using it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}
