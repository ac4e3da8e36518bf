package models

import "time"

// ReportKind names one of the three report tables.
type ReportKind string

const (
	ReportSetups ReportKind = "setups"
	ReportItems  ReportKind = "items"
	ReportUsers  ReportKind = "users"
)

// Valid reports whether k is a known report kind.
func (k ReportKind) Valid() bool {
	switch k {
	case ReportSetups, ReportItems, ReportUsers:
		return true
	}
	return false
}

// SetupReport is a user-submitted flag on a setup.
type SetupReport struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ReporterID   uint      `gorm:"not null;index" json:"reporterId"`
	Reporter     *User     `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	SetupID      uint      `gorm:"not null;index" json:"setupId"`
	Setup        *Setup    `gorm:"foreignKey:SetupID;constraint:OnDelete:CASCADE" json:"setup,omitempty"`
	Spam         bool      `gorm:"not null" json:"spam"`
	Hate         bool      `gorm:"not null" json:"hate"`
	Infringement bool      `gorm:"not null" json:"infringement"`
	BadImage     bool      `gorm:"not null" json:"badImage"`
	Other        bool      `gorm:"not null" json:"other"`
	Comment      string    `gorm:"size:1000" json:"comment"`
	IsResolved   bool      `gorm:"not null;index" json:"isResolved"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ItemReport is a user-submitted flag on an item.
type ItemReport struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ReporterID   uint      `gorm:"not null;index" json:"reporterId"`
	Reporter     *User     `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	ItemID       uint      `gorm:"not null;index" json:"itemId"`
	Item         *Item     `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	Hate         bool      `gorm:"not null" json:"hate"`
	Infringement bool      `gorm:"not null" json:"infringement"`
	BadImage     bool      `gorm:"not null" json:"badImage"`
	Other        bool      `gorm:"not null" json:"other"`
	Comment      string    `gorm:"size:1000" json:"comment"`
	IsResolved   bool      `gorm:"not null;index" json:"isResolved"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserReport is a user-submitted flag on another account.
type UserReport struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ReporterID     uint      `gorm:"not null;index" json:"reporterId"`
	Reporter       *User     `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	ReportedUserID uint      `gorm:"not null;index" json:"reportedUserId"`
	ReportedUser   *User     `gorm:"foreignKey:ReportedUserID" json:"reportedUser,omitempty"`
	Spam           bool      `gorm:"not null" json:"spam"`
	Hate           bool      `gorm:"not null" json:"hate"`
	Infringement   bool      `gorm:"not null" json:"infringement"`
	BadImage       bool      `gorm:"not null" json:"badImage"`
	Impersonation  bool      `gorm:"not null" json:"impersonation"`
	Other          bool      `gorm:"not null" json:"other"`
	Comment        string    `gorm:"size:1000" json:"comment"`
	IsResolved     bool      `gorm:"not null;index" json:"isResolved"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
