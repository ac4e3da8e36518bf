package models

import "time"

// Bookmark is a (user, setup) pair. The composite key makes re-adding a no-op.
type Bookmark struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	SetupID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"setupId"`
	Setup     *Setup    `gorm:"foreignKey:SetupID;constraint:OnDelete:CASCADE" json:"setup,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Follow is a (follower, followee) pair.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"followerId"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followeeId"`
	Follower   *User     `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	Followee   *User     `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Mute hides the mutee's setups from the muter's listings.
type Mute struct {
	MuterID   uint      `gorm:"primaryKey;autoIncrement:false" json:"muterId"`
	MuteeID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"muteeId"`
	Mutee     *User     `gorm:"foreignKey:MuteeID" json:"mutee,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
