package cache

import (
	"fmt"
	"time"
)

const (
	userKeyFormat       = "user:%d"
	userSetupsKeyFormat = "user:%d:setups"
	setupKeyFormat      = "setup:%d"
	itemKeyFormat       = "item:%d"

	// PopularTagsKey holds the unfiltered tag ranking.
	PopularTagsKey = "tags:popular"
)

const (
	UserTTL        = time.Hour
	SetupTTL       = time.Minute
	ItemTTL        = 5 * time.Second
	UserSetupsTTL  = time.Minute
	PopularTagsTTL = 5 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(userKeyFormat, userID)
}

// UserSetupsKey is the entity key grouping every cached page of a user's setups.
func UserSetupsKey(userID uint) string {
	return fmt.Sprintf(userSetupsKeyFormat, userID)
}

// UserSetupsPageKey is one tracked variant of UserSetupsKey.
func UserSetupsPageKey(userID uint, page, limit int) string {
	return fmt.Sprintf("%s:%d:%d", UserSetupsKey(userID), page, limit)
}

// UserProfileKey is the tracked variant of UserKey holding the profile with badges and shops.
func UserProfileKey(userID uint) string {
	return UserKey(userID) + ":profile"
}

func SetupKey(setupID uint) string {
	return fmt.Sprintf(setupKeyFormat, setupID)
}

func ItemKey(itemID uint) string {
	return fmt.Sprintf(itemKeyFormat, itemID)
}

func variantsKey(entityKey string) string {
	return entityKey + ":variants"
}

// generationKey is bumped by every purge of entityKey. Fills watch it.
func generationKey(entityKey string) string {
	return entityKey + ":gen"
}
