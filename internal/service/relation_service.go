package service

import (
	"context"
	"fmt"

	"avatio/internal/models"
	"avatio/internal/repository"
)

// RelationService manages bookmarks, follows and mutes.
type RelationService struct {
	relations repository.RelationRepository
	users     repository.UserRepository
	setups    repository.SetupRepository
	dispatch  *Dispatcher
}

// NewRelationService returns a new RelationService.
func NewRelationService(
	relations repository.RelationRepository,
	users repository.UserRepository,
	setups repository.SetupRepository,
	dispatch *Dispatcher,
) *RelationService {
	return &RelationService{relations: relations, users: users, setups: setups, dispatch: dispatch}
}

// Bookmark saves setupID for userID.
func (s *RelationService) Bookmark(ctx context.Context, userID, setupID uint) error {
	if _, err := s.setups.Get(ctx, setupID); err != nil {
		return err
	}
	_, err := s.relations.AddBookmark(ctx, userID, setupID)
	return err
}

// RemoveBookmark forgets setupID for userID.
func (s *RelationService) RemoveBookmark(ctx context.Context, userID, setupID uint) error {
	return s.relations.RemoveBookmark(ctx, userID, setupID)
}

// ListBookmarks returns the caller's bookmarked setups.
func (s *RelationService) ListBookmarks(ctx context.Context, userID uint, page, limit int) (models.Paginated[models.Setup], error) {
	setups, total, err := s.relations.ListBookmarks(ctx, userID, page, limit)
	if err != nil {
		return models.Paginated[models.Setup]{}, err
	}
	return models.NewPaginated(setups, page, limit, total), nil
}

func (s *RelationService) target(ctx context.Context, actorID, targetID uint, verb string) (*models.User, error) {
	if actorID == targetID {
		return nil, models.NewValidationError(fmt.Sprintf("You cannot %s yourself", verb))
	}
	return s.users.GetByID(ctx, targetID)
}

// Follow makes followerID follow followeeID. The followee is notified the
// first time only.
func (s *RelationService) Follow(ctx context.Context, followerID, followeeID uint) error {
	if _, err := s.target(ctx, followerID, followeeID, "follow"); err != nil {
		return err
	}
	created, err := s.relations.Follow(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	follower, err := s.users.GetByID(ctx, followerID)
	name := "Someone"
	if err == nil && follower.Name != "" {
		name = follower.Name
	}
	s.dispatch.Notify(ctx, NotificationInput{
		UserID:    followeeID,
		Type:      models.NotificationFollow,
		Title:     "New follower",
		Message:   fmt.Sprintf("%s started following you.", name),
		Data:      map[string]any{"userId": followerID},
		ActionURL: fmt.Sprintf("/users/%d", followerID),
	})
	return nil
}

// Unfollow removes the follow if present.
func (s *RelationService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	if followerID == followeeID {
		return models.NewValidationError("You cannot unfollow yourself")
	}
	return s.relations.Unfollow(ctx, followerID, followeeID)
}

// Followers lists the accounts following userID.
func (s *RelationService) Followers(ctx context.Context, userID uint, page, limit int) (models.Paginated[models.User], error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return models.Paginated[models.User]{}, err
	}
	users, total, err := s.relations.Followers(ctx, userID, page, limit)
	if err != nil {
		return models.Paginated[models.User]{}, err
	}
	return models.NewPaginated(users, page, limit, total), nil
}

// Following lists the accounts userID follows.
func (s *RelationService) Following(ctx context.Context, userID uint, page, limit int) (models.Paginated[models.User], error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return models.Paginated[models.User]{}, err
	}
	users, total, err := s.relations.Following(ctx, userID, page, limit)
	if err != nil {
		return models.Paginated[models.User]{}, err
	}
	return models.NewPaginated(users, page, limit, total), nil
}

// Mute hides muteeID's setups from muterID's listings.
func (s *RelationService) Mute(ctx context.Context, muterID, muteeID uint) error {
	if _, err := s.target(ctx, muterID, muteeID, "mute"); err != nil {
		return err
	}
	_, err := s.relations.Mute(ctx, muterID, muteeID)
	return err
}

// Unmute removes the mute if present.
func (s *RelationService) Unmute(ctx context.Context, muterID, muteeID uint) error {
	if muterID == muteeID {
		return models.NewValidationError("You cannot unmute yourself")
	}
	return s.relations.Unmute(ctx, muterID, muteeID)
}

// ListMutes lists the accounts muterID has muted.
func (s *RelationService) ListMutes(ctx context.Context, muterID uint, page, limit int) (models.Paginated[models.User], error) {
	users, total, err := s.relations.ListMutes(ctx, muterID, page, limit)
	if err != nil {
		return models.Paginated[models.User]{}, err
	}
	return models.NewPaginated(users, page, limit, total), nil
}
