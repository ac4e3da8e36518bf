package service

import (
	"context"
	"fmt"
	"strings"

	"avatio/internal/cache"
	"avatio/internal/middleware"
	"avatio/internal/models"
	"avatio/internal/repository"
	"avatio/internal/storage"
	"avatio/internal/validation"

	"gorm.io/datatypes"
)

// SetupItemInput places one item in a setup.
type SetupItemInput struct {
	ItemID      uint   `json:"itemId" validate:"required"`
	Note        string `json:"note" validate:"max=500" sanitize:"html"`
	Unsupported bool   `json:"unsupported"`
}

// SetupImageInput attaches one uploaded image.
type SetupImageInput struct {
	URL         string   `json:"url" validate:"required,url,max=512"`
	Width       int      `json:"width" validate:"gte=0"`
	Height      int      `json:"height" validate:"gte=0"`
	ThemeColors []string `json:"themeColors" validate:"max=3,dive,hexcolor"`
}

// CoauthorInput credits another user.
type CoauthorInput struct {
	UserID uint   `json:"userId" validate:"required"`
	Note   string `json:"note" validate:"max=140" sanitize:"html"`
}

// SetupInput is the body of a setup create or update.
type SetupInput struct {
	Name        string            `json:"name" validate:"required,max=128"`
	Description string            `json:"description" validate:"max=5000" sanitize:"html"`
	Items       []SetupItemInput  `json:"items" validate:"max=64,dive"`
	Images      []SetupImageInput `json:"images" validate:"max=8,dive"`
	Tags        []string          `json:"tags" validate:"max=16,dive,min=1,max=64"`
	Coauthors   []CoauthorInput   `json:"coauthors" validate:"max=16,dive"`
	// DraftID is deleted together with the publish. Ignored on update.
	DraftID *uint `json:"draftId"`
}

// Validate rejects items listed twice.
func (in SetupInput) Validate() error {
	seen := make(map[uint]struct{}, len(in.Items))
	for _, it := range in.Items {
		if _, dup := seen[it.ItemID]; dup {
			return models.NewValidationError(fmt.Sprintf("Item %d is listed twice", it.ItemID))
		}
		seen[it.ItemID] = struct{}{}
	}
	return nil
}

// DraftInput is the body of a draft create or update.
type DraftInput struct {
	SetupID *uint             `json:"setupId"`
	Content datatypes.JSON    `json:"content" validate:"required" sanitize:"html"`
	Images  []SetupImageInput `json:"images" validate:"max=8,dive"`
}

// DeleteSetupResult carries a warning when some images could not be removed
// from storage after the setup itself was deleted.
type DeleteSetupResult struct {
	Warning string `json:"warning,omitempty"`
}

// Viewer is the caller as far as setup visibility is concerned.
type Viewer struct {
	UserID  uint
	IsAdmin bool
}

// SetupService publishes, edits and deletes setups and their drafts.
type SetupService struct {
	setups   repository.SetupRepository
	drafts   repository.DraftRepository
	items    repository.ItemRepository
	users    repository.UserRepository
	refs     repository.ImageReferenceRepository
	store    storage.ObjectStore
	resolver storage.URLResolver
	dispatch *Dispatcher
}

// NewSetupService returns a new SetupService.
func NewSetupService(
	setups repository.SetupRepository,
	drafts repository.DraftRepository,
	items repository.ItemRepository,
	users repository.UserRepository,
	refs repository.ImageReferenceRepository,
	store storage.ObjectStore,
	resolver storage.URLResolver,
	dispatch *Dispatcher,
) *SetupService {
	return &SetupService{
		setups:   setups,
		drafts:   drafts,
		items:    items,
		users:    users,
		refs:     refs,
		store:    store,
		resolver: resolver,
		dispatch: dispatch,
	}
}

// List returns one page of setups matching f.
func (s *SetupService) List(ctx context.Context, f repository.SetupFilter) (models.Paginated[models.Setup], error) {
	setups, total, err := s.setups.List(ctx, f)
	if err != nil {
		return models.Paginated[models.Setup]{}, err
	}
	return models.NewPaginated(setups, f.Page, f.Limit, total), nil
}

// Get returns a setup. Hidden setups are visible only to their owner and admins.
func (s *SetupService) Get(ctx context.Context, id uint, viewer Viewer) (*models.Setup, error) {
	setup, err := s.setups.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if setup.Hidden && !viewer.IsAdmin && viewer.UserID != setup.UserID {
		return nil, models.NewNotFoundError("Setup", id)
	}
	return setup, nil
}

// Create publishes a setup for userID and returns its id.
func (s *SetupService) Create(ctx context.Context, userID uint, in SetupInput) (uint, error) {
	setup, err := s.build(ctx, userID, in)
	if err != nil {
		return 0, err
	}
	if err := s.setups.Create(ctx, setup, in.DraftID); err != nil {
		return 0, err
	}

	s.dispatch.Purge(ctx, cache.UserSetupsKey(userID), cache.PopularTagsKey)
	s.notifyCoauthors(ctx, setup, nil)
	return setup.ID, nil
}

// Update replaces a setup owned by userID.
func (s *SetupService) Update(ctx context.Context, userID, id uint, in SetupInput) error {
	existing, err := s.setups.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return models.NewForbiddenError("You can only edit your own setups")
	}

	setup, err := s.build(ctx, userID, in)
	if err != nil {
		return err
	}
	setup.ID = id
	if err := s.setups.Update(ctx, setup); err != nil {
		return err
	}

	s.dispatch.Purge(ctx, cache.SetupKey(id), cache.UserSetupsKey(userID), cache.PopularTagsKey)
	previous := make(map[uint]struct{}, len(existing.Coauthors))
	for _, c := range existing.Coauthors {
		previous[c.UserID] = struct{}{}
	}
	s.notifyCoauthors(ctx, setup, previous)
	return nil
}

// Delete removes a setup owned by the viewer, or any setup for an admin,
// then removes its images from storage on a best-effort basis.
func (s *SetupService) Delete(ctx context.Context, viewer Viewer, id uint) (*DeleteSetupResult, error) {
	existing, err := s.setups.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != viewer.UserID && !viewer.IsAdmin {
		return nil, models.NewForbiddenError("You can only delete your own setups")
	}

	urls, err := s.setups.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.dispatch.Purge(ctx, cache.SetupKey(id), cache.UserSetupsKey(existing.UserID), cache.PopularTagsKey)

	if existing.UserID != viewer.UserID {
		actor := viewer.UserID
		s.dispatch.Audit(ctx, AuditInput{
			ActorID:    &actor,
			Action:     "setup.delete",
			TargetType: "setup",
			TargetID:   id,
			Details:    map[string]any{"ownerId": existing.UserID, "name": existing.Name},
		})
	}

	failed := s.deleteImages(ctx, urls)
	if failed == 0 {
		return &DeleteSetupResult{}, nil
	}
	return &DeleteSetupResult{
		Warning: fmt.Sprintf("Setup deleted, but %d of %d images could not be removed from storage", failed, len(urls)),
	}, nil
}

// deleteImages removes every image no other row still references and
// returns how many could not be removed.
func (s *SetupService) deleteImages(ctx context.Context, urls []string) int {
	failed := 0
	for _, url := range urls {
		key, ok := s.resolver.KeyFor(url)
		if !ok {
			continue
		}
		inUse, err := s.refs.IsURLReferenced(ctx, url)
		if err == nil && inUse {
			continue
		}
		if err == nil {
			err = s.store.Delete(ctx, key)
		}
		if err != nil {
			failed++
			middleware.Logger.WarnContext(ctx, "failed to delete setup image", "key", key, "error", err)
		}
	}
	return failed
}

// build validates references in in and converts it to a setup row.
func (s *SetupService) build(ctx context.Context, userID uint, in SetupInput) (*models.Setup, error) {
	setup := &models.Setup{
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: validation.SanitizeHTML(in.Description),
	}

	if len(in.Items) > 0 {
		ids := make([]uint, 0, len(in.Items))
		for _, it := range in.Items {
			ids = append(ids, it.ItemID)
		}
		count, err := s.items.CountExisting(ctx, ids)
		if err != nil {
			return nil, err
		}
		if count != int64(len(ids)) {
			return nil, models.NewValidationError("Some items do not exist")
		}
		for i, it := range in.Items {
			setup.Items = append(setup.Items, models.SetupItem{
				ItemID:      it.ItemID,
				Note:        it.Note,
				Unsupported: it.Unsupported,
				Position:    i,
			})
		}
	}

	images, err := s.images(in.Images)
	if err != nil {
		return nil, err
	}
	for _, img := range images {
		setup.Images = append(setup.Images, models.SetupImage{
			URL:         img.URL,
			Width:       img.Width,
			Height:      img.Height,
			ThemeColors: img.ThemeColors,
		})
	}

	for _, tag := range normalizeTags(in.Tags) {
		setup.Tags = append(setup.Tags, models.SetupTag{Tag: tag})
	}

	seen := map[uint]struct{}{}
	for _, c := range in.Coauthors {
		if c.UserID == userID {
			return nil, models.NewValidationError("You cannot add yourself as a co-author")
		}
		if _, dup := seen[c.UserID]; dup {
			continue
		}
		seen[c.UserID] = struct{}{}
		if _, err := s.users.GetByID(ctx, c.UserID); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return nil, models.NewValidationError(fmt.Sprintf("Co-author %d does not exist", c.UserID))
			}
			return nil, err
		}
		setup.Coauthors = append(setup.Coauthors, models.SetupCoauthor{UserID: c.UserID, Note: c.Note})
	}
	return setup, nil
}

type imageRef struct {
	URL         string
	Width       int
	Height      int
	ThemeColors datatypes.JSONSlice[string]
}

// images checks that every URL points at an uploaded setup image.
func (s *SetupService) images(in []SetupImageInput) ([]imageRef, error) {
	out := make([]imageRef, 0, len(in))
	for _, img := range in {
		key, ok := s.resolver.KeyFor(img.URL)
		if !ok || storage.NamespaceOf(key) != storage.SetupNamespace {
			return nil, models.NewValidationError("images must be uploaded setup images")
		}
		colors := make([]string, 0, len(img.ThemeColors))
		for _, c := range img.ThemeColors {
			colors = append(colors, strings.ToLower(c))
		}
		out = append(out, imageRef{URL: img.URL, Width: img.Width, Height: img.Height, ThemeColors: colors})
	}
	return out, nil
}

// normalizeTags trims tags and drops case-insensitive duplicates, keeping the first spelling.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

func (s *SetupService) notifyCoauthors(ctx context.Context, setup *models.Setup, skip map[uint]struct{}) {
	for _, c := range setup.Coauthors {
		if _, ok := skip[c.UserID]; ok {
			continue
		}
		s.dispatch.Notify(ctx, NotificationInput{
			UserID:    c.UserID,
			Type:      models.NotificationCoauthor,
			Title:     "You were credited on a setup",
			Message:   fmt.Sprintf("You were added as a co-author of %q.", setup.Name),
			Data:      map[string]any{"setupId": setup.ID},
			ActionURL: fmt.Sprintf("/setups/%d", setup.ID),
		})
	}
}

// ListDrafts returns every draft of userID.
func (s *SetupService) ListDrafts(ctx context.Context, userID uint) ([]models.SetupDraft, error) {
	drafts, err := s.drafts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if drafts == nil {
		drafts = []models.SetupDraft{}
	}
	return drafts, nil
}

// GetDraft returns one of userID's drafts.
func (s *SetupService) GetDraft(ctx context.Context, userID, id uint) (*models.SetupDraft, error) {
	return s.drafts.Get(ctx, id, userID)
}

// CreateDraft stores a new draft and returns its id.
func (s *SetupService) CreateDraft(ctx context.Context, userID uint, in DraftInput) (uint, error) {
	draft, err := s.buildDraft(ctx, userID, in)
	if err != nil {
		return 0, err
	}
	if err := s.drafts.Create(ctx, draft); err != nil {
		return 0, err
	}
	return draft.ID, nil
}

// UpdateDraft replaces one of userID's drafts.
func (s *SetupService) UpdateDraft(ctx context.Context, userID, id uint, in DraftInput) error {
	draft, err := s.buildDraft(ctx, userID, in)
	if err != nil {
		return err
	}
	draft.ID = id
	return s.drafts.Update(ctx, draft)
}

// DeleteDraft removes one of userID's drafts.
func (s *SetupService) DeleteDraft(ctx context.Context, userID, id uint) error {
	return s.drafts.Delete(ctx, id, userID)
}

func (s *SetupService) buildDraft(ctx context.Context, userID uint, in DraftInput) (*models.SetupDraft, error) {
	if in.SetupID != nil {
		setup, err := s.setups.Get(ctx, *in.SetupID)
		if err != nil {
			return nil, err
		}
		if setup.UserID != userID {
			return nil, models.NewForbiddenError("You can only draft edits of your own setups")
		}
	}

	images, err := s.images(in.Images)
	if err != nil {
		return nil, err
	}
	draft := &models.SetupDraft{UserID: userID, SetupID: in.SetupID, Content: in.Content}
	for _, img := range images {
		draft.Images = append(draft.Images, models.SetupDraftImage{
			URL:         img.URL,
			Width:       img.Width,
			Height:      img.Height,
			ThemeColors: img.ThemeColors,
		})
	}
	return draft, nil
}
