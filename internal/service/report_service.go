package service

import (
	"context"

	"avatio/internal/models"
	"avatio/internal/repository"
)

var errNoReason = models.NewValidationError("At least one reason is required")

// SetupReportInput is the body of a setup report.
type SetupReportInput struct {
	SetupID      uint   `json:"setupId" validate:"required"`
	Spam         bool   `json:"spam"`
	Hate         bool   `json:"hate"`
	Infringement bool   `json:"infringement"`
	BadImage     bool   `json:"badImage"`
	Other        bool   `json:"other"`
	Comment      string `json:"comment" validate:"max=1000" sanitize:"html"`
}

func (in SetupReportInput) Validate() error {
	if !in.Spam && !in.Hate && !in.Infringement && !in.BadImage && !in.Other {
		return errNoReason
	}
	return nil
}

// ItemReportInput is the body of an item report.
type ItemReportInput struct {
	ItemID       uint   `json:"itemId" validate:"required"`
	Hate         bool   `json:"hate"`
	Infringement bool   `json:"infringement"`
	BadImage     bool   `json:"badImage"`
	Other        bool   `json:"other"`
	Comment      string `json:"comment" validate:"max=1000" sanitize:"html"`
}

func (in ItemReportInput) Validate() error {
	if !in.Hate && !in.Infringement && !in.BadImage && !in.Other {
		return errNoReason
	}
	return nil
}

// UserReportInput is the body of a user report.
type UserReportInput struct {
	ReportedUserID uint   `json:"reportedUserId" validate:"required"`
	Spam           bool   `json:"spam"`
	Hate           bool   `json:"hate"`
	Infringement   bool   `json:"infringement"`
	BadImage       bool   `json:"badImage"`
	Impersonation  bool   `json:"impersonation"`
	Other          bool   `json:"other"`
	Comment        string `json:"comment" validate:"max=1000" sanitize:"html"`
}

func (in UserReportInput) Validate() error {
	if !in.Spam && !in.Hate && !in.Infringement && !in.BadImage && !in.Impersonation && !in.Other {
		return errNoReason
	}
	return nil
}

// ReportService accepts user reports and lets admins work through them.
type ReportService struct {
	reports  repository.ReportRepository
	setups   repository.SetupRepository
	items    repository.ItemRepository
	users    repository.UserRepository
	dispatch *Dispatcher
}

// NewReportService returns a new ReportService.
func NewReportService(
	reports repository.ReportRepository,
	setups repository.SetupRepository,
	items repository.ItemRepository,
	users repository.UserRepository,
	dispatch *Dispatcher,
) *ReportService {
	return &ReportService{reports: reports, setups: setups, items: items, users: users, dispatch: dispatch}
}

// ReportSetup files a report against an existing setup.
func (s *ReportService) ReportSetup(ctx context.Context, reporterID uint, in SetupReportInput) error {
	if _, err := s.setups.Get(ctx, in.SetupID); err != nil {
		return err
	}
	report := &models.SetupReport{
		ReporterID:   reporterID,
		SetupID:      in.SetupID,
		Spam:         in.Spam,
		Hate:         in.Hate,
		Infringement: in.Infringement,
		BadImage:     in.BadImage,
		Other:        in.Other,
		Comment:      in.Comment,
	}
	if err := s.reports.CreateSetupReport(ctx, report); err != nil {
		return err
	}
	s.auditCreate(ctx, reporterID, models.ReportSetups, report.ID, in.SetupID)
	return nil
}

// ReportItem files a report against an existing item.
func (s *ReportService) ReportItem(ctx context.Context, reporterID uint, in ItemReportInput) error {
	if _, err := s.items.GetByID(ctx, in.ItemID); err != nil {
		return err
	}
	report := &models.ItemReport{
		ReporterID:   reporterID,
		ItemID:       in.ItemID,
		Hate:         in.Hate,
		Infringement: in.Infringement,
		BadImage:     in.BadImage,
		Other:        in.Other,
		Comment:      in.Comment,
	}
	if err := s.reports.CreateItemReport(ctx, report); err != nil {
		return err
	}
	s.auditCreate(ctx, reporterID, models.ReportItems, report.ID, in.ItemID)
	return nil
}

// ReportUser files a report against another account.
func (s *ReportService) ReportUser(ctx context.Context, reporterID uint, in UserReportInput) error {
	if in.ReportedUserID == reporterID {
		return models.NewValidationError("You cannot report yourself")
	}
	if _, err := s.users.GetByID(ctx, in.ReportedUserID); err != nil {
		return err
	}
	report := &models.UserReport{
		ReporterID:     reporterID,
		ReportedUserID: in.ReportedUserID,
		Spam:           in.Spam,
		Hate:           in.Hate,
		Infringement:   in.Infringement,
		BadImage:       in.BadImage,
		Impersonation:  in.Impersonation,
		Other:          in.Other,
		Comment:        in.Comment,
	}
	if err := s.reports.CreateUserReport(ctx, report); err != nil {
		return err
	}
	s.auditCreate(ctx, reporterID, models.ReportUsers, report.ID, in.ReportedUserID)
	return nil
}

func (s *ReportService) auditCreate(ctx context.Context, reporterID uint, kind models.ReportKind, reportID, targetID uint) {
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    &reporterID,
		Action:     "report.create",
		TargetType: string(kind),
		TargetID:   reportID,
		Details:    map[string]any{"targetId": targetID},
	})
}

// ListReports returns one page of reports of kind, optionally filtered by resolution.
func (s *ReportService) ListReports(ctx context.Context, kind models.ReportKind, resolved *bool, page, limit int) (any, error) {
	switch kind {
	case models.ReportSetups:
		rows, total, err := s.reports.ListSetupReports(ctx, resolved, page, limit)
		if err != nil {
			return nil, err
		}
		return models.NewPaginated(rows, page, limit, total), nil
	case models.ReportItems:
		rows, total, err := s.reports.ListItemReports(ctx, resolved, page, limit)
		if err != nil {
			return nil, err
		}
		return models.NewPaginated(rows, page, limit, total), nil
	case models.ReportUsers:
		rows, total, err := s.reports.ListUserReports(ctx, resolved, page, limit)
		if err != nil {
			return nil, err
		}
		return models.NewPaginated(rows, page, limit, total), nil
	}
	return nil, models.NewValidationError("Unknown report type")
}

// ResolveInput is the body of a report resolution.
type ResolveInput struct {
	IsResolved *bool `json:"isResolved" validate:"required"`
}

// Resolve sets the resolution flag of one report.
func (s *ReportService) Resolve(ctx context.Context, actorID *uint, kind models.ReportKind, id uint, resolved bool) error {
	if !kind.Valid() {
		return models.NewValidationError("Unknown report type")
	}
	if err := s.reports.SetResolved(ctx, kind, id, resolved); err != nil {
		return err
	}
	s.dispatch.Audit(ctx, AuditInput{
		ActorID:    actorID,
		Action:     "report.resolve",
		TargetType: string(kind),
		TargetID:   id,
		Details:    map[string]any{"isResolved": resolved},
	})
	return nil
}
