package repository

import (
	"context"

	"avatio/internal/models"

	"gorm.io/gorm"
)

// ReportRepository defines persistence operations for the three report tables.
type ReportRepository interface {
	CreateSetupReport(ctx context.Context, report *models.SetupReport) error
	CreateItemReport(ctx context.Context, report *models.ItemReport) error
	CreateUserReport(ctx context.Context, report *models.UserReport) error
	ListSetupReports(ctx context.Context, resolved *bool, page, limit int) ([]models.SetupReport, int64, error)
	ListItemReports(ctx context.Context, resolved *bool, page, limit int) ([]models.ItemReport, int64, error)
	ListUserReports(ctx context.Context, resolved *bool, page, limit int) ([]models.UserReport, int64, error)
	// SetResolved flips the resolution flag of one report of kind.
	SetResolved(ctx context.Context, kind models.ReportKind, id uint, resolved bool) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) CreateSetupReport(ctx context.Context, report *models.SetupReport) error {
	return r.create(ctx, report)
}

func (r *reportRepository) CreateItemReport(ctx context.Context, report *models.ItemReport) error {
	return r.create(ctx, report)
}

func (r *reportRepository) CreateUserReport(ctx context.Context, report *models.UserReport) error {
	return r.create(ctx, report)
}

func (r *reportRepository) create(ctx context.Context, report any) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) ListSetupReports(ctx context.Context, resolved *bool, page, limit int) ([]models.SetupReport, int64, error) {
	var reports []models.SetupReport
	total, err := r.list(ctx, &models.SetupReport{}, &reports, resolved, page, limit, "Reporter", "Setup")
	return reports, total, err
}

func (r *reportRepository) ListItemReports(ctx context.Context, resolved *bool, page, limit int) ([]models.ItemReport, int64, error) {
	var reports []models.ItemReport
	total, err := r.list(ctx, &models.ItemReport{}, &reports, resolved, page, limit, "Reporter", "Item")
	return reports, total, err
}

func (r *reportRepository) ListUserReports(ctx context.Context, resolved *bool, page, limit int) ([]models.UserReport, int64, error) {
	var reports []models.UserReport
	total, err := r.list(ctx, &models.UserReport{}, &reports, resolved, page, limit, "Reporter", "ReportedUser")
	return reports, total, err
}

func (r *reportRepository) list(ctx context.Context, model, dest any, resolved *bool, page, limit int, preloads ...string) (int64, error) {
	query := r.db.WithContext(ctx).Model(model)
	if resolved != nil {
		query = query.Where("is_resolved = ?", *resolved)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	for _, p := range preloads {
		query = query.Preload(p)
	}
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset(page, limit)).Find(dest).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

func (r *reportRepository) SetResolved(ctx context.Context, kind models.ReportKind, id uint, resolved bool) error {
	var model any
	switch kind {
	case models.ReportSetups:
		model = &models.SetupReport{}
	case models.ReportItems:
		model = &models.ItemReport{}
	case models.ReportUsers:
		model = &models.UserReport{}
	default:
		return models.NewValidationError("Unknown report kind")
	}

	res := r.db.WithContext(ctx).Model(model).Where("id = ?", id).Update("is_resolved", resolved)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Report", id)
	}
	return nil
}
