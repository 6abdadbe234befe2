package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"learnplan/backend/internal/dto"
	"learnplan/backend/internal/model"
	"learnplan/backend/internal/repository"
	pkgerrors "learnplan/backend/pkg/errors"
)

// ── 计划模块业务错误 ──

var (
	ErrPlanNotFound     = pkgerrors.New(pkgerrors.KindNotFound, "PlanNotFound", "计划不存在")
	ErrMissingParameter = pkgerrors.New(pkgerrors.KindMissingParameter, "", "缺少必填参数")
	ErrInvalidParameter = pkgerrors.New(pkgerrors.KindInvalidParameter, "", "参数无效")
)

// PlanService 计划历史业务接口
//
// 设计说明：
//   - 所有操作按 userID 隔离，他人的计划一律视为不存在
//   - 存储故障统一包装为 StorageUnavailable，本层不做任何重试
//   - 状态修改只经过 model.TransitionStatus；落库时以读取到的状态做 compare-and-swap
type PlanService interface {
	Create(ctx context.Context, userID string, raw *dto.PlanPayload) (*dto.PlanResponse, error)
	Get(ctx context.Context, userID, planID string) (*dto.PlanResponse, error)
	List(ctx context.Context, userID string, page dto.PageQuery) (*dto.PlanListResponse, error)
	Delete(ctx context.Context, userID, planID string) error
	UpdateStatus(ctx context.Context, userID, planID string, req *dto.UpdatePlanStatusRequest) (*dto.PlanSummaryResponse, error)
}

type planService struct {
	repo      *repository.Repository
	validator *PlanValidator
	cache     ExportCache
	page      PageLimits
	logger    *zap.Logger
	now       func() time.Time
}

// PageLimits 列表分页的默认条数与上限
type PageLimits struct {
	Default int
	Max     int
}

// NewPlanService 创建 PlanService 实例；cache 可为 nil
func NewPlanService(repo *repository.Repository, validator *PlanValidator, cache ExportCache, page PageLimits, logger *zap.Logger) PlanService {
	return &planService{
		repo:      repo,
		validator: validator,
		cache:     cache,
		page:      page,
		logger:    logger,
		now:       time.Now,
	}
}

// ────────────────────── Create ──────────────────────

func (s *planService) Create(ctx context.Context, userID string, raw *dto.PlanPayload) (*dto.PlanResponse, error) {
	if userID == "" {
		return nil, ErrMissingParameter.WithDetail("user_id")
	}

	plan, err := s.validator.Validate(raw)
	if err != nil {
		return nil, err
	}
	plan.UserID = userID
	plan.CreatedAt = s.now().UTC()
	plan.UpdatedAt = plan.CreatedAt

	if err := s.repo.Plan.Create(ctx, plan); err != nil {
		s.logger.Error("创建计划失败", zap.String("user_id", userID), zap.Error(err))
		return nil, storageError(err)
	}

	s.logger.Info("计划已创建",
		zap.String("plan_id", plan.PlanID),
		zap.Int("duration", plan.Duration),
		zap.Int("entries", len(plan.Entries)))
	return toPlanResponse(plan), nil
}

// ────────────────────── Get ──────────────────────

func (s *planService) Get(ctx context.Context, userID, planID string) (*dto.PlanResponse, error) {
	plan, err := loadPlan(ctx, s.repo, s.validator, s.logger, userID, planID)
	if err != nil {
		return nil, err
	}
	return toPlanResponse(plan), nil
}

// ────────────────────── List ──────────────────────

// List 按创建时间倒序分页；offset 超出总数返回空列表
func (s *planService) List(ctx context.Context, userID string, page dto.PageQuery) (*dto.PlanListResponse, error) {
	if userID == "" {
		return nil, ErrMissingParameter.WithDetail("user_id")
	}
	page = page.Normalize(s.page.Default, s.page.Max)

	plans, err := s.repo.Plan.ListByUser(ctx, userID, page.Offset, page.Limit)
	if err != nil {
		s.logger.Error("查询计划列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, storageError(err)
	}

	list := make([]dto.PlanSummaryResponse, 0, len(plans))
	for i := range plans {
		list = append(list, toPlanSummary(&plans[i]))
	}
	return &dto.PlanListResponse{List: list, Limit: page.Limit, Offset: page.Offset}, nil
}

// ────────────────────── Delete ──────────────────────

// Delete 删除计划及其进度记录；不存在返回 ErrPlanNotFound
func (s *planService) Delete(ctx context.Context, userID, planID string) error {
	if planID == "" {
		return ErrMissingParameter.WithDetail("id")
	}
	if userID == "" {
		return ErrMissingParameter.WithDetail("user_id")
	}

	if err := s.repo.Plan.Delete(ctx, userID, planID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPlanNotFound
		}
		s.logger.Error("删除计划失败", zap.String("plan_id", planID), zap.Error(err))
		return storageError(err)
	}

	// 缓存失效失败不影响删除结果，读取方不依赖缓存一致性
	if s.cache != nil {
		if err := s.cache.InvalidatePlan(ctx, planID); err != nil {
			s.logger.Warn("清理导出缓存失败", zap.String("plan_id", planID), zap.Error(err))
		}
	}

	s.logger.Info("计划已删除", zap.String("plan_id", planID))
	return nil
}

// ────────────────────── UpdateStatus ──────────────────────

func (s *planService) UpdateStatus(ctx context.Context, userID, planID string, req *dto.UpdatePlanStatusRequest) (*dto.PlanSummaryResponse, error) {
	if planID == "" {
		return nil, ErrMissingParameter.WithDetail("id")
	}
	to, err := model.ParsePlanStatus(req.Status)
	if err != nil {
		return nil, err
	}

	plan, err := s.repo.Plan.GetByID(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		s.logger.Error("查询计划失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, storageError(err)
	}

	current := plan.Status
	if req.ExpectedStatus != nil {
		expected, err := model.ParsePlanStatus(*req.ExpectedStatus)
		if err != nil {
			return nil, err
		}
		if expected != current {
			return nil, pkgerrors.ErrStatusConflict.WithDetail("期望 %s，当前 %s", expected, current)
		}
	}

	next, err := model.TransitionStatus(current, to)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Plan.UpdateStatus(ctx, userID, planID, next, &current); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrPlanNotFound
		case errors.Is(err, pkgerrors.ErrStatusConflict):
			return nil, err
		}
		s.logger.Error("修改计划状态失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, storageError(err)
	}

	s.logger.Info("计划状态已变更",
		zap.String("plan_id", planID),
		zap.String("from", string(current)),
		zap.String("to", string(next)))

	plan.Status = next
	summary := toPlanSummary(plan)
	return &summary, nil
}

// ── 共享辅助 ──

// loadPlan 读取计划并校验结构：存储中的数据在进入导出/聚合前必须再次通过校验
func loadPlan(ctx context.Context, repo *repository.Repository, v *PlanValidator, logger *zap.Logger, userID, planID string) (*model.Plan, error) {
	plan, err := fetchPlan(ctx, repo, logger, userID, planID)
	if err != nil {
		return nil, err
	}
	if err := v.CheckShape(plan); err != nil {
		logger.Warn("存储中的计划结构异常", zap.String("plan_id", planID), zap.Error(err))
		return nil, err
	}
	return plan, nil
}

// fetchPlan 只读取计划，不做结构校验
func fetchPlan(ctx context.Context, repo *repository.Repository, logger *zap.Logger, userID, planID string) (*model.Plan, error) {
	if planID == "" {
		return nil, ErrMissingParameter.WithDetail("id")
	}
	plan, err := repo.Plan.GetByID(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		logger.Error("查询计划失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, storageError(err)
	}
	return plan, nil
}

// storageError 非"记录不存在"的存储错误统一包装为 StorageUnavailable；调用方取消原样返回
func storageError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return pkgerrors.ErrStorageUnavailable.Wrap(err)
}

func toPlanSummary(p *model.Plan) dto.PlanSummaryResponse {
	return dto.PlanSummaryResponse{
		ID:        p.PlanID,
		UserGoal:  p.UserGoal,
		Duration:  p.Duration,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toPlanResponse(p *model.Plan) *dto.PlanResponse {
	resp := &dto.PlanResponse{
		ID:        p.PlanID,
		UserGoal:  p.UserGoal,
		Duration:  p.Duration,
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		Phases:    make([]dto.PhaseResponse, 0, len(p.Phases)),
		Entries:   make([]dto.EntryResponse, 0, len(p.Entries)),
	}
	for _, ph := range p.Phases {
		activities := make([]string, 0, len(ph.Activities))
		activities = append(activities, ph.Activities...)
		resp.Phases = append(resp.Phases, dto.PhaseResponse{
			PhaseNumber: ph.PhaseNumber,
			Label:       ph.Label,
			Focus:       ph.Focus,
			StartDay:    ph.StartDay,
			EndDay:      ph.EndDay,
			Activities:  activities,
		})
	}
	for _, e := range canonicalEntries(p.Entries) {
		resources := make([]dto.ResourceResponse, 0, len(e.Resources))
		for _, r := range e.Resources {
			resources = append(resources, dto.ResourceResponse{Name: r.Name, Link: r.Link})
		}
		resp.Entries = append(resp.Entries, dto.EntryResponse{
			Day:             e.Day,
			PhaseNumber:     e.PhaseNumber,
			TaskName:        e.TaskName,
			TaskDescription: e.TaskDescription,
			TimeCommitment:  e.TimeCommitment,
			LearningStyle:   e.LearningStyle,
			Resources:       resources,
		})
	}
	return resp
}
