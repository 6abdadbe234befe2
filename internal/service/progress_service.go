package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"learnplan/backend/internal/dto"
	"learnplan/backend/internal/model"
	"learnplan/backend/internal/repository"
)

// ProgressService 学习进度业务接口
//
// 设计说明：
//   - 每个 (plan, day) 至多一条记录，首次记录时创建，之后按字段合并覆盖
//   - 统计时并发读取计划与进度记录，再交给纯函数 Summarize 聚合
type ProgressService interface {
	Log(ctx context.Context, userID, planID string, req *dto.LogProgressRequest) (*dto.ProgressRecordResponse, error)
	Get(ctx context.Context, userID, planID, granularity string) (*dto.ProgressResponse, error)
}

type progressService struct {
	repo      *repository.Repository
	validator *PlanValidator
	logger    *zap.Logger
	now       func() time.Time
}

// NewProgressService 创建 ProgressService 实例
func NewProgressService(repo *repository.Repository, validator *PlanValidator, logger *zap.Logger) ProgressService {
	return &progressService{repo: repo, validator: validator, logger: logger, now: time.Now}
}

// ────────────────────── Log ──────────────────────

func (s *progressService) Log(ctx context.Context, userID, planID string, req *dto.LogProgressRequest) (*dto.ProgressRecordResponse, error) {
	plan, err := loadPlan(ctx, s.repo, s.validator, s.logger, userID, planID)
	if err != nil {
		return nil, err
	}
	if req.Day < 1 || req.Day > plan.Duration {
		return nil, ErrInvalidParameter.WithDetail("day=%d 超出计划范围 [1, %d]", req.Day, plan.Duration)
	}

	record, err := s.repo.Progress.GetByPlanDay(ctx, planID, req.Day)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = &model.ProgressRecord{
			PlanID:           planID,
			Day:              req.Day,
			CompletionStatus: model.CompletionPending,
		}
	case err != nil:
		s.logger.Error("查询进度记录失败", zap.String("plan_id", planID), zap.Int("day", req.Day), zap.Error(err))
		return nil, storageError(err)
	}

	if err := s.merge(record, req); err != nil {
		return nil, err
	}

	if err := s.repo.Progress.Upsert(ctx, record); err != nil {
		s.logger.Error("写入进度记录失败", zap.String("plan_id", planID), zap.Int("day", req.Day), zap.Error(err))
		return nil, storageError(err)
	}

	resp := toProgressRecordResponse(record)
	return &resp, nil
}

// merge 将请求中给出的字段合并到记录；未给出的字段保持原值
func (s *progressService) merge(record *model.ProgressRecord, req *dto.LogProgressRequest) error {
	now := s.now().UTC()

	switch {
	case req.Date != "":
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return ErrInvalidParameter.WithDetail("date=%q，格式应为 YYYY-MM-DD", req.Date)
		}
		record.Date = date
	case record.Date.IsZero():
		record.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	if req.HoursSpent != nil {
		if *req.HoursSpent < 0 {
			return ErrInvalidParameter.WithDetail("hours_spent 不能为负数")
		}
		hours := *req.HoursSpent
		record.HoursSpent = &hours
	}

	if req.CompletionStatus != "" {
		status := model.CompletionStatus(req.CompletionStatus)
		if !status.IsValid() {
			return ErrInvalidParameter.WithDetail("completion_status=%q", req.CompletionStatus)
		}
		record.CompletionStatus = status
	}
	switch {
	case record.CompletionStatus == model.CompletionCompleted && record.CompletedAt == nil:
		record.CompletedAt = &now
	case record.CompletionStatus != model.CompletionCompleted:
		record.CompletedAt = nil
	}

	if req.DifficultyRating != nil {
		record.DifficultyRating = req.DifficultyRating
	}
	if req.SatisfactionRating != nil {
		record.SatisfactionRating = req.SatisfactionRating
	}
	if req.Notes != "" {
		record.Notes = req.Notes
	}
	record.UpdatedAt = now
	return nil
}

// ────────────────────── Get ──────────────────────

// Get 返回按粒度聚合的统计；granularity 为空时按天
func (s *progressService) Get(ctx context.Context, userID, planID, granularity string) (*dto.ProgressResponse, error) {
	if granularity == "" {
		granularity = string(GranularityDaily)
	}
	g, err := ParseGranularity(granularity)
	if err != nil {
		return nil, err
	}

	plan, records, err := s.loadPlanAndRecords(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	summary, err := Summarize(ProgressPointsFromRecords(records), g)
	if err != nil {
		return nil, err
	}
	return toProgressResponse(plan.PlanID, summary, records), nil
}

// loadPlanAndRecords 并发读取计划与进度记录；计划不属于该用户时丢弃记录
func (s *progressService) loadPlanAndRecords(ctx context.Context, userID, planID string) (*model.Plan, []model.ProgressRecord, error) {
	var (
		plan    *model.Plan
		records []model.ProgressRecord
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		p, err := loadPlan(egCtx, s.repo, s.validator, s.logger, userID, planID)
		if err != nil {
			return err
		}
		plan = p
		return nil
	})
	eg.Go(func() error {
		rs, err := s.repo.Progress.ListByPlan(egCtx, planID)
		if err != nil {
			s.logger.Error("查询进度记录失败", zap.String("plan_id", planID), zap.Error(err))
			return storageError(err)
		}
		records = rs
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return plan, records, nil
}

// ── DTO 转换 ──

func toProgressRecordResponse(r *model.ProgressRecord) dto.ProgressRecordResponse {
	resp := dto.ProgressRecordResponse{
		Day:                r.Day,
		Date:               r.Date.Format("2006-01-02"),
		HoursSpent:         r.HoursSpent,
		CompletionStatus:   string(r.CompletionStatus),
		DifficultyRating:   r.DifficultyRating,
		SatisfactionRating: r.SatisfactionRating,
		Notes:              r.Notes,
	}
	if r.CompletedAt != nil {
		resp.CompletedAt = r.CompletedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func toProgressResponse(planID string, summary *ProgressSummary, records []model.ProgressRecord) *dto.ProgressResponse {
	resp := &dto.ProgressResponse{
		PlanID:         planID,
		Granularity:    string(summary.Granularity),
		Buckets:        make([]dto.ProgressBucketResponse, 0, len(summary.Buckets)),
		TotalHours:     summary.TotalHours,
		CompletionRate: summary.CompletionRate,
		Records:        make([]dto.ProgressRecordResponse, 0, len(records)),
	}
	for _, b := range summary.Buckets {
		resp.Buckets = append(resp.Buckets, dto.ProgressBucketResponse{Label: b.Label, Key: b.Key, TotalHours: b.TotalHours})
	}
	for i := range records {
		resp.Records = append(resp.Records, toProgressRecordResponse(&records[i]))
	}
	return resp
}
