package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnplan/backend/internal/model"
)

// ProgressRepository 学习进度数据访问接口
type ProgressRepository interface {
	Upsert(ctx context.Context, record *model.ProgressRecord) error
	GetByPlanDay(ctx context.Context, planID string, day int) (*model.ProgressRecord, error)
	ListByPlan(ctx context.Context, planID string) ([]model.ProgressRecord, error)
}

type progressRepo struct {
	db *gorm.DB
}

// NewProgressRepo 创建 ProgressRepository 实例
func NewProgressRepo(db *gorm.DB) ProgressRepository {
	return &progressRepo{db: db}
}

// Upsert 按 (plan_id, day) 写入或覆盖进度记录，完成后 record 回填为库中的实际行
// 主键不参与冲突判断：已存在的记录保留原 record_id
func (r *progressRepo) Upsert(ctx context.Context, record *model.ProgressRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := *record
		row.RecordID = ""
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "plan_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"date", "hours_spent", "completion_status", "completed_at",
				"difficulty_rating", "satisfaction_rating", "notes", "updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		var stored model.ProgressRecord
		if err := tx.Where("plan_id = ? AND day = ?", record.PlanID, record.Day).First(&stored).Error; err != nil {
			return err
		}
		*record = stored
		return nil
	})
}

func (r *progressRepo) GetByPlanDay(ctx context.Context, planID string, day int) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("plan_id = ? AND day = ?", planID, day).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByPlan 按日期升序返回，聚合器依赖该顺序
func (r *progressRepo) ListByPlan(ctx context.Context, planID string) ([]model.ProgressRecord, error) {
	var records []model.ProgressRecord
	err := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("date ASC, day ASC").
		Find(&records).Error
	return records, err
}
