package model

import (
	"time"

	"gorm.io/gorm"
)

// CompletionStatus 每日完成状态
type CompletionStatus string

const (
	CompletionPending   CompletionStatus = "pending"
	CompletionCompleted CompletionStatus = "completed"
	CompletionSkipped   CompletionStatus = "skipped"
)

// IsValid 是否为已定义的完成状态
func (s CompletionStatus) IsValid() bool {
	switch s {
	case CompletionPending, CompletionCompleted, CompletionSkipped:
		return true
	}
	return false
}

// ProgressRecord 学习进度表：对应 progress_records
// 每个 (plan, day) 至多一条，首次记录时惰性创建；仅随计划级联删除
type ProgressRecord struct {
	RecordID           string           `gorm:"type:uuid;primaryKey"                                    json:"record_id"`
	PlanID             string           `gorm:"type:uuid;not null;uniqueIndex:uk_progress_plan_day"     json:"plan_id"`
	Day                int              `gorm:"type:smallint;not null;uniqueIndex:uk_progress_plan_day" json:"day"`
	Date               time.Time        `gorm:"type:date;not null"                                      json:"date"`
	HoursSpent         *float64         `gorm:"type:numeric(5,2)"                                       json:"hours_spent,omitempty"`
	CompletionStatus   CompletionStatus `gorm:"type:varchar(20);not null;default:'pending'"             json:"completion_status"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	DifficultyRating   *int             `gorm:"type:smallint" json:"difficulty_rating,omitempty"`   // 1-5
	SatisfactionRating *int             `gorm:"type:smallint" json:"satisfaction_rating,omitempty"` // 1-5
	Notes              string           `gorm:"type:text"     json:"notes,omitempty"`
	BaseModel
}

func (ProgressRecord) TableName() string { return "progress_records" }

func (r *ProgressRecord) BeforeCreate(_ *gorm.DB) error {
	ensureID(&r.RecordID)
	return nil
}
