package dto

// ── 进度模块 DTO ──

// LogProgressRequest 记录某天学习进度
type LogProgressRequest struct {
	Day                int      `json:"day"                 binding:"required,min=1"`
	Date               string   `json:"date"`                // "2025-01-08"，为空取当天
	HoursSpent         *float64 `json:"hours_spent"         binding:"omitempty,min=0,max=24"`
	CompletionStatus   string   `json:"completion_status"   binding:"omitempty,oneof=pending completed skipped"`
	DifficultyRating   *int     `json:"difficulty_rating"   binding:"omitempty,min=1,max=5"`
	SatisfactionRating *int     `json:"satisfaction_rating" binding:"omitempty,min=1,max=5"`
	Notes              string   `json:"notes"               binding:"max=2000"`
}

// ProgressRecordResponse 单日进度
type ProgressRecordResponse struct {
	Day                int      `json:"day"`
	Date               string   `json:"date"`
	HoursSpent         *float64 `json:"hours_spent,omitempty"`
	CompletionStatus   string   `json:"completion_status"`
	CompletedAt        string   `json:"completed_at,omitempty"`
	DifficultyRating   *int     `json:"difficulty_rating,omitempty"`
	SatisfactionRating *int     `json:"satisfaction_rating,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// ProgressBucketResponse 聚合桶
type ProgressBucketResponse struct {
	Label      string  `json:"label"`
	Key        string  `json:"key"`
	TotalHours float64 `json:"total_hours"`
}

// ProgressResponse 进度统计
type ProgressResponse struct {
	PlanID         string                   `json:"plan_id"`
	Granularity    string                   `json:"granularity"`
	Buckets        []ProgressBucketResponse `json:"buckets"`
	TotalHours     float64                  `json:"total_hours"`
	CompletionRate float64                  `json:"completion_rate"`
	Records        []ProgressRecordResponse `json:"records"`
}
