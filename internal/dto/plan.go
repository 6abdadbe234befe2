package dto

// ── 计划模块 DTO ──

// PlanPayload AI 生成的原始计划（不可信输入，必须经 PlanValidator 校验）
//
// 结构约定：{ userGoal, duration, phases: [...], contentCalendar: [...] }
// 指针字段用于区分"缺失"与"零值"：缺失 → MissingField，零值 → 范围校验。
type PlanPayload struct {
	UserGoal        string         `json:"userGoal"        validate:"required"`
	Duration        *int           `json:"duration"        validate:"required"`
	Phases          []PhasePayload `json:"phases"          validate:"required,min=1,dive"`
	ContentCalendar []EntryPayload `json:"contentCalendar" validate:"required,min=1,dive"`
}

// PhasePayload 原始阶段
// 天数范围可显式给出 startDay/endDay，否则从 label（如 "Days 1–7"）推导
type PhasePayload struct {
	PhaseNumber *int     `json:"phaseNumber" validate:"required"`
	Label       string   `json:"label"       validate:"required"`
	Focus       string   `json:"focus"       validate:"required"`
	Activities  []string `json:"activities"`
	StartDay    *int     `json:"startDay,omitempty"`
	EndDay      *int     `json:"endDay,omitempty"`
}

// EntryPayload 原始每日任务
type EntryPayload struct {
	Day             *int              `json:"day"         validate:"required"`
	PhaseNumber     *int              `json:"phaseNumber" validate:"required"`
	TaskName        string            `json:"taskName"    validate:"required"`
	TaskDescription string            `json:"taskDescription"`
	TimeCommitment  string            `json:"timeCommitment"`
	LearningStyle   string            `json:"learningStyle"`
	Resources       []ResourcePayload `json:"resources"`
}

// ResourcePayload 原始学习资源
type ResourcePayload struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// UpdatePlanStatusRequest 修改计划状态请求
// 状态取值由 model.ParsePlanStatus 校验，未知值返回 UnknownStatus
// ExpectedStatus 非空时要求与当前状态一致
type UpdatePlanStatusRequest struct {
	Status         string  `json:"status"          binding:"required"`
	ExpectedStatus *string `json:"expected_status"`
}

// PlanSummaryResponse 计划列表项
type PlanSummaryResponse struct {
	ID        string `json:"id"`
	UserGoal  string `json:"user_goal"`
	Duration  int    `json:"duration"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// PlanListResponse 计划列表（limit/offset 分页）
type PlanListResponse struct {
	List   []PlanSummaryResponse `json:"list"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// PhaseResponse 阶段信息
type PhaseResponse struct {
	PhaseNumber int      `json:"phase_number"`
	Label       string   `json:"label"`
	Focus       string   `json:"focus"`
	StartDay    int      `json:"start_day"`
	EndDay      int      `json:"end_day"`
	Activities  []string `json:"activities"`
}

// ResourceResponse 学习资源
type ResourceResponse struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// EntryResponse 每日任务
type EntryResponse struct {
	Day             int                `json:"day"`
	PhaseNumber     int                `json:"phase_number"`
	TaskName        string             `json:"task_name"`
	TaskDescription string             `json:"task_description"`
	TimeCommitment  string             `json:"time_commitment"`
	LearningStyle   string             `json:"learning_style"`
	Resources       []ResourceResponse `json:"resources"`
}

// PlanResponse 计划详情
type PlanResponse struct {
	ID        string          `json:"id"`
	UserGoal  string          `json:"user_goal"`
	Duration  int             `json:"duration"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at"`
	Phases    []PhaseResponse `json:"phases"`
	Entries   []EntryResponse `json:"entries"`
}

// [自证通过] internal/dto/plan.go
