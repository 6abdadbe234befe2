package service

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"learnplan/backend/internal/dto"
	"learnplan/backend/internal/model"
	pkgerrors "learnplan/backend/pkg/errors"
)

// ── 计划校验模块业务错误 ──

var (
	// ErrPlanValidation 任意校验失败（仅按 Kind 匹配）
	ErrPlanValidation     = pkgerrors.New(pkgerrors.KindValidation, "", "计划校验失败")
	ErrMissingField       = pkgerrors.New(pkgerrors.KindValidation, "MissingField", "计划缺少必填字段")
	ErrDurationOutOfRange = pkgerrors.New(pkgerrors.KindValidation, "DurationOutOfRange", "计划天数超出允许范围")
	ErrPhaseCoverageGap   = pkgerrors.New(pkgerrors.KindValidation, "PhaseCoverageGap", "阶段天数范围存在重叠或空缺")
	ErrOrphanEntry        = pkgerrors.New(pkgerrors.KindValidation, "OrphanEntry", "任务引用的阶段不存在或不在阶段范围内")
	ErrMissingDay         = pkgerrors.New(pkgerrors.KindValidation, "MissingDay", "存在没有任务的日期")
)

// 阶段标签中的天数范围："Days 1–7" / "Day 8" / "days 8-14" / "Days 15 to 21"
var (
	phaseRangeLabelRe  = regexp.MustCompile(`(?i)days?\s*(\d+)\s*(?:-|–|—|to)\s*(\d+)`)
	phaseSingleLabelRe = regexp.MustCompile(`(?i)days?\s*(\d+)`)
)

// PlanLimits 计划时长边界（闭区间）
type PlanLimits struct {
	MinDuration int
	MaxDuration int
}

// PlanValidator 校验并规范化 AI 生成或用户编辑的计划
//
// 设计说明：
//   - 纯计算，无副作用，可并发使用
//   - 校验顺序：MissingField → DurationOutOfRange → PhaseCoverageGap → OrphanEntry → MissingDay
//   - 规范顺序：entries 按 day 升序稳定排序，同日任务保持原始顺序
type PlanValidator struct {
	validate *validator.Validate
	limits   PlanLimits
}

// NewPlanValidator 创建 PlanValidator，边界非法时回落到默认值 [5, 30]
func NewPlanValidator(limits PlanLimits) *PlanValidator {
	if limits.MinDuration <= 0 {
		limits.MinDuration = model.MinPlanDuration
	}
	if limits.MaxDuration < limits.MinDuration {
		limits.MaxDuration = model.MaxPlanDuration
	}

	v := validator.New()
	// 错误路径使用 JSON 字段名，便于调用方定位
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &PlanValidator{validate: v, limits: limits}
}

// Limits 当前生效的时长边界
func (v *PlanValidator) Limits() PlanLimits { return v.limits }

// ═══════════════════════════════════════════════════════════
// Validate：原始载荷 → 规范化 Plan
// ═══════════════════════════════════════════════════════════

func (v *PlanValidator) Validate(raw *dto.PlanPayload) (*model.Plan, error) {
	if raw == nil {
		return nil, ErrMissingField.WithDetail("payload")
	}

	// 1. 必填字段
	if err := v.validate.Struct(raw); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, ErrMissingField.WithDetail("%s", fieldPath(verrs[0]))
		}
		return nil, ErrMissingField.WithDetail("%v", err)
	}
	if err := checkBlankFields(raw); err != nil {
		return nil, err
	}

	// 2. 时长范围
	duration := *raw.Duration
	if duration < v.limits.MinDuration || duration > v.limits.MaxDuration {
		return nil, ErrDurationOutOfRange.WithDetail("duration=%d，允许范围 [%d, %d]",
			duration, v.limits.MinDuration, v.limits.MaxDuration)
	}

	plan := &model.Plan{
		UserGoal: strings.TrimSpace(raw.UserGoal),
		Duration: duration,
		Status:   model.PlanStatusActive,
	}

	// 3. 阶段
	for i, ph := range raw.Phases {
		start, end, err := phaseRange(ph)
		if err != nil {
			return nil, ErrPhaseCoverageGap.WithDetail("phases[%d]: %v", i, err)
		}
		plan.Phases = append(plan.Phases, model.Phase{
			PhaseNumber: *ph.PhaseNumber,
			Label:       strings.TrimSpace(ph.Label),
			Focus:       strings.TrimSpace(ph.Focus),
			StartDay:    start,
			EndDay:      end,
			Activities:  normalizeActivities(ph.Activities),
		})
	}
	sort.SliceStable(plan.Phases, func(i, j int) bool {
		return plan.Phases[i].StartDay < plan.Phases[j].StartDay
	})

	// 4. 每日任务（稳定排序后写入 Position）
	for _, e := range raw.ContentCalendar {
		plan.Entries = append(plan.Entries, model.Entry{
			Day:             *e.Day,
			PhaseNumber:     *e.PhaseNumber,
			TaskName:        strings.TrimSpace(e.TaskName),
			TaskDescription: strings.TrimSpace(e.TaskDescription),
			TimeCommitment:  strings.TrimSpace(e.TimeCommitment),
			LearningStyle:   strings.TrimSpace(e.LearningStyle),
			Resources:       normalizeResources(e.Resources),
		})
	}
	SortEntries(plan.Entries)

	if err := v.CheckShape(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// ═══════════════════════════════════════════════════════════
// CheckShape：结构不变量校验
// ═══════════════════════════════════════════════════════════
//
// 既用于新载荷，也用于从存储读回的计划：下游组件只接触通过校验的 Plan。

func (v *PlanValidator) CheckShape(plan *model.Plan) error {
	if plan.Duration < v.limits.MinDuration || plan.Duration > v.limits.MaxDuration {
		return ErrDurationOutOfRange.WithDetail("duration=%d，允许范围 [%d, %d]",
			plan.Duration, v.limits.MinDuration, v.limits.MaxDuration)
	}
	if err := checkPhaseCoverage(plan.Phases, plan.Duration); err != nil {
		return err
	}
	if err := checkEntryPhases(plan); err != nil {
		return err
	}
	return checkDayCoverage(plan.Entries, plan.Duration)
}

// checkPhaseCoverage 阶段范围必须恰好无缝覆盖 [1, duration]
func checkPhaseCoverage(phases []model.Phase, duration int) error {
	if len(phases) == 0 {
		return ErrPhaseCoverageGap.WithDetail("没有任何阶段")
	}

	sorted := make([]model.Phase, len(phases))
	copy(sorted, phases)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartDay < sorted[j].StartDay })

	seen := make(map[int]bool, len(sorted))
	next := 1
	for _, ph := range sorted {
		if seen[ph.PhaseNumber] {
			return ErrPhaseCoverageGap.WithDetail("阶段编号 %d 重复", ph.PhaseNumber)
		}
		seen[ph.PhaseNumber] = true

		if ph.PhaseNumber <= 0 {
			return ErrPhaseCoverageGap.WithDetail("阶段编号 %d 必须为正整数", ph.PhaseNumber)
		}
		if ph.EndDay < ph.StartDay {
			return ErrPhaseCoverageGap.WithDetail("阶段 %d 范围 [%d, %d] 无效", ph.PhaseNumber, ph.StartDay, ph.EndDay)
		}
		switch {
		case ph.StartDay > next:
			return ErrPhaseCoverageGap.WithDetail("第 %d–%d 天未被任何阶段覆盖", next, ph.StartDay-1)
		case ph.StartDay < next:
			return ErrPhaseCoverageGap.WithDetail("阶段 %d 与前一阶段重叠（第 %d 天）", ph.PhaseNumber, ph.StartDay)
		}
		next = ph.EndDay + 1
	}
	if next-1 != duration {
		if next-1 < duration {
			return ErrPhaseCoverageGap.WithDetail("第 %d–%d 天未被任何阶段覆盖", next, duration)
		}
		return ErrPhaseCoverageGap.WithDetail("阶段范围超出计划天数 %d", duration)
	}
	return nil
}

// checkEntryPhases 每个任务必须引用存在的阶段，且 day 落在该阶段范围内
func checkEntryPhases(plan *model.Plan) error {
	for i := range plan.Entries {
		e := &plan.Entries[i]
		ph, ok := plan.PhaseByNumber(e.PhaseNumber)
		if !ok {
			return ErrOrphanEntry.WithDetail("第 %d 天任务 %q 引用了不存在的阶段 %d", e.Day, e.TaskName, e.PhaseNumber)
		}
		if !ph.Contains(e.Day) {
			return ErrOrphanEntry.WithDetail("第 %d 天任务 %q 不在阶段 %d 的范围 [%d, %d] 内",
				e.Day, e.TaskName, e.PhaseNumber, ph.StartDay, ph.EndDay)
		}
	}
	return nil
}

// checkDayCoverage [1, duration] 中每天至少一个任务
func checkDayCoverage(entries []model.Entry, duration int) error {
	covered := make([]bool, duration+1)
	for _, e := range entries {
		if e.Day >= 1 && e.Day <= duration {
			covered[e.Day] = true
		}
	}
	for day := 1; day <= duration; day++ {
		if !covered[day] {
			return ErrMissingDay.WithDetail("第 %d 天", day)
		}
	}
	return nil
}

// SortEntries 规范顺序：按 day 升序稳定排序，并重写 Position
func SortEntries(entries []model.Entry) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Day < entries[j].Day })
	for i := range entries {
		entries[i].Position = i
	}
}

// ── 辅助函数 ──

// phaseRange 优先使用显式 startDay/endDay，否则解析 label；两者只给其一视为无效范围
func phaseRange(ph dto.PhasePayload) (int, int, error) {
	switch {
	case ph.StartDay != nil && ph.EndDay != nil:
		return *ph.StartDay, *ph.EndDay, nil
	case ph.StartDay != nil:
		return 0, 0, fmt.Errorf("给出了 startDay=%d 但缺少 endDay", *ph.StartDay)
	case ph.EndDay != nil:
		return 0, 0, fmt.Errorf("给出了 endDay=%d 但缺少 startDay", *ph.EndDay)
	}
	if m := phaseRangeLabelRe.FindStringSubmatch(ph.Label); m != nil {
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return start, end, nil
	}
	if m := phaseSingleLabelRe.FindStringSubmatch(ph.Label); m != nil {
		day, _ := strconv.Atoi(m[1])
		return day, day, nil
	}
	return 0, 0, fmt.Errorf("无法从标签 %q 解析天数范围", ph.Label)
}

// checkBlankFields validator 的 required 不拦截纯空白字符串
func checkBlankFields(raw *dto.PlanPayload) error {
	if strings.TrimSpace(raw.UserGoal) == "" {
		return ErrMissingField.WithDetail("userGoal")
	}
	for i, ph := range raw.Phases {
		if strings.TrimSpace(ph.Label) == "" {
			return ErrMissingField.WithDetail("phases[%d].label", i)
		}
		if strings.TrimSpace(ph.Focus) == "" {
			return ErrMissingField.WithDetail("phases[%d].focus", i)
		}
	}
	for i, e := range raw.ContentCalendar {
		if strings.TrimSpace(e.TaskName) == "" {
			return ErrMissingField.WithDetail("contentCalendar[%d].taskName", i)
		}
	}
	return nil
}

// fieldPath 去掉顶层结构体名："PlanPayload.phases[0].focus" → "phases[0].focus"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return ns
}

func normalizeActivities(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func normalizeResources(in []dto.ResourcePayload) []model.Resource {
	out := make([]model.Resource, 0, len(in))
	for _, r := range in {
		name := strings.TrimSpace(r.Name)
		link := strings.TrimSpace(r.Link)
		if name == "" && link == "" {
			continue
		}
		out = append(out, model.Resource{Name: name, Link: link})
	}
	return out
}
