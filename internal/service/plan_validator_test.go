package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnplan/backend/internal/dto"
	pkgerrors "learnplan/backend/pkg/errors"
)

func TestPlanValidator_AcceptsEveryDurationInRange(t *testing.T) {
	v := NewPlanValidator(PlanLimits{})
	for d := 5; d <= 30; d++ {
		plan, err := v.Validate(buildPayload(d))
		require.NoError(t, err, "duration=%d", d)
		assert.Equal(t, d, plan.Duration)
		assert.Len(t, plan.Entries, d)
	}
}

func TestPlanValidator_DurationOutOfRange(t *testing.T) {
	v := NewPlanValidator(PlanLimits{})
	for _, d := range []int{0, 4, 31, 60} {
		p := buildPayload(7)
		p.Duration = intPtr(d)
		_, err := v.Validate(p)
		assert.ErrorIs(t, err, ErrDurationOutOfRange, "duration=%d", d)
		assert.ErrorIs(t, err, ErrPlanValidation)
	}
}

func TestPlanValidator_MissingField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *dto.PlanPayload)
	}{
		{"缺少 userGoal", func(p *dto.PlanPayload) { p.UserGoal = "" }},
		{"userGoal 仅空白", func(p *dto.PlanPayload) { p.UserGoal = "   " }},
		{"缺少 duration", func(p *dto.PlanPayload) { p.Duration = nil }},
		{"缺少 phases", func(p *dto.PlanPayload) { p.Phases = nil }},
		{"缺少 contentCalendar", func(p *dto.PlanPayload) { p.ContentCalendar = nil }},
		{"阶段缺少 focus", func(p *dto.PlanPayload) { p.Phases[0].Focus = "" }},
		{"任务缺少 day", func(p *dto.PlanPayload) { p.ContentCalendar[2].Day = nil }},
		{"任务缺少 taskName", func(p *dto.PlanPayload) { p.ContentCalendar[0].TaskName = " " }},
	}
	v := NewPlanValidator(PlanLimits{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildPayload(7)
			tt.mutate(p)
			_, err := v.Validate(p)
			assert.ErrorIs(t, err, ErrMissingField)
			assert.Equal(t, pkgerrors.KindValidation, pkgerrors.KindOf(err))
		})
	}
}

func TestPlanValidator_MissingFieldReportsJSONPath(t *testing.T) {
	p := buildPayload(7)
	p.Phases[0].Label = ""
	_, err := NewPlanValidator(PlanLimits{}).Validate(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phases[0].label")
}

func TestPlanValidator_PhaseOverlap(t *testing.T) {
	p := buildPayload(14)
	// 阶段 2 从第 7 天开始，与阶段 1 的第 7 天重叠
	p.Phases[1].Label = "Days 7–14"
	_, err := NewPlanValidator(PlanLimits{}).Validate(p)
	assert.ErrorIs(t, err, ErrPhaseCoverageGap)
}

func TestPlanValidator_PhaseGap(t *testing.T) {
	p := buildPayload(14)
	p.Phases[1].Label = "Days 9–14"
	_, err := NewPlanValidator(PlanLimits{}).Validate(p)
	assert.ErrorIs(t, err, ErrPhaseCoverageGap)
}

func TestPlanValidator_PhaseRangeShorterThanDuration(t *testing.T) {
	p := buildPayload(14)
	p.Phases[1].Label = "Days 8–13"
	_, err := NewPlanValidator(PlanLimits{}).Validate(p)
	assert.ErrorIs(t, err, ErrPhaseCoverageGap)
}

func TestPlanValidator_UnparseablePhaseLabel(t *testing.T) {
	p := buildPayload(7)
	p.Phases[0].Label = "Foundations"
	_, err := NewPlanValidator(PlanLimits{}).Validate(p)
	assert.ErrorIs(t, err, ErrPhaseCoverageGap)
}

func TestPlanValidator_ExplicitRangeOverridesLabel(t *testing.T) {
	p := buildPayload(7)
	p.Phases[0].Label = "Foundations"
	p.Phases[0].StartDay = intPtr(1)
	p.Phases[0].EndDay = intPtr(7)
	plan, err := NewPlanValidator(PlanLimits{}).Validate(p)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Phases[0].StartDay)
	assert.Equal(t, 7, plan.Phases[0].EndDay)
}

func TestPlanValidator_HalfSpecifiedRange(t *testing.T) {
	tests := []struct {
		name  string
		start *int
		end   *int
		want  string
	}{
		{"只有 startDay", intPtr(1), nil, "缺少 endDay"},
		{"只有 endDay", nil, intPtr(7), "缺少 startDay"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := buildPayload(7)
			// 标签本身可解析，半个范围也不能静默回退到标签
			p.Phases[0].StartDay = tt.start
			p.Phases[0].EndDay = tt.end
			_, err := NewPlanValidator(PlanLimits{}).Validate(p)
			require.ErrorIs(t, err, ErrPhaseCoverageGap)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPlanValidator_OrphanEntry(t *testing.T) {
	t.Run("引用不存在的阶段", func(t *testing.T) {
		p := buildPayload(7)
		p.ContentCalendar[3].PhaseNumber = intPtr(9)
		_, err := NewPlanValidator(PlanLimits{}).Validate(p)
		assert.ErrorIs(t, err, ErrOrphanEntry)
	})
	t.Run("day 不在阶段范围内", func(t *testing.T) {
		p := buildPayload(14)
		// 第 3 天的任务挂在阶段 2（8–14）下
		p.ContentCalendar[2].PhaseNumber = intPtr(2)
		_, err := NewPlanValidator(PlanLimits{}).Validate(p)
		assert.ErrorIs(t, err, ErrOrphanEntry)
	})
}

func TestPlanValidator_MissingDay(t *testing.T) {
	p := buildPayload(7)
	// 删除第 4 天
	p.ContentCalendar = append(p.ContentCalendar[:3], p.ContentCalendar[4:]...)
	_, err := NewPlanValidator(PlanLimits{}).Validate(p)
	assert.ErrorIs(t, err, ErrMissingDay)
	assert.Contains(t, err.Error(), "第 4 天")
}

func TestPlanValidator_StableSortByDay(t *testing.T) {
	p := buildPayload(5)
	extra := dto.EntryPayload{Day: intPtr(2), PhaseNumber: intPtr(1), TaskName: "第 2 天补充任务"}
	// 逆序输入 + 同日两个任务
	p.ContentCalendar = []dto.EntryPayload{
		p.ContentCalendar[4], p.ContentCalendar[1], extra,
		p.ContentCalendar[3], p.ContentCalendar[2], p.ContentCalendar[0],
	}

	plan, err := NewPlanValidator(PlanLimits{}).Validate(p)
	require.NoError(t, err)

	days := make([]int, 0, len(plan.Entries))
	for i, e := range plan.Entries {
		days = append(days, e.Day)
		assert.Equal(t, i, e.Position)
	}
	assert.Equal(t, []int{1, 2, 2, 3, 4, 5}, days)
	assert.Equal(t, "第 2 天任务", plan.Entries[1].TaskName)
	assert.Equal(t, "第 2 天补充任务", plan.Entries[2].TaskName)
}

func TestPlanValidator_Normalizes(t *testing.T) {
	p := buildPayload(5)
	p.UserGoal = "  学习 Go  "
	p.Phases[0].Activities = []string{"阅读", " ", ""}
	p.ContentCalendar[0].Resources = []dto.ResourcePayload{{}, {Name: " Tour of Go ", Link: "https://go.dev/tour"}}

	plan, err := NewPlanValidator(PlanLimits{}).Validate(p)
	require.NoError(t, err)
	assert.Equal(t, "学习 Go", plan.UserGoal)
	assert.Equal(t, []string{"阅读"}, []string(plan.Phases[0].Activities))
	require.Len(t, plan.Entries[0].Resources, 1)
	assert.Equal(t, "Tour of Go", plan.Entries[0].Resources[0].Name)
	assert.Equal(t, "active", string(plan.Status))
}

func TestPlanValidator_CustomLimits(t *testing.T) {
	v := NewPlanValidator(PlanLimits{MinDuration: 7, MaxDuration: 14})
	_, err := v.Validate(buildPayload(5))
	assert.ErrorIs(t, err, ErrDurationOutOfRange)

	_, err = v.Validate(buildPayload(14))
	assert.NoError(t, err)
}

func TestPlanValidator_CheckShapeRejectsCorruptedPlan(t *testing.T) {
	plan := buildPlan(7)
	plan.Entries = plan.Entries[:6]
	err := NewPlanValidator(PlanLimits{}).CheckShape(plan)
	assert.True(t, errors.Is(err, ErrMissingDay))
}
