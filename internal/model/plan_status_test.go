package model

import (
	"errors"
	"testing"
)

func TestTransitionStatus_Allowed(t *testing.T) {
	cases := []struct {
		from, to PlanStatus
	}{
		{PlanStatusActive, PlanStatusPaused},
		{PlanStatusActive, PlanStatusCompleted},
		{PlanStatusActive, PlanStatusArchived},
		{PlanStatusPaused, PlanStatusActive},
		{PlanStatusPaused, PlanStatusArchived},
	}
	for _, tc := range cases {
		got, err := TransitionStatus(tc.from, tc.to)
		if err != nil {
			t.Errorf("%s → %s 应合法，实际错误: %v", tc.from, tc.to, err)
			continue
		}
		if got != tc.to {
			t.Errorf("%s → %s 期望返回 %s，实际 %s", tc.from, tc.to, tc.to, got)
		}
	}
}

func TestTransitionStatus_Rejected(t *testing.T) {
	cases := []struct {
		from, to PlanStatus
	}{
		{PlanStatusCompleted, PlanStatusActive},
		{PlanStatusCompleted, PlanStatusArchived},
		{PlanStatusArchived, PlanStatusActive},
		{PlanStatusArchived, PlanStatusPaused},
		{PlanStatusPaused, PlanStatusCompleted},
		{PlanStatusActive, PlanStatusActive},
		{PlanStatusPaused, PlanStatusPaused},
	}
	for _, tc := range cases {
		got, err := TransitionStatus(tc.from, tc.to)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s → %s 期望 ErrInvalidTransition，实际: %v", tc.from, tc.to, err)
		}
		if got != tc.from {
			t.Errorf("非法流转不应改变状态，期望 %s，实际 %s", tc.from, got)
		}
	}
}

func TestTransitionStatus_UnknownTarget(t *testing.T) {
	_, err := TransitionStatus(PlanStatusActive, PlanStatus("deleted"))
	if !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("期望 ErrUnknownStatus，实际: %v", err)
	}
}

func TestParsePlanStatus(t *testing.T) {
	if st, err := ParsePlanStatus("paused"); err != nil || st != PlanStatusPaused {
		t.Errorf("期望 paused，实际 %s / %v", st, err)
	}
	if _, err := ParsePlanStatus("PAUSED"); !errors.Is(err, ErrUnknownStatus) {
		t.Errorf("状态值区分大小写，期望 ErrUnknownStatus，实际: %v", err)
	}
}

func TestPlanStatus_IsTerminal(t *testing.T) {
	if PlanStatusActive.IsTerminal() || PlanStatusPaused.IsTerminal() {
		t.Error("active / paused 不是终态")
	}
	if !PlanStatusCompleted.IsTerminal() || !PlanStatusArchived.IsTerminal() {
		t.Error("completed / archived 应为终态")
	}
}

func TestPlan_PhaseByNumber(t *testing.T) {
	p := &Plan{Phases: []Phase{
		{PhaseNumber: 1, StartDay: 1, EndDay: 3},
		{PhaseNumber: 2, StartDay: 4, EndDay: 5},
	}}
	ph, ok := p.PhaseByNumber(2)
	if !ok || ph.StartDay != 4 {
		t.Fatalf("期望找到阶段 2，实际 ok=%v", ok)
	}
	if !ph.Contains(5) || ph.Contains(3) {
		t.Error("阶段 2 的范围应为 [4,5]")
	}
	if _, ok := p.PhaseByNumber(3); ok {
		t.Error("不存在的阶段编号应返回 false")
	}
}
