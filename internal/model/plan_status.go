package model

import (
	pkgerrors "learnplan/backend/pkg/errors"
)

// PlanStatus 计划生命周期状态
type PlanStatus string

const (
	PlanStatusActive    PlanStatus = "active"
	PlanStatusPaused    PlanStatus = "paused"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusArchived  PlanStatus = "archived"
)

var (
	// ErrInvalidTransition 状态机拒绝的流转（如 completed → active）
	ErrInvalidTransition = pkgerrors.New(pkgerrors.KindInvalidTransition, "InvalidTransition", "无效的计划状态流转")
	// ErrUnknownStatus 无法识别的状态值
	ErrUnknownStatus = pkgerrors.New(pkgerrors.KindInvalidParameter, "UnknownStatus", "无法识别的计划状态")
)

// ParsePlanStatus 将外部输入解析为 PlanStatus
func ParsePlanStatus(s string) (PlanStatus, error) {
	st := PlanStatus(s)
	if !st.IsValid() {
		return "", ErrUnknownStatus.WithDetail("%q", s)
	}
	return st, nil
}

// IsValid 是否为已定义状态
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusActive, PlanStatusPaused, PlanStatusCompleted, PlanStatusArchived:
		return true
	}
	return false
}

// IsTerminal completed / archived 不再参与自动调度（通知等）
func (s PlanStatus) IsTerminal() bool {
	return s == PlanStatusCompleted || s == PlanStatusArchived
}

// CanTransition 判断 from → to 是否为合法流转
//
// 合法流转：
//   - active → paused | completed | archived
//   - paused → active | archived
//
// 终态（completed / archived）不允许任何流转；同状态写入也视为非法。
func CanTransition(from, to PlanStatus) bool {
	switch from {
	case PlanStatusActive:
		return to == PlanStatusPaused || to == PlanStatusCompleted || to == PlanStatusArchived
	case PlanStatusPaused:
		return to == PlanStatusActive || to == PlanStatusArchived
	}
	return false
}

// TransitionStatus 唯一的状态流转入口，返回新状态或 ErrInvalidTransition
func TransitionStatus(from, to PlanStatus) (PlanStatus, error) {
	if !to.IsValid() {
		return from, ErrUnknownStatus.WithDetail("%q", string(to))
	}
	if !CanTransition(from, to) {
		return from, ErrInvalidTransition.WithDetail("%s → %s", from, to)
	}
	return to, nil
}
