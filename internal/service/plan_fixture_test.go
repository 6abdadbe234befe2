package service

import (
	"fmt"
	"time"

	"learnplan/backend/internal/dto"
	"learnplan/backend/internal/model"
)

// ── 测试辅助：计划载荷构造 ──

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

// buildPayload 构造 duration 天、每 7 天一个阶段、每天一个任务的合法载荷
func buildPayload(duration int) *dto.PlanPayload {
	p := &dto.PlanPayload{
		UserGoal: "学习 Go 并发编程",
		Duration: intPtr(duration),
	}
	phase := 0
	for start := 1; start <= duration; start += 7 {
		phase++
		end := start + 6
		if end > duration {
			end = duration
		}
		p.Phases = append(p.Phases, dto.PhasePayload{
			PhaseNumber: intPtr(phase),
			Label:       fmt.Sprintf("Days %d–%d", start, end),
			Focus:       fmt.Sprintf("阶段 %d 重点", phase),
			Activities:  []string{"阅读", "练习"},
		})
		for day := start; day <= end; day++ {
			p.ContentCalendar = append(p.ContentCalendar, dto.EntryPayload{
				Day:            intPtr(day),
				PhaseNumber:    intPtr(phase),
				TaskName:       fmt.Sprintf("第 %d 天任务", day),
				TimeCommitment: "2 hours",
				LearningStyle:  "hands-on",
				Resources:      []dto.ResourcePayload{{Name: "Go 官方文档", Link: "https://go.dev/doc"}},
			})
		}
	}
	return p
}

// buildPlan 构造已校验的计划
func buildPlan(duration int) *model.Plan {
	plan, err := NewPlanValidator(PlanLimits{}).Validate(buildPayload(duration))
	if err != nil {
		panic(err)
	}
	plan.PlanID = "11111111-2222-3333-4444-555555555555"
	plan.UserID = "user-001"
	plan.CreatedAt = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	plan.UpdatedAt = plan.CreatedAt
	return plan
}
