package service

import (
	"fmt"
	"time"

	"learnplan/backend/internal/model"
	pkgerrors "learnplan/backend/pkg/errors"
)

// ── 进度聚合 ──────────────────────────────────────────────
//
// 职责：将按日期升序的进度记录按粒度（daily / weekly / monthly）分桶汇总。
//
// 规则：
//   - daily：逐条透传，每条记录一个桶，标签为 ISO 日期
//   - weekly：weekOrdinal = 日 - 星期 + 1（星期日 = 0），键为 (年, weekOrdinal)，
//     标签 "Week {weekOrdinal}"；键包含年份，跨年的同序号周不会合并
//   - monthly：键为 (年, 月)，标签 "{year}-{month}"，月份从 1 开始不补零
//   - 桶按键首次出现的顺序输出，不重新排序；hoursSpent 缺失按 0 计
//   - completionRate 基于未分桶的全部记录计算，与粒度无关
// ─────────────────────────────────────────────────────────────

// Granularity 聚合粒度
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// ErrInvalidGranularity 不支持的聚合粒度
var ErrInvalidGranularity = pkgerrors.New(pkgerrors.KindInvalidParameter, "InvalidGranularity", "不支持的统计粒度")

// ParseGranularity 解析外部输入的粒度
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(s)
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return g, nil
	}
	return "", ErrInvalidGranularity.WithDetail("%q，可选 daily | weekly | monthly", s)
}

// ProgressPoint 参与聚合的单条进度
type ProgressPoint struct {
	Date             time.Time
	HoursSpent       *float64
	CompletionStatus model.CompletionStatus
}

// Bucket 聚合结果
type Bucket struct {
	Label      string  `json:"label"`
	Key        string  `json:"key"`
	TotalHours float64 `json:"total_hours"`
}

// ProgressSummary 聚合结果 + 派生统计
type ProgressSummary struct {
	Granularity    Granularity `json:"granularity"`
	Buckets        []Bucket    `json:"buckets"`
	TotalHours     float64     `json:"total_hours"`
	CompletionRate float64     `json:"completion_rate"`
}

// Aggregate 按粒度分桶
func Aggregate(records []ProgressPoint, g Granularity) ([]Bucket, error) {
	switch g {
	case GranularityDaily:
		buckets := make([]Bucket, 0, len(records))
		for _, r := range records {
			day := r.Date.Format("2006-01-02")
			buckets = append(buckets, Bucket{Label: day, Key: day, TotalHours: hoursOf(r)})
		}
		return buckets, nil
	case GranularityWeekly, GranularityMonthly:
		buckets := make([]Bucket, 0)
		index := make(map[string]int)
		for _, r := range records {
			key, label := bucketKey(r.Date, g)
			i, ok := index[key]
			if !ok {
				i = len(buckets)
				index[key] = i
				buckets = append(buckets, Bucket{Label: label, Key: key})
			}
			buckets[i].TotalHours += hoursOf(r)
		}
		return buckets, nil
	}
	return nil, ErrInvalidGranularity.WithDetail("%q", string(g))
}

// Summarize 分桶并计算总时长与完成率
func Summarize(records []ProgressPoint, g Granularity) (*ProgressSummary, error) {
	buckets, err := Aggregate(records, g)
	if err != nil {
		return nil, err
	}
	var total float64
	for _, r := range records {
		total += hoursOf(r)
	}
	return &ProgressSummary{
		Granularity:    g,
		Buckets:        buckets,
		TotalHours:     total,
		CompletionRate: CompletionRate(records),
	}, nil
}

// CompletionRate completed 记录数 / 总记录数；无记录时为 0
func CompletionRate(records []ProgressPoint) float64 {
	if len(records) == 0 {
		return 0
	}
	completed := 0
	for _, r := range records {
		if r.CompletionStatus == model.CompletionCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(records))
}

// WeekOrdinal 周序号：日 - 星期 + 1（星期日 = 0），月初几天可能为 0 或负数
func WeekOrdinal(d time.Time) int {
	return d.Day() - int(d.Weekday()) + 1
}

// bucketKey 返回 (机器键, 展示标签)
func bucketKey(d time.Time, g Granularity) (string, string) {
	if g == GranularityWeekly {
		ord := WeekOrdinal(d)
		return fmt.Sprintf("%04d-W%d", d.Year(), ord), fmt.Sprintf("Week %d", ord)
	}
	return fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month())), fmt.Sprintf("%d-%d", d.Year(), int(d.Month()))
}

func hoursOf(r ProgressPoint) float64 {
	if r.HoursSpent == nil {
		return 0
	}
	return *r.HoursSpent
}

// ProgressPointsFromRecords 存储记录 → 聚合输入（保持原顺序）
func ProgressPointsFromRecords(records []model.ProgressRecord) []ProgressPoint {
	points := make([]ProgressPoint, 0, len(records))
	for _, r := range records {
		points = append(points, ProgressPoint{
			Date:             r.Date,
			HoursSpent:       r.HoursSpent,
			CompletionStatus: r.CompletionStatus,
		})
	}
	return points
}
