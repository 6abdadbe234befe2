package service

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"learnplan/backend/internal/model"
	pkgerrors "learnplan/backend/pkg/errors"
)

// ── 日历导出 ──────────────────────────────────────────────
//
// 职责：将计划的每日任务序列化为 iCalendar (RFC 5545) 文档，每个任务一个 VEVENT。
//
// 设计决策：
//   - 事件开始 = startDate + (day - 1) 天，时刻取 DayStartHour（opts.Location 时区）
//   - 时长从 timeCommitment 解析；无法解析时使用默认时长并记录 warning，不中断导出
//   - UID 由计划 ID + 规范位置生成，DTSTAMP 取计划创建时间：同输入导出结果逐字节一致
//   - 文本值原样交给 ical 库，由其按 RFC 5545 §3.3.11 转义并折行
//   - 导出后回读事件数，必须等于任务数
// ─────────────────────────────────────────────────────────────

// ── 导出模块业务错误 ──

var (
	ErrExportEmptyPlan     = pkgerrors.New(pkgerrors.KindExport, "EmptyPlan", "计划中没有可导出的任务")
	ErrExportMalformedPlan = pkgerrors.New(pkgerrors.KindExport, "MalformedPlan", "计划结构异常，无法导出")
)

const (
	defaultCalendarProductID = "-//learnplan//Learning Plan Export//EN"
	defaultCalendarUIDDomain = "learnplan"
	defaultDayStartHour      = 9
	maxCommitment            = 24 * time.Hour
)

// timeCommitment 解析："2 hours" / "1.5 hrs" / "90 minutes" / "1 hour 30 minutes" / "2h" / "45m"
var (
	commitmentHoursRe   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours|hour|hrs|hr|h)(?:[^a-z]|$)`)
	commitmentMinutesRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:minutes|minute|mins|min|m)(?:[^a-z]|$)`)
	commitmentBareRe    = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)\s*$`)
)

// ical 库只转义 \n，裸 CR 会截断内容行
var newlineNormalizer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// CalendarOptions 导出参数（由调用方持有，引擎不保存任何全局状态）
type CalendarOptions struct {
	Location        *time.Location
	DayStartHour    int
	DefaultDuration time.Duration
	ProductID       string
	UIDDomain       string
}

// DefaultCalendarOptions UTC、09:00 开始、默认 1 小时
func DefaultCalendarOptions() CalendarOptions {
	return CalendarOptions{
		Location:        time.UTC,
		DayStartHour:    defaultDayStartHour,
		DefaultDuration: time.Hour,
		ProductID:       defaultCalendarProductID,
		UIDDomain:       defaultCalendarUIDDomain,
	}
}

func (o CalendarOptions) withDefaults() CalendarOptions {
	d := DefaultCalendarOptions()
	if o.Location == nil {
		o.Location = d.Location
	}
	if o.DayStartHour < 0 || o.DayStartHour > 23 {
		o.DayStartHour = d.DayStartHour
	}
	if o.DefaultDuration <= 0 {
		o.DefaultDuration = d.DefaultDuration
	}
	if o.ProductID == "" {
		o.ProductID = d.ProductID
	}
	if o.UIDDomain == "" {
		o.UIDDomain = d.UIDDomain
	}
	return o
}

// ExportWarning 非致命导出警告（如无法解析的时间投入）
type ExportWarning struct {
	Day            int    `json:"day"`
	TaskName       string `json:"task_name"`
	TimeCommitment string `json:"time_commitment"`
	Message        string `json:"message"`
}

// CalendarDocument 导出结果
type CalendarDocument struct {
	Content    []byte          `json:"content"`
	EventCount int             `json:"event_count"`
	Warnings   []ExportWarning `json:"warnings"`
	Filename   string          `json:"filename"`
}

// ═══════════════════════════════════════════════════════════
// ExportPlanCalendar：计划 → iCalendar 文档
// ═══════════════════════════════════════════════════════════

func ExportPlanCalendar(plan *model.Plan, startDate time.Time, opts CalendarOptions) (*CalendarDocument, error) {
	if plan == nil || len(plan.Entries) == 0 {
		return nil, ErrExportEmptyPlan
	}
	opts = opts.withDefaults()

	first := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), opts.DayStartHour, 0, 0, 0, opts.Location)
	stamp := plan.CreatedAt.UTC()
	if plan.CreatedAt.IsZero() {
		stamp = first.UTC()
	}

	cal := ics.NewCalendar()
	cal.SetProductId(opts.ProductID)
	cal.SetMethod(ics.MethodPublish)

	warnings := make([]ExportWarning, 0)
	entries := canonicalEntries(plan.Entries)
	for i, e := range entries {
		phase, ok := plan.PhaseByNumber(e.PhaseNumber)
		if !ok {
			return nil, ErrExportMalformedPlan.WithDetail("第 %d 天任务 %q 引用了不存在的阶段 %d", e.Day, e.TaskName, e.PhaseNumber)
		}
		if e.Day < 1 {
			return nil, ErrExportMalformedPlan.WithDetail("任务 %q 的 day=%d 无效", e.TaskName, e.Day)
		}

		duration, ok := ParseTimeCommitment(e.TimeCommitment)
		if !ok {
			duration = opts.DefaultDuration
			warnings = append(warnings, ExportWarning{
				Day:            e.Day,
				TaskName:       e.TaskName,
				TimeCommitment: e.TimeCommitment,
				Message:        fmt.Sprintf("无法解析时间投入，使用默认时长 %s", duration),
			})
		}

		start := first.AddDate(0, 0, e.Day-1)
		event := cal.AddEvent(fmt.Sprintf("%s-%03d@%s", plan.PlanID, i+1, opts.UIDDomain))
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(duration))
		event.SetSummary(newlineNormalizer.Replace(e.TaskName))
		event.SetDescription(newlineNormalizer.Replace(eventDescription(e, phase)))
		if e.LearningStyle != "" {
			event.AddCategory(newlineNormalizer.Replace(e.LearningStyle))
		}
	}

	content := cal.Serialize()

	// 回读校验：事件数必须等于任务数
	count, err := CountCalendarEvents(strings.NewReader(content))
	if err != nil {
		return nil, ErrExportMalformedPlan.Wrap(err)
	}
	if count != len(entries) {
		return nil, ErrExportMalformedPlan.WithDetail("回读事件数 %d 与任务数 %d 不一致", count, len(entries))
	}

	return &CalendarDocument{
		Content:    []byte(content),
		EventCount: count,
		Warnings:   warnings,
		Filename:   fmt.Sprintf("学习计划_%s.ics", first.Format("20060102")),
	}, nil
}

// ParseTimeCommitment 解析时间投入；无法识别或超过 24 小时返回 false
func ParseTimeCommitment(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if m := commitmentBareRe.FindStringSubmatch(s); m != nil {
		return hoursToDuration(m[1])
	}

	var total time.Duration
	for _, m := range commitmentHoursRe.FindAllStringSubmatch(s, -1) {
		d, ok := hoursToDuration(m[1])
		if !ok {
			return 0, false
		}
		total += d
	}
	for _, m := range commitmentMinutesRe.FindAllStringSubmatch(s, -1) {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, false
		}
		total += time.Duration(f * float64(time.Minute))
	}
	if total <= 0 || total > maxCommitment {
		return 0, false
	}
	return total, true
}

func hoursToDuration(raw string) (time.Duration, bool) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	d := time.Duration(f * float64(time.Hour))
	if d <= 0 || d > maxCommitment {
		return 0, false
	}
	return d, true
}

// eventDescription 任务描述 + 阶段重点 + 资源列表
func eventDescription(e model.Entry, phase *model.Phase) string {
	var parts []string
	if e.TaskDescription != "" {
		parts = append(parts, e.TaskDescription)
	}
	if phase.Focus != "" {
		parts = append(parts, "阶段重点："+phase.Focus)
	}
	if len(e.Resources) > 0 {
		lines := []string{"学习资源："}
		for _, r := range e.Resources {
			switch {
			case r.Name != "" && r.Link != "":
				lines = append(lines, fmt.Sprintf("- %s: %s", r.Name, r.Link))
			case r.Link != "":
				lines = append(lines, "- "+r.Link)
			default:
				lines = append(lines, "- "+r.Name)
			}
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// canonicalEntries 按 (day, position) 排序的副本，不修改调用方数据
func canonicalEntries(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Day != out[j].Day {
			return out[i].Day < out[j].Day
		}
		return out[i].Position < out[j].Position
	})
	return out
}
