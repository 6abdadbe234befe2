package service

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ── iCalendar 回读 ──────────────────────────────────────────
//
// 职责：解析导出的 iCalendar 文档，用于导出后的事件数校验与 plantool 检查。
//
// 设计决策：
//   - DTSTART/DTEND 支持 UTC、浮动时间、TZID 参数与全天日期
//   - 无 DTEND 时忽略 DURATION 细节，结束时间等于开始时间
//   - TEXT 属性由 ical 库解析时反转义，这里直接取值
// ─────────────────────────────────────────────────────────────

// CalendarEvent 回读的事件
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// CountCalendarEvents 统计文档中的 VEVENT 数
func CountCalendarEvents(reader io.Reader) (int, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return 0, fmt.Errorf("ICS 格式解析失败: %w", err)
	}
	return len(cal.Events()), nil
}

// ReadCalendarEvents 解析文档中的全部事件，时间统一转换到 loc
func ReadCalendarEvents(reader io.Reader, loc *time.Location) ([]CalendarEvent, error) {
	cal, err := ics.ParseCalendar(reader)
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	events := make([]CalendarEvent, 0, len(cal.Events()))
	for _, comp := range cal.Events() {
		uid := propertyText(comp, ics.ComponentPropertyUniqueId)
		start, err := parseICSDateTime(comp, ics.ComponentPropertyDtStart, loc)
		if err != nil {
			return nil, fmt.Errorf("事件 %s: %w", uid, err)
		}
		end, err := parseICSDateTime(comp, ics.ComponentPropertyDtEnd, loc)
		if err != nil {
			end = start
		}
		events = append(events, CalendarEvent{
			UID:         uid,
			Summary:     propertyText(comp, ics.ComponentPropertySummary),
			Description: propertyText(comp, ics.ComponentPropertyDescription),
			Start:       start,
			End:         end,
		})
	}
	return events, nil
}

// ── 辅助函数 ──

func propertyText(evt *ics.VEvent, name ics.ComponentProperty) string {
	prop := evt.GetProperty(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, fmt.Errorf("missing property %s", propName)
	}
	val := prop.Value

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
	}

	// 检查 TZID 参数
	tzid := ""
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			tzid = v[0]
		}
	}

	for _, layout := range formats {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), nil
		}
		if tzid != "" {
			if tzLoc, err := time.LoadLocation(tzid); err == nil {
				return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, tzLoc).In(loc), nil
			}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("无法解析日期: %s", val)
}
