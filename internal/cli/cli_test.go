package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"learnplan/backend/config"
	"learnplan/backend/pkg/database"
	"learnplan/backend/pkg/jwt"
)

// samplePayload 生成 duration 天、每 7 天一个阶段的计划 JSON
func samplePayload(duration int, commitment string) map[string]interface{} {
	var phases []map[string]interface{}
	for start, n := 1, 1; start <= duration; start, n = start+7, n+1 {
		end := start + 6
		if end > duration {
			end = duration
		}
		phases = append(phases, map[string]interface{}{
			"phaseNumber": n,
			"label":       fmt.Sprintf("Days %d–%d", start, end),
			"focus":       fmt.Sprintf("阶段 %d", n),
			"activities":  []string{"阅读"},
		})
	}
	var entries []map[string]interface{}
	for d := 1; d <= duration; d++ {
		entries = append(entries, map[string]interface{}{
			"day":            d,
			"phaseNumber":    (d-1)/7 + 1,
			"taskName":       fmt.Sprintf("任务 %d", d),
			"timeCommitment": commitment,
		})
	}
	return map[string]interface{}{
		"userGoal":        "掌握 Go 并发",
		"duration":        duration,
		"phases":          phases,
		"contentCalendar": entries,
	}
}

func writeJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("序列化失败: %v", err)
	}
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("写入临时文件失败: %v", err)
	}
	return path
}

// run 执行命令并返回 stdout / stderr
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	// 包级 flag 变量在测试之间共享，逐个复位
	minDuration, maxDuration = 5, 30
	exportStart, exportOut, exportTZ, exportHour, exportMinutes, exportPlanID = "", "", "UTC", 9, 60, "local"
	aggregateGranularity, aggregateJSON = "weekly", false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

// ── validate ──

func TestValidate_OK(t *testing.T) {
	path := writeJSON(t, samplePayload(14, "2 hours"))

	out, _, err := run(t, "validate", path)
	if err != nil {
		t.Fatalf("期望校验通过: %v", err)
	}
	if !strings.Contains(out, "14 天，2 个阶段，14 个任务") {
		t.Errorf("概要输出错误: %q", out)
	}
}

func TestValidate_DurationOutOfRange(t *testing.T) {
	path := writeJSON(t, samplePayload(3, "1 hour"))

	_, _, err := run(t, "validate", path)
	if err == nil {
		t.Fatal("3 天计划应校验失败")
	}
	if !strings.Contains(err.Error(), "validation_error:DurationOutOfRange") {
		t.Errorf("错误应包含类别与原因: %v", err)
	}
}

func TestValidate_CustomLimits(t *testing.T) {
	path := writeJSON(t, samplePayload(3, "1 hour"))

	if _, _, err := run(t, "validate", "--min-duration", "1", path); err != nil {
		t.Errorf("放宽下限后应通过: %v", err)
	}
}

func TestValidate_BadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	if _, _, err := run(t, "validate", path); err == nil {
		t.Error("非法 JSON 应报错")
	}
}

// ── export ──

func TestExport_ToFile(t *testing.T) {
	path := writeJSON(t, samplePayload(7, "90 minutes"))
	outPath := filepath.Join(t.TempDir(), "plan.ics")

	_, errOut, err := run(t, "export", path, "--start", "2025-03-10", "--out", outPath)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	content, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("读取导出文件失败: %v", err)
	}
	if got := strings.Count(string(content), "BEGIN:VEVENT"); got != 7 {
		t.Errorf("事件数 = %d, 期望 7", got)
	}
	if !strings.Contains(errOut, "已导出 7 个事件") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestExport_StdoutWithWarnings(t *testing.T) {
	path := writeJSON(t, samplePayload(5, "a while"))

	out, errOut, err := run(t, "export", path, "--start", "2025-03-10", "--plan-id", "demo")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if !strings.Contains(out, "UID:demo-001@learnplan") {
		t.Errorf("UID 应使用 --plan-id: %q", out)
	}
	if got := strings.Count(errOut, "警告"); got != 5 {
		t.Errorf("警告数 = %d, 期望 5", got)
	}
}

func TestExport_Deterministic(t *testing.T) {
	path := writeJSON(t, samplePayload(10, "2h"))

	first, _, err := run(t, "export", path, "--start", "2025-03-10")
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	second, _, _ := run(t, "export", path, "--start", "2025-03-10")
	if first != second {
		t.Error("相同输入两次导出应逐字节一致")
	}
}

func TestExport_InvalidFlags(t *testing.T) {
	path := writeJSON(t, samplePayload(7, "1h"))

	tests := []struct {
		name string
		args []string
	}{
		{"缺少 start", []string{"export", path}},
		{"start 格式错误", []string{"export", path, "--start", "2025/03/10"}},
		{"时区无效", []string{"export", path, "--start", "2025-03-10", "--tz", "Mars/Base"}},
		{"小时越界", []string{"export", path, "--start", "2025-03-10", "--hour", "24"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, tt.args...); err == nil {
				t.Error("期望报错")
			}
		})
	}
}

// ── aggregate ──

func TestAggregate_Weekly(t *testing.T) {
	records := []map[string]interface{}{
		{"date": "2025-01-05", "hours_spent": 1.5, "completion_status": "completed"},
		{"date": "2025-01-07", "hours_spent": 2, "completion_status": "completed"},
		{"date": "2025-01-12", "hours_spent": 1, "completion_status": "skipped"},
		{"date": "2025-01-13", "completion_status": "pending"},
	}
	path := writeJSON(t, records)

	out, _, err := run(t, "aggregate", path, "--json")
	if err != nil {
		t.Fatalf("汇总失败: %v", err)
	}
	var summary struct {
		Buckets []struct {
			Label      string  `json:"label"`
			TotalHours float64 `json:"total_hours"`
		} `json:"buckets"`
		TotalHours     float64 `json:"total_hours"`
		CompletionRate float64 `json:"completion_rate"`
	}
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("解析输出失败: %v\n%s", err, out)
	}
	if len(summary.Buckets) != 2 {
		t.Fatalf("桶数 = %d, 期望 2: %+v", len(summary.Buckets), summary.Buckets)
	}
	if summary.Buckets[0].Label != "Week 6" || summary.Buckets[0].TotalHours != 3.5 {
		t.Errorf("第一个桶 = %+v", summary.Buckets[0])
	}
	if summary.Buckets[1].Label != "Week 13" || summary.Buckets[1].TotalHours != 1 {
		t.Errorf("第二个桶 = %+v", summary.Buckets[1])
	}
	if summary.TotalHours != 4.5 || summary.CompletionRate != 0.5 {
		t.Errorf("合计 = %v, 完成率 = %v", summary.TotalHours, summary.CompletionRate)
	}
}

func TestAggregate_Table(t *testing.T) {
	path := writeJSON(t, []map[string]interface{}{
		{"date": "2025-02-01", "hours_spent": 2, "completion_status": "completed"},
	})

	out, _, err := run(t, "aggregate", path, "-g", "monthly")
	if err != nil {
		t.Fatalf("汇总失败: %v", err)
	}
	if !strings.Contains(out, "2025-2") || !strings.Contains(out, "完成率 100.0%") {
		t.Errorf("表格输出错误: %q", out)
	}
}

func TestAggregate_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		records interface{}
		args    []string
	}{
		{"粒度无效", []interface{}{}, []string{"-g", "yearly"}},
		{"日期无效", []map[string]interface{}{{"date": "01/05/2025"}}, nil},
		{"状态无效", []map[string]interface{}{{"date": "2025-01-05", "completion_status": "done"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeJSON(t, tt.records)
			args := append([]string{"aggregate", path}, tt.args...)
			if _, _, err := run(t, args...); err == nil {
				t.Error("期望报错")
			}
		})
	}
}

// ── migrate ──

func TestFormatMigrationStatus(t *testing.T) {
	tests := []struct {
		in   database.MigrationStatus
		want string
	}{
		{database.MigrationStatus{Empty: true}, "尚未执行任何迁移"},
		{database.MigrationStatus{Version: 1}, "版本 1"},
		{database.MigrationStatus{Version: 2, Dirty: true}, "版本 2（dirty，需要人工处理）"},
	}
	for _, tt := range tests {
		if got := formatMigrationStatus(tt.in); got != tt.want {
			t.Errorf("formatMigrationStatus(%+v) = %q, 期望 %q", tt.in, got, tt.want)
		}
	}
}

// ── token ──

func TestToken(t *testing.T) {
	t.Setenv("LEARNPLAN_AUTH_JWT_SECRET", "cli-test-secret-0123456789")
	tokenUserID, tokenConfigPath = "", ""
	out, _, err := run(t, "token", "--user", "user-001")
	if err != nil {
		t.Fatalf("签发 Token 失败: %v", err)
	}
	mgr := jwt.NewManager(&config.AuthConfig{JWTSecret: "cli-test-secret-0123456789"})
	claims, err := mgr.ParseToken(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("签发的 Token 无法解析: %v", err)
	}
	if claims.UserID != "user-001" {
		t.Errorf("user_id = %q", claims.UserID)
	}
}
