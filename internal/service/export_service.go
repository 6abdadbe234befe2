package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"learnplan/backend/internal/repository"
	pkgerrors "learnplan/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindExport, "GenerateFailed", "生成导出文件失败")

// ExportCache 导出结果缓存（Redis 实现见 pkg/redis）
// 缓存只是加速手段：读写失败记录日志后按未命中处理
type ExportCache interface {
	GetExport(ctx context.Context, planID, key string) ([]byte, bool, error)
	SetExport(ctx context.Context, planID, key string, payload []byte, ttl time.Duration) error
	InvalidatePlan(ctx context.Context, planID string) error
}

// ExportService 导出业务接口
//
// 设计说明：
//   - 日历导出为 iCalendar (.ics)，每个每日任务一个事件
//   - 进度导出为 Excel (.xlsx)：Sheet "统计" 为聚合桶，Sheet "明细" 为每日记录
//   - 导出以 bytes 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	ExportCalendar(ctx context.Context, userID, planID string, startDate time.Time) (*CalendarDocument, error)
	ExportProgress(ctx context.Context, userID, planID, granularity string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo      *repository.Repository
	validator *PlanValidator
	cache     ExportCache
	cacheTTL  time.Duration
	opts      CalendarOptions
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例；cache 可为 nil
func NewExportService(repo *repository.Repository, validator *PlanValidator, cache ExportCache, cacheTTL time.Duration, opts CalendarOptions, logger *zap.Logger) ExportService {
	return &exportService{
		repo:      repo,
		validator: validator,
		cache:     cache,
		cacheTTL:  cacheTTL,
		opts:      opts.withDefaults(),
		logger:    logger,
	}
}

// ═══════════════════════════════════════════════════════════
// ExportCalendar：导出计划日历
// ═══════════════════════════════════════════════════════════
//
// 计划持久化后不可变，(planID, startDate) 相同则导出结果相同，可直接缓存。

func (s *exportService) ExportCalendar(ctx context.Context, userID, planID string, startDate time.Time) (*CalendarDocument, error) {
	plan, err := fetchPlan(ctx, s.repo, s.logger, userID, planID)
	if err != nil {
		return nil, err
	}
	// 无任务先于结构校验判定，否则会被 MissingDay 掩盖
	if len(plan.Entries) == 0 {
		return nil, ErrExportEmptyPlan
	}
	if err := s.validator.CheckShape(plan); err != nil {
		s.logger.Warn("存储中的计划结构异常", zap.String("plan_id", planID), zap.Error(err))
		return nil, ErrExportMalformedPlan.Wrap(err)
	}

	cacheKey := "ics:" + startDate.Format("20060102")
	if doc, ok := s.cachedCalendar(ctx, planID, cacheKey); ok {
		return doc, nil
	}

	doc, err := ExportPlanCalendar(plan, startDate, s.opts)
	if err != nil {
		return nil, err
	}
	if len(doc.Warnings) > 0 {
		s.logger.Info("日历导出存在无法解析的时间投入",
			zap.String("plan_id", planID),
			zap.Int("warnings", len(doc.Warnings)))
	}

	s.storeCalendar(ctx, planID, cacheKey, doc)
	return doc, nil
}

func (s *exportService) cachedCalendar(ctx context.Context, planID, key string) (*CalendarDocument, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, ok, err := s.cache.GetExport(ctx, planID, key)
	if err != nil {
		s.logger.Warn("读取导出缓存失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var doc CalendarDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		s.logger.Warn("导出缓存内容损坏", zap.String("plan_id", planID), zap.Error(err))
		return nil, false
	}
	return &doc, true
}

func (s *exportService) storeCalendar(ctx context.Context, planID, key string, doc *CalendarDocument) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := s.cache.SetExport(ctx, planID, key, payload, s.cacheTTL); err != nil {
		s.logger.Warn("写入导出缓存失败", zap.String("plan_id", planID), zap.Error(err))
	}
}

// ═══════════════════════════════════════════════════════════
// ExportProgress：导出学习进度为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "统计"：标题行 + | 周期 | 键 | 学习时长(小时) |，末行合计与完成率
//   - Sheet "明细"：| 天 | 日期 | 任务 | 时长 | 状态 | 难度 | 满意度 | 备注 |
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportProgress(ctx context.Context, userID, planID, granularity string) (*bytes.Buffer, string, error) {
	if granularity == "" {
		granularity = string(GranularityWeekly)
	}
	g, err := ParseGranularity(granularity)
	if err != nil {
		return nil, "", err
	}

	plan, err := loadPlan(ctx, s.repo, s.validator, s.logger, userID, planID)
	if err != nil {
		return nil, "", err
	}
	records, err := s.repo.Progress.ListByPlan(ctx, planID)
	if err != nil {
		s.logger.Error("查询进度记录失败", zap.String("plan_id", planID), zap.Error(err))
		return nil, "", storageError(err)
	}
	summary, err := Summarize(ProgressPointsFromRecords(records), g)
	if err != nil {
		return nil, "", err
	}

	// 每天的首个任务名作为明细行的任务列
	taskByDay := make(map[int]string, plan.Duration)
	for _, e := range canonicalEntries(plan.Entries) {
		if _, ok := taskByDay[e.Day]; !ok {
			taskByDay[e.Day] = e.TaskName
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── Sheet 统计 ──
	summarySheet := "统计"
	idx, _ := f.NewSheet(summarySheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(summarySheet, "A", "A", 16)
	f.SetColWidth(summarySheet, "B", "B", 14)
	f.SetColWidth(summarySheet, "C", "C", 16)

	f.SetCellValue(summarySheet, "A1", fmt.Sprintf("%s 学习进度（%s）", plan.UserGoal, g))
	f.MergeCell(summarySheet, "A1", "C1")
	f.SetCellStyle(summarySheet, "A1", "A1", headerStyle)

	row := 2
	f.SetCellValue(summarySheet, cell("A", row), "周期")
	f.SetCellValue(summarySheet, cell("B", row), "键")
	f.SetCellValue(summarySheet, cell("C", row), "学习时长(小时)")
	row++
	for _, b := range summary.Buckets {
		f.SetCellValue(summarySheet, cell("A", row), b.Label)
		f.SetCellValue(summarySheet, cell("B", row), b.Key)
		f.SetCellValue(summarySheet, cell("C", row), b.TotalHours)
		row++
	}
	f.SetCellValue(summarySheet, cell("A", row), "合计")
	f.SetCellValue(summarySheet, cell("C", row), summary.TotalHours)
	row++
	f.SetCellValue(summarySheet, cell("A", row), "完成率")
	f.SetCellValue(summarySheet, cell("C", row), fmt.Sprintf("%.1f%%", summary.CompletionRate*100))

	// ── Sheet 明细 ──
	detailSheet := "明细"
	f.NewSheet(detailSheet)
	headers := []string{"天", "日期", "任务", "时长(小时)", "状态", "难度", "满意度", "备注"}
	for i, h := range headers {
		f.SetCellValue(detailSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(detailSheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)
	f.SetColWidth(detailSheet, "C", "C", 28)
	f.SetColWidth(detailSheet, "H", "H", 36)

	for i, r := range records {
		row := i + 2
		f.SetCellValue(detailSheet, cell("A", row), r.Day)
		f.SetCellValue(detailSheet, cell("B", row), r.Date.Format("2006-01-02"))
		f.SetCellValue(detailSheet, cell("C", row), taskByDay[r.Day])
		if r.HoursSpent != nil {
			f.SetCellValue(detailSheet, cell("D", row), *r.HoursSpent)
		}
		f.SetCellValue(detailSheet, cell("E", row), string(r.CompletionStatus))
		if r.DifficultyRating != nil {
			f.SetCellValue(detailSheet, cell("F", row), *r.DifficultyRating)
		}
		if r.SatisfactionRating != nil {
			f.SetCellValue(detailSheet, cell("G", row), *r.SatisfactionRating)
		}
		f.SetCellValue(detailSheet, cell("H", row), r.Notes)
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail.Wrap(err)
	}

	filename := fmt.Sprintf("学习进度_%s.xlsx", plan.CreatedAt.UTC().Format("20060102"))
	return buf, filename, nil
}

// IsExportError 是否为导出类错误（供 CLI 区分退出码）
func IsExportError(err error) bool {
	var appErr *pkgerrors.Error
	return errors.As(err, &appErr) && appErr.Kind == pkgerrors.KindExport
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
