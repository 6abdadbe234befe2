package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"learnplan/backend/internal/model"
	"learnplan/backend/internal/repository"
	pkgerrors "learnplan/backend/pkg/errors"
)

// ── Mock PlanRepository ──

type mockPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*model.Plan
	seq   int
	err   error // 非 nil 时所有调用返回该错误，模拟存储故障
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[string]*model.Plan)}
}

func (m *mockPlanRepo) Create(_ context.Context, plan *model.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if plan.PlanID == "" {
		m.seq++
		plan.PlanID = fmt.Sprintf("plan-%03d", m.seq)
	}
	cp := *plan
	m.plans[plan.PlanID] = &cp
	return nil
}

func (m *mockPlanRepo) GetByID(_ context.Context, userID, planID string) (*model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if p, ok := m.plans[planID]; ok && p.UserID == userID {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.Plan
	for _, p := range m.plans {
		if p.UserID == userID {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].PlanID > result[j].PlanID
	})
	if offset >= len(result) {
		return []model.Plan{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (m *mockPlanRepo) UpdateStatus(_ context.Context, userID, planID string, to model.PlanStatus, expected *model.PlanStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	p, ok := m.plans[planID]
	if !ok || p.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	if expected != nil && p.Status != *expected {
		return pkgerrors.ErrStatusConflict
	}
	p.Status = to
	return nil
}

func (m *mockPlanRepo) Delete(_ context.Context, userID, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	p, ok := m.plans[planID]
	if !ok || p.UserID != userID {
		return gorm.ErrRecordNotFound
	}
	delete(m.plans, planID)
	return nil
}

// ── Mock ProgressRepository ──

type mockProgressRepo struct {
	mu      sync.Mutex
	records map[string]*model.ProgressRecord // key: planID:day
	err     error
}

func newMockProgressRepo() *mockProgressRepo {
	return &mockProgressRepo{records: make(map[string]*model.ProgressRecord)}
}

func progressKey(planID string, day int) string {
	return fmt.Sprintf("%s:%d", planID, day)
}

func (m *mockProgressRepo) Upsert(_ context.Context, record *model.ProgressRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	key := progressKey(record.PlanID, record.Day)
	if existing, ok := m.records[key]; ok {
		record.RecordID = existing.RecordID
	} else if record.RecordID == "" {
		record.RecordID = "rec-" + key
	}
	cp := *record
	m.records[key] = &cp
	return nil
}

func (m *mockProgressRepo) GetByPlanDay(_ context.Context, planID string, day int) (*model.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.records[progressKey(planID, day)]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgressRepo) ListByPlan(_ context.Context, planID string) ([]model.ProgressRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var result []model.ProgressRecord
	for _, r := range m.records {
		if r.PlanID == planID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Day < result[j].Day
	})
	return result, nil
}

// ── Mock ExportCache ──

type mockExportCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	gets        int
	invalidated []string
}

func newMockExportCache() *mockExportCache {
	return &mockExportCache{entries: make(map[string][]byte)}
}

func (m *mockExportCache) GetExport(_ context.Context, planID, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.entries[planID+"|"+key]
	return v, ok, nil
}

func (m *mockExportCache) SetExport(_ context.Context, planID, key string, payload []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[planID+"|"+key] = payload
	return nil
}

func (m *mockExportCache) InvalidatePlan(_ context.Context, planID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, planID)
	for k := range m.entries {
		if len(k) > len(planID) && k[:len(planID)+1] == planID+"|" {
			delete(m.entries, k)
		}
	}
	return nil
}

// ── 测试辅助 ──

func newMockRepository() (*repository.Repository, *mockPlanRepo, *mockProgressRepo) {
	planRepo := newMockPlanRepo()
	progressRepo := newMockProgressRepo()
	return &repository.Repository{Plan: planRepo, Progress: progressRepo}, planRepo, progressRepo
}
