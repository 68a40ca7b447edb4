package scenario

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/mixedtraffic-sim/types"
)

// Statistics 模板统计
type Statistics struct {
	TotalTemplates     int            `json:"total_templates"`
	ValidatedTemplates int            `json:"validated_templates"`
	InvalidTemplates   int            `json:"invalid_templates"`
	Categories         int            `json:"categories"`
	CategoryCounts     map[string]int `json:"category_counts"`
	Store              string         `json:"templates_directory"`
}

// Manager 场景模板管理器
// 功能：创建、加载、保存、检索、克隆与删除场景模板，内存中缓存已加载的模板
// 说明：store为空时只在内存中管理模板；每次创建、加载、保存、克隆都会重新校验并记录结果
type Manager struct {
	store     Store
	validator *Validator
	templates map[string]*Template
	now       func() time.Time
}

// NewManager 创建模板管理器
// 参数：store-持久化后端（可为空）
func NewManager(store Store) *Manager {
	return &Manager{
		store:     store,
		validator: NewValidator(),
		templates: make(map[string]*Template),
		now:       time.Now,
	}
}

func (m *Manager) validate(t *Template) {
	t.ValidationErrors = m.validator.Validate(t)
	t.IsValidated = len(t.ValidationErrors) == 0
}

// withDefaults 补齐模板缺省字段
func (m *Manager) withDefaults(t *Template) {
	if t.Version == "" {
		t.Version = "1.0"
	}
	if t.CreatedDate == "" {
		t.CreatedDate = m.now().Format(time.RFC3339)
	}
	if t.SimulationDuration == 0 {
		t.SimulationDuration = 3600
	}
	if t.WeatherType == 0 {
		t.WeatherType = types.Clear
	}
	t.TrafficConfig.FillDefaults()
}

// CreateTemplate 创建新模板（仅内存）
// 参数：t-模板内容，零值字段使用缺省值（版本1.0、时长3600秒、晴天、默认交通参数）
// 返回：校验后的模板；ID已存在时返回ErrExists
func (m *Manager) CreateTemplate(t Template) (*Template, error) {
	if t.ID == "" {
		return nil, fmt.Errorf("create template: empty template_id")
	}
	if _, ok := m.templates[t.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, t.ID)
	}
	tp := &t
	m.withDefaults(tp)
	m.validate(tp)
	m.templates[tp.ID] = tp
	return tp, nil
}

// LoadTemplate 按ID获取模板，内存中没有时从存储加载
func (m *Manager) LoadTemplate(ctx context.Context, id string) (*Template, error) {
	if t, ok := m.templates[id]; ok {
		return t, nil
	}
	if m.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	t, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.validate(t)
	m.templates[id] = t
	log.Debugf("template %s loaded from %s", id, m.store)
	return t, nil
}

// SaveTemplate 重新校验后写入存储并更新内存缓存
func (m *Manager) SaveTemplate(ctx context.Context, t *Template, overwrite bool) error {
	m.validate(t)
	if m.store != nil {
		if err := m.store.Save(ctx, t, overwrite); err != nil {
			return fmt.Errorf("save template %s: %w", t.ID, err)
		}
	}
	m.templates[t.ID] = t
	return nil
}

// LoadAllTemplates 加载存储中的全部模板
// 返回：成功加载的数量；单个模板解析失败时记录警告并跳过
func (m *Manager) LoadAllTemplates(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}
	ids, err := m.store.IDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list templates: %w", err)
	}
	n := 0
	for _, id := range ids {
		if _, err := m.LoadTemplate(ctx, id); err != nil {
			log.Warnf("skip template %s: %v", id, err)
			continue
		}
		n++
	}
	log.Infof("%d templates loaded from %s", n, m.store)
	return n, nil
}

// ListTemplates 模板ID列表（升序），category非空时只列出该分类
func (m *Manager) ListTemplates(category string) []string {
	ids := lo.FilterMap(lo.Values(m.templates), func(t *Template, _ int) (string, bool) {
		return t.ID, category == "" || t.Category == category
	})
	slices.Sort(ids)
	return ids
}

// Categories 全部分类（升序）
func (m *Manager) Categories() []string {
	cats := lo.Uniq(lo.Map(lo.Values(m.templates), func(t *Template, _ int) string { return t.Category }))
	slices.Sort(cats)
	return cats
}

// DeleteTemplate 从内存中删除模板，deleteStored为真时同时从存储删除
// 返回：模板存在于内存或存储中时为true
func (m *Manager) DeleteTemplate(ctx context.Context, id string, deleteStored bool) (bool, error) {
	_, found := m.templates[id]
	delete(m.templates, id)
	if deleteStored && m.store != nil {
		err := m.store.Delete(ctx, id)
		switch {
		case err == nil:
			found = true
		case !errors.Is(err, ErrNotFound):
			return found, fmt.Errorf("delete template %s: %w", id, err)
		}
	}
	return found, nil
}

// ValidateTemplate 校验模板但不修改其校验记录
func (m *Manager) ValidateTemplate(t *Template) []string {
	return m.validator.Validate(t)
}

// TemplateSummary 模板摘要，模板不存在时返回false
func (m *Manager) TemplateSummary(ctx context.Context, id string) (Summary, bool) {
	t, err := m.LoadTemplate(ctx, id)
	if err != nil {
		return Summary{}, false
	}
	return t.Summary(), true
}

// SearchTemplates 按关键字（不区分大小写）检索已加载的模板
// 参数：query-关键字，fields-检索字段（name/description/category/template_id），缺省为前三者
// 返回：命中的模板ID（升序）
func (m *Manager) SearchTemplates(query string, fields ...string) []string {
	if len(fields) == 0 {
		fields = []string{"name", "description", "category"}
	}
	q := strings.ToLower(query)
	var ids []string
	for _, id := range m.ListTemplates("") {
		t := m.templates[id]
		if lo.SomeBy(fields, func(f string) bool {
			return strings.Contains(strings.ToLower(searchField(t, f)), q)
		}) {
			ids = append(ids, id)
		}
	}
	return ids
}

func searchField(t *Template, field string) string {
	switch field {
	case "name":
		return t.Name
	case "description":
		return t.Description
	case "category":
		return t.Category
	case "template_id":
		return t.ID
	}
	return ""
}

// CloneTemplate 以新ID复制模板（仅内存）
// 参数：newName为空时使用"Copy of <原名称>"
// 返回：新模板；源模板不存在时返回ErrNotFound，新ID已存在时返回ErrExists
func (m *Manager) CloneTemplate(ctx context.Context, srcID, newID, newName string) (*Template, error) {
	src, err := m.LoadTemplate(ctx, srcID)
	if err != nil {
		return nil, err
	}
	if _, ok := m.templates[newID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, newID)
	}
	t, err := src.Clone()
	if err != nil {
		return nil, err
	}
	t.ID = newID
	t.CreatedDate = m.now().Format(time.RFC3339)
	t.Name = lo.Ternary(newName != "", newName, "Copy of "+src.Name)
	m.validate(t)
	m.templates[newID] = t
	return t, nil
}

// Statistics 模板统计
func (m *Manager) Statistics() Statistics {
	validated := lo.CountBy(lo.Values(m.templates), func(t *Template) bool { return t.IsValidated })
	counts := lo.CountValuesBy(lo.Values(m.templates), func(t *Template) string { return t.Category })
	store := ""
	if m.store != nil {
		store = m.store.String()
	}
	return Statistics{
		TotalTemplates:     len(m.templates),
		ValidatedTemplates: validated,
		InvalidTemplates:   len(m.templates) - validated,
		Categories:         len(counts),
		CategoryCounts:     counts,
		Store:              store,
	}
}

// InitializeDefaultTemplates 将内置模板写入存储（覆盖同名模板）
// 返回：成功写入的数量
func (m *Manager) InitializeDefaultTemplates(ctx context.Context) int {
	n := 0
	for _, t := range DefaultTemplates() {
		m.withDefaults(t)
		if err := m.SaveTemplate(ctx, t, true); err != nil {
			log.Errorf("save default template %s: %v", t.ID, err)
			continue
		}
		n++
	}
	return n
}
