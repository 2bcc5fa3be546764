package store

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"reviewloop/internal/util"
	"reviewloop/pkg/domain"
)

// MemoryStore keeps everything in-process; used by tests and local runs
// without Postgres.
type MemoryStore struct {
	mu         sync.RWMutex
	businesses map[string]domain.Business
	categories map[string]domain.Category
	templates  map[string]domain.Template
	configs    map[string]domain.ProviderConfig // key: config ID
	order      []string                         // template insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		businesses: make(map[string]domain.Business),
		categories: make(map[string]domain.Category),
		templates:  make(map[string]domain.Template),
		configs:    make(map[string]domain.ProviderConfig),
	}
}

// SaveBusiness stores or replaces a business record.
func (m *MemoryStore) SaveBusiness(b domain.Business) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.businesses[b.ID] = b
}

// SaveCategory stores or replaces a category record.
func (m *MemoryStore) SaveCategory(c domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[c.ID] = c
}

// SaveProviderConfig stores or replaces a provider config record.
func (m *MemoryStore) SaveProviderConfig(c domain.ProviderConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = util.NewID()
	}
	m.configs[c.ID] = c
}

func (m *MemoryStore) GetBusiness(_ context.Context, id string) (domain.Business, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.businesses[id]
	return b, ok, nil
}

func (m *MemoryStore) GetCategory(_ context.Context, id string) (domain.Category, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	return c, ok, nil
}

func (m *MemoryStore) GetActiveProviderConfig(_ context.Context, businessID string) (domain.ProviderConfig, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.configs {
		if c.BusinessID == businessID && c.IsActive {
			return c, true, nil
		}
	}
	return domain.ProviderConfig{}, false, nil
}

func (m *MemoryStore) InsertTemplate(_ context.Context, tpl domain.Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[tpl.CategoryID]; !ok {
		return fmt.Errorf("%w: category %s", ErrNotFound, tpl.CategoryID)
	}
	if tpl.ID == "" {
		tpl.ID = util.NewID()
	}
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = time.Now().UTC()
	}
	if _, exists := m.templates[tpl.ID]; !exists {
		m.order = append(m.order, tpl.ID)
	}
	m.templates[tpl.ID] = tpl
	return nil
}

func (m *MemoryStore) DeleteTemplate(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.templates, id)
	return nil
}

func (m *MemoryStore) GetTemplateWithCategory(_ context.Context, id string) (domain.Template, domain.Category, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tpl, ok := m.templates[id]
	if !ok {
		return domain.Template{}, domain.Category{}, false, nil
	}
	cat, ok := m.categories[tpl.CategoryID]
	if !ok {
		return domain.Template{}, domain.Category{}, false, nil
	}
	return tpl, cat, true, nil
}

func (m *MemoryStore) CountActiveTemplates(_ context.Context, categoryID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, tpl := range m.templates {
		if tpl.CategoryID == categoryID && tpl.Status == domain.StatusActive {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) ListActiveTemplates(_ context.Context, businessID string) ([]domain.Template, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Template, 0, len(m.order))
	for _, id := range m.order {
		if tpl, ok := m.templates[id]; ok && tpl.BusinessID == businessID && tpl.Status == domain.StatusActive {
			res = append(res, tpl)
		}
	}
	return res, nil
}

func (m *MemoryStore) GetRandomActiveTemplate(ctx context.Context, businessID string) (domain.Template, bool, error) {
	active, err := m.ListActiveTemplates(ctx, businessID)
	if err != nil || len(active) == 0 {
		return domain.Template{}, false, err
	}
	return active[rand.Intn(len(active))], true, nil
}

func (m *MemoryStore) IncrementTemplateShown(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tpl, ok := m.templates[id]; ok {
		tpl.TimesShown++
		m.templates[id] = tpl
	}
	return nil
}

func (m *MemoryStore) IncrementTemplateCopied(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tpl, ok := m.templates[id]; ok {
		tpl.TimesCopied++
		m.templates[id] = tpl
	}
	return nil
}
