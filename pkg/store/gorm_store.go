package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"reviewloop/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(
		&BusinessModel{},
		&CategoryModel{},
		&TemplateModel{},
		&ProviderConfigModel{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetBusiness(ctx context.Context, id string) (domain.Business, bool, error) {
	var m BusinessModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Business{}, false, nil
	}
	if err != nil {
		return domain.Business{}, false, err
	}
	return businessFromModel(m), true, nil
}

func (s *GormStore) GetCategory(ctx context.Context, id string) (domain.Category, bool, error) {
	var m CategoryModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Category{}, false, nil
	}
	if err != nil {
		return domain.Category{}, false, err
	}
	return categoryFromModel(m), true, nil
}

func (s *GormStore) GetActiveProviderConfig(ctx context.Context, businessID string) (domain.ProviderConfig, bool, error) {
	var m ProviderConfigModel
	err := s.db.WithContext(ctx).
		Where("business_id = ? AND is_active = ?", businessID, true).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ProviderConfig{}, false, nil
	}
	if err != nil {
		return domain.ProviderConfig{}, false, err
	}
	return providerConfigFromModel(m), true, nil
}

func (s *GormStore) InsertTemplate(ctx context.Context, tpl domain.Template) error {
	m, err := templateToModel(tpl)
	if err != nil {
		return err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		// Inserting into a category deleted mid-flight trips the FK.
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return fmt.Errorf("%w: category %s", ErrNotFound, tpl.CategoryID)
		}
		return err
	}
	return nil
}

func (s *GormStore) DeleteTemplate(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&TemplateModel{}, "id = ?", id).Error
}

func (s *GormStore) GetTemplateWithCategory(ctx context.Context, id string) (domain.Template, domain.Category, bool, error) {
	var tm TemplateModel
	err := s.db.WithContext(ctx).First(&tm, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Template{}, domain.Category{}, false, nil
	}
	if err != nil {
		return domain.Template{}, domain.Category{}, false, err
	}
	var cm CategoryModel
	err = s.db.WithContext(ctx).First(&cm, "id = ?", tm.CategoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Template{}, domain.Category{}, false, nil
	}
	if err != nil {
		return domain.Template{}, domain.Category{}, false, err
	}
	tpl, err := templateFromModel(tm)
	if err != nil {
		return domain.Template{}, domain.Category{}, false, err
	}
	return tpl, categoryFromModel(cm), true, nil
}

func (s *GormStore) CountActiveTemplates(ctx context.Context, categoryID string) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&TemplateModel{}).
		Where("category_id = ? AND status = ?", categoryID, string(domain.StatusActive)).
		Count(&count).Error
	return int(count), err
}

func (s *GormStore) ListActiveTemplates(ctx context.Context, businessID string) ([]domain.Template, error) {
	var models []TemplateModel
	err := s.db.WithContext(ctx).
		Where("business_id = ? AND status = ?", businessID, string(domain.StatusActive)).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	templates := make([]domain.Template, 0, len(models))
	for _, m := range models {
		tpl, err := templateFromModel(m)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

func (s *GormStore) GetRandomActiveTemplate(ctx context.Context, businessID string) (domain.Template, bool, error) {
	var m TemplateModel
	err := s.db.WithContext(ctx).
		Where("business_id = ? AND status = ?", businessID, string(domain.StatusActive)).
		Order("RANDOM()").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Template{}, false, nil
	}
	if err != nil {
		return domain.Template{}, false, err
	}
	tpl, err := templateFromModel(m)
	if err != nil {
		return domain.Template{}, false, err
	}
	return tpl, true, nil
}

func (s *GormStore) IncrementTemplateShown(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&TemplateModel{}).
		Where("id = ?", id).
		UpdateColumn("times_shown", gorm.Expr("times_shown + 1")).Error
}

func (s *GormStore) IncrementTemplateCopied(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&TemplateModel{}).
		Where("id = ?", id).
		UpdateColumn("times_copied", gorm.Expr("times_copied + 1")).Error
}

// model conversions

func businessFromModel(m BusinessModel) domain.Business {
	return domain.Business{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}

func categoryFromModel(m CategoryModel) domain.Category {
	return domain.Category{
		ID:             m.ID,
		BusinessID:     m.BusinessID,
		Name:           m.Name,
		Description:    m.Description,
		TargetPoolSize: m.TargetPoolSize,
		CreatedAt:      m.CreatedAt,
	}
}

func providerConfigFromModel(m ProviderConfigModel) domain.ProviderConfig {
	return domain.ProviderConfig{
		ID:         m.ID,
		BusinessID: m.BusinessID,
		Provider:   domain.Provider(m.Provider),
		APIKey:     m.APIKey,
		Model:      m.Model,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func templateToModel(tpl domain.Template) (TemplateModel, error) {
	keywords, err := json.Marshal(tpl.SEOKeywords)
	if err != nil {
		return TemplateModel{}, err
	}
	return TemplateModel{
		ID:              tpl.ID,
		BusinessID:      tpl.BusinessID,
		CategoryID:      tpl.CategoryID,
		Content:         tpl.Content,
		SEOKeywords:     keywords,
		SEOScore:        tpl.SEOScore,
		WordCountTarget: tpl.WordCountTarget,
		IsManual:        tpl.IsManual,
		Status:          string(tpl.Status),
		TimesShown:      tpl.TimesShown,
		TimesCopied:     tpl.TimesCopied,
		CreatedAt:       tpl.CreatedAt,
		UpdatedAt:       tpl.UpdatedAt,
	}, nil
}

func templateFromModel(m TemplateModel) (domain.Template, error) {
	var keywords []string
	if len(m.SEOKeywords) > 0 {
		if err := json.Unmarshal(m.SEOKeywords, &keywords); err != nil {
			return domain.Template{}, fmt.Errorf("decode template %s keywords: %w", m.ID, err)
		}
	}
	return domain.Template{
		ID:              m.ID,
		BusinessID:      m.BusinessID,
		CategoryID:      m.CategoryID,
		Content:         m.Content,
		SEOKeywords:     keywords,
		SEOScore:        m.SEOScore,
		WordCountTarget: m.WordCountTarget,
		IsManual:        m.IsManual,
		Status:          domain.TemplateStatus(m.Status),
		TimesShown:      m.TimesShown,
		TimesCopied:     m.TimesCopied,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}, nil
}
