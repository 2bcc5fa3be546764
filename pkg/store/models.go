package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.

type BusinessModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
}

func (BusinessModel) TableName() string { return "businesses" }

type CategoryModel struct {
	ID             string `gorm:"primaryKey"`
	BusinessID     string `gorm:"not null;index"`
	Name           string `gorm:"not null"`
	Description    string
	TargetPoolSize int       `gorm:"not null;default:10"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time

	// Deleting a category cascades to its templates.
	Templates []TemplateModel `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
}

func (CategoryModel) TableName() string { return "review_categories" }

type TemplateModel struct {
	ID              string         `gorm:"primaryKey"`
	BusinessID      string         `gorm:"not null;index"`
	CategoryID      string         `gorm:"not null;index"`
	Content         string         `gorm:"type:text;not null"`
	SEOKeywords     datatypes.JSON `gorm:"type:jsonb"`
	SEOScore        int            `gorm:"not null;default:0"`
	WordCountTarget int            `gorm:"not null;default:0"`
	IsManual        bool           `gorm:"not null;default:false"`
	Status          string         `gorm:"not null;index"`
	TimesShown      int            `gorm:"not null;default:0"`
	TimesCopied     int            `gorm:"not null;default:0"`
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time
}

func (TemplateModel) TableName() string { return "review_templates" }

type ProviderConfigModel struct {
	ID         string `gorm:"primaryKey"`
	BusinessID string `gorm:"not null;index:idx_provider_cfg,unique"`
	Provider   string `gorm:"not null;index:idx_provider_cfg,unique"`
	Model      string `gorm:"not null;index:idx_provider_cfg,unique"`
	APIKey     string `gorm:"not null"`
	IsActive   bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time
}

func (ProviderConfigModel) TableName() string { return "ai_model_configs" }
