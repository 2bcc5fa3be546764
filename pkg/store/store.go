// Package store persists businesses, categories, review templates, and
// provider configs. The engine treats it as an injected collaborator;
// every error it returns is considered non-retryable for that call.
package store

import (
	"context"
	"errors"

	"reviewloop/pkg/domain"
)

// ErrNotFound is returned by mutating calls whose target row is gone,
// e.g. inserting a template for a category deleted mid-flight.
var ErrNotFound = errors.New("record not found")

// Store defines persistence operations the template engine depends on.
type Store interface {
	// businesses
	GetBusiness(ctx context.Context, id string) (domain.Business, bool, error)

	// categories
	GetCategory(ctx context.Context, id string) (domain.Category, bool, error)

	// provider configs
	GetActiveProviderConfig(ctx context.Context, businessID string) (domain.ProviderConfig, bool, error)

	// templates
	InsertTemplate(ctx context.Context, tpl domain.Template) error
	DeleteTemplate(ctx context.Context, id string) error
	GetTemplateWithCategory(ctx context.Context, id string) (domain.Template, domain.Category, bool, error)
	CountActiveTemplates(ctx context.Context, categoryID string) (int, error)
	ListActiveTemplates(ctx context.Context, businessID string) ([]domain.Template, error)
	GetRandomActiveTemplate(ctx context.Context, businessID string) (domain.Template, bool, error)
	IncrementTemplateShown(ctx context.Context, id string) error
	IncrementTemplateCopied(ctx context.Context, id string) error
}
