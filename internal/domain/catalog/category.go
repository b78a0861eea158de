package catalog

import (
	"strings"
	"time"

	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// Category groups goods in a tree shared by every site
type Category struct {
	shared.BaseEntity
	ParentID    *uuid.UUID
	Name        string
	Slug        string
	Description string
	SortOrder   int
	Active      bool
}

// NewCategory creates an active category. An empty slug is derived from the name.
func NewCategory(name, slug string, parentID *uuid.UUID) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot exceed 100 characters")
	}
	if slug == "" {
		slug = Slugify(name)
	} else {
		slug = Slugify(slug)
	}
	if slug == "" {
		return nil, shared.NewDomainError("INVALID_CATEGORY_SLUG", "Category slug cannot be empty")
	}

	return &Category{
		BaseEntity: shared.NewBaseEntity(),
		ParentID:   parentID,
		Name:       name,
		Slug:       slug,
		Active:     true,
	}, nil
}

// Update replaces descriptive fields
func (c *Category) Update(name, description string, sortOrder int, active bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_CATEGORY_NAME", "Category name cannot be empty")
	}
	c.Name = name
	c.Description = description
	c.SortOrder = sortOrder
	c.Active = active
	c.UpdatedAt = time.Now()
	return nil
}

// MoveTo re-parents the category; a category cannot be its own parent
func (c *Category) MoveTo(parentID *uuid.UUID) error {
	if parentID != nil && *parentID == c.ID {
		return shared.NewDomainError("INVALID_CATEGORY_PARENT", "Category cannot be its own parent")
	}
	c.ParentID = parentID
	c.UpdatedAt = time.Now()
	return nil
}
