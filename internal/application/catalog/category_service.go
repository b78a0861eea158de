package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/Marusmurong/mall-sub000/internal/domain/catalog"
	"github.com/Marusmurong/mall-sub000/internal/domain/shared"
	"github.com/google/uuid"
)

// CategoryService handles category-related business operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo catalog.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// Create creates a category, optionally below a parent
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	if req.ParentID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PARENT", "Parent category not found")
			}
			return nil, err
		}
	}

	category, err := catalog.NewCategory(req.Name, req.Slug, req.ParentID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, category); err != nil {
		return nil, err
	}
	if req.Description != "" || req.SortOrder != 0 {
		if err := category.Update(req.Name, req.Description, req.SortOrder, true); err != nil {
			return nil, err
		}
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	return ToCategoryResponse(category), nil
}

// GetByID retrieves a category by ID
func (s *CategoryService) GetByID(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCategoryResponse(category), nil
}

// Tree returns categories as a forest ordered by sort order then name.
// Children of an inactive parent are dropped when activeOnly is set.
func (s *CategoryService) Tree(ctx context.Context, activeOnly bool) ([]*CategoryResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	nodes := make(map[uuid.UUID]*CategoryResponse, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = ToCategoryResponse(&categories[i])
	}

	roots := make([]*CategoryResponse, 0)
	for i := range categories {
		node := nodes[categories[i].ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*node.ParentID]; ok {
			parent.Children = append(parent.Children, node)
		} else if !activeOnly {
			// parent row missing, surface it at the top level
			roots = append(roots, node)
		}
	}
	sortCategories(roots)
	return roots, nil
}

func sortCategories(nodes []*CategoryResponse) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return nodes[i].Name < nodes[j].Name
	})
	for _, n := range nodes {
		sortCategories(n.Children)
	}
}

// Update updates a category and re-parents it when ParentID changes
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	active := category.Active
	if req.Active != nil {
		active = *req.Active
	}
	if err := category.Update(req.Name, req.Description, req.SortOrder, active); err != nil {
		return nil, err
	}

	if !sameParent(category.ParentID, req.ParentID) {
		if err := s.checkNoCycle(ctx, category.ID, req.ParentID); err != nil {
			return nil, err
		}
		if err := category.MoveTo(req.ParentID); err != nil {
			return nil, err
		}
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	return ToCategoryResponse(category), nil
}

// Delete removes a category that has neither children nor goods
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		return err
	}
	hasChildren, err := s.categoryRepo.HasChildren(ctx, id)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.NewDomainError("HAS_CHILDREN", "Cannot delete category with child categories")
	}
	goodsCount, err := s.categoryRepo.CountGoods(ctx, id)
	if err != nil {
		return err
	}
	if goodsCount > 0 {
		return shared.NewDomainError("HAS_GOODS", "Cannot delete category that still has goods")
	}
	return s.categoryRepo.Delete(ctx, id)
}

// checkNoCycle walks up from the new parent and fails if it meets id
func (s *CategoryService) checkNoCycle(ctx context.Context, id uuid.UUID, parentID *uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	for cur := parentID; cur != nil; {
		if *cur == id {
			return shared.NewDomainError("INVALID_CATEGORY_PARENT", "Category cannot be moved below itself")
		}
		if seen[*cur] {
			break
		}
		seen[*cur] = true
		parent, err := s.categoryRepo.FindByID(ctx, *cur)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("INVALID_PARENT", "Parent category not found")
			}
			return err
		}
		cur = parent.ParentID
	}
	return nil
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, c *catalog.Category) error {
	existing, err := s.categoryRepo.FindBySlug(ctx, c.Slug)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != c.ID {
		return shared.ErrAlreadyExists.WithMessage("Category with this slug already exists")
	}
	return nil
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
