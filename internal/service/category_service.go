package service

import (
	"context"
	"errors"
	"fmt"

	"boutique-backend/internal/model"
	"boutique-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CategoryService interface {
	CreateCategory(ctx context.Context, actorID string, req CategoryRequest) (*model.Category, error)
	UpdateCategory(ctx context.Context, actorID, categoryID string, req CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, actorID, categoryID string) error
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) CreateCategory(ctx context.Context, actorID string, req CategoryRequest) (*model.Category, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        req.Name,
		Description: req.Description,
	}
	category.StampCreate(actor)

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, actorID, categoryID string, req CategoryRequest) (*model.Category, error) {
	actor, err := resolveActor(actorID)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(categoryID)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", categoryID, ErrUnknownEntity)
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category %s: %w", categoryID, ErrUnknownEntity)
		}
		return nil, err
	}

	category.Name = req.Name
	category.Description = req.Description
	category.StampUpdate(actor)

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, actorID, categoryID string) error {
	actor, err := resolveActor(actorID)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(categoryID)
	if err != nil {
		return fmt.Errorf("category %s: %w", categoryID, ErrUnknownEntity)
	}

	category, err := s.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("category %s: %w", categoryID, ErrUnknownEntity)
		}
		return err
	}

	category.MarkDeleted(actor)
	category.StampUpdate(actor)
	return s.categoryRepo.Save(ctx, category)
}

func (s *categoryService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.List(ctx)
}
