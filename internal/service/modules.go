package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/handmind/internal/models"
	"go.uber.org/zap"
)

// ModuleStore defines the persistence operations required by ModuleService.
// Lookups and mutations of a missing id return models.ErrNotFound.
type ModuleStore interface {
	List(ctx context.Context, search string) ([]models.Module, error)
	GetByID(ctx context.Context, id int64) (models.Module, error)
	Create(ctx context.Context, m models.Module) (models.Module, error)
	Update(ctx context.Context, id int64, patch models.ModulePatch) (models.Module, error)
	Delete(ctx context.Context, id int64) error
}

// CreateModuleInput is the body of a module creation request.
type CreateModuleInput struct {
	Title       string `json:"title" validate:"required,min=3"`
	Description string `json:"description" validate:"required,min=10"`
	Level       int    `json:"level" validate:"required,gt=0,lte=2147483647"`
	ImageURL    string `json:"imageUrl" validate:"required"`
	// IsLocked defaults to true when omitted.
	IsLocked *bool `json:"isLocked"`
}

// UpdateModuleInput is the body of a partial module update. Absent fields are kept.
type UpdateModuleInput struct {
	Title       *string `json:"title" validate:"omitnil,min=3"`
	Description *string `json:"description" validate:"omitnil,min=10"`
	Level       *int    `json:"level" validate:"omitnil,gt=0,lte=2147483647"`
	ImageURL    *string `json:"imageUrl" validate:"omitnil,min=1"`
	IsLocked    *bool   `json:"isLocked"`
}

// ModuleService implements the module catalogue.
type ModuleService struct {
	store  ModuleStore
	logger *zap.Logger
}

// NewModuleService constructs a ModuleService.
func NewModuleService(store ModuleStore, logger *zap.Logger) *ModuleService {
	return &ModuleService{store: store, logger: logger}
}

// List returns all modules ordered by level, optionally filtered by search.
func (s *ModuleService) List(ctx context.Context, search string) ([]models.Module, error) {
	modules, err := s.store.List(ctx, search)
	if err != nil {
		return nil, err
	}
	return modules, nil
}

// Get returns one module.
func (s *ModuleService) Get(ctx context.Context, id int64) (models.Module, error) {
	m, err := s.store.GetByID(ctx, id)
	return m, mapNotFound(err)
}

// Create validates in and stores a new module.
func (s *ModuleService) Create(ctx context.Context, in CreateModuleInput) (models.Module, error) {
	if err := validateStruct(in); err != nil {
		return models.Module{}, err
	}

	m := models.Module{
		Title:       in.Title,
		Description: in.Description,
		Level:       in.Level,
		ImageURL:    in.ImageURL,
		IsLocked:    true,
	}
	if in.IsLocked != nil {
		m.IsLocked = *in.IsLocked
	}

	created, err := s.store.Create(ctx, m)
	if err != nil {
		return models.Module{}, err
	}
	s.logger.Info("module created", zap.Int64("module_id", created.ID))
	return created, nil
}

// Update applies the fields present in in to module id.
func (s *ModuleService) Update(ctx context.Context, id int64, in UpdateModuleInput) (models.Module, error) {
	if err := validateStruct(in); err != nil {
		return models.Module{}, err
	}

	patch := models.ModulePatch{
		Title:       in.Title,
		Description: in.Description,
		Level:       in.Level,
		ImageURL:    in.ImageURL,
		IsLocked:    in.IsLocked,
	}
	if patch.Empty() {
		return s.Get(ctx, id)
	}

	updated, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return models.Module{}, mapNotFound(err)
	}
	s.logger.Info("module updated", zap.Int64("module_id", id))
	return updated, nil
}

// Delete removes module id.
func (s *ModuleService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	s.logger.Info("module deleted", zap.Int64("module_id", id))
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
