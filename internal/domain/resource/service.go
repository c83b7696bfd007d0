package resource

import (
	"context"
	"fmt"
	"log"
	"strings"

	"reservecore/internal/domain"
	"reservecore/internal/pkg/clock"
	"reservecore/internal/pkg/validator"
)

type Service struct {
	repo   *Repository
	clock  clock.Clock
	logger *log.Logger
}

func NewService(repo *Repository, clk clock.Clock, logger *log.Logger) *Service {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, clock: clk, logger: logger}
}

func (s *Service) Create(ctx context.Context, req CreateResourceRequest) (*Resource, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	t, err := parseType(req.Type)
	if err != nil {
		return nil, err
	}

	res := &Resource{
		Type:        t,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Metadata:    req.Metadata,
		IsActive:    true,
	}
	if req.IsActive != nil {
		res.IsActive = *req.IsActive
	}
	if res.Name == "" {
		return nil, domain.ValidationError{Field: "name", Msg: "name is required"}
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	s.logger.Printf("resource_created id=%s type=%s", res.ID, res.Type)
	return res, nil
}

func (s *Service) Update(ctx context.Context, id string, req UpdateResourceRequest) (*Resource, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	res, err := s.GetOrFail(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Type != nil {
		t, err := parseType(*req.Type)
		if err != nil {
			return nil, err
		}
		res.Type = t
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ValidationError{Field: "name", Msg: "name must not be empty"}
		}
		res.Name = name
	}
	if req.Description != nil {
		res.Description = *req.Description
	}
	if req.Metadata != nil {
		res.Metadata = req.Metadata
	}
	if req.IsActive != nil {
		res.IsActive = *req.IsActive
	}

	if err := s.repo.Save(ctx, res); err != nil {
		return nil, fmt.Errorf("update resource %s: %w", id, err)
	}
	return res, nil
}

// SoftDelete marks the resource deleted and inactive. Deleting twice is a no-op.
func (s *Service) SoftDelete(ctx context.Context, id string) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.IsDeleted() {
		return res, nil
	}

	now := s.clock.Now()
	res.DeletedAt = &now
	res.IsActive = false
	if err := s.repo.Save(ctx, res); err != nil {
		return nil, fmt.Errorf("delete resource %s: %w", id, err)
	}
	s.logger.Printf("resource_deleted id=%s", id)
	return res, nil
}

func (s *Service) Restore(ctx context.Context, id string) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.IsDeleted() && res.IsActive {
		return res, nil
	}

	res.DeletedAt = nil
	res.IsActive = true
	if err := s.repo.Save(ctx, res); err != nil {
		return nil, fmt.Errorf("restore resource %s: %w", id, err)
	}
	s.logger.Printf("resource_restored id=%s", id)
	return res, nil
}

// GetOrFail returns ErrResourceNotFound for unknown ids and ErrResourceDeleted
// for soft-deleted ones. Callers must branch on the difference.
func (s *Service) GetOrFail(ctx context.Context, id string) (*Resource, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ValidationError{Field: "resource_id", Msg: "resource_id is required"}
	}
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.IsDeleted() {
		return nil, ErrResourceDeleted
	}
	return res, nil
}

func (s *Service) List(ctx context.Context, f ResourceFilter) ([]Resource, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, invalidType(string(f.Type))
	}
	return s.repo.List(ctx, f)
}

// GetActive lists active, non-deleted resources, optionally of one type.
func (s *Service) GetActive(ctx context.Context, t Type) ([]Resource, error) {
	active := true
	return s.List(ctx, ResourceFilter{Type: t, IsActive: &active})
}

func parseType(raw string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", invalidType(raw)
	}
	return t, nil
}

func invalidType(raw string) error {
	names := make([]string, len(allTypes))
	for i, t := range allTypes {
		names[i] = string(t)
	}
	return domain.ValidationError{
		Field: "type",
		Msg:   fmt.Sprintf("type %q must be one of %s", raw, strings.Join(names, ", ")),
		Err:   ErrInvalidType,
	}
}
