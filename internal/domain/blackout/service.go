package blackout

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"reservecore/internal/domain"
	"reservecore/internal/domain/resource"
	"reservecore/internal/pkg/calendar"
	"reservecore/internal/pkg/validator"
)

// ResourceGetter resolves a resource, failing for unknown or soft-deleted ids.
type ResourceGetter interface {
	GetOrFail(ctx context.Context, id string) (*resource.Resource, error)
}

type Service struct {
	repo      *Repository
	resources ResourceGetter
	cal       *calendar.Calendar
	logger    *log.Logger
}

type Option func(*Service)

// WithResources makes Create reject unknown and soft-deleted resources.
func WithResources(r ResourceGetter) Option {
	return func(s *Service) { s.resources = r }
}

func NewService(repo *Repository, cal *calendar.Calendar, logger *log.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = log.Default()
	}
	s := &Service{repo: repo, cal: cal, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, req CreateBlackoutRequest) (*Blackout, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	start, err := s.cal.Parse(req.StartDate)
	if err != nil {
		return nil, domain.ValidationError{Field: "start_date", Msg: "start_date must be YYYY-MM-DD", Err: err}
	}
	end, err := s.cal.Parse(req.EndDate)
	if err != nil {
		return nil, domain.ValidationError{Field: "end_date", Msg: "end_date must be YYYY-MM-DD", Err: err}
	}
	if end.Before(start) {
		return nil, domain.ValidationError{Field: "end_date", Msg: "end_date must not be before start_date"}
	}
	resourceID := strings.TrimSpace(req.ResourceID)
	if s.resources != nil {
		if _, err := s.resources.GetOrFail(ctx, resourceID); err != nil {
			return nil, err
		}
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultReason
	}
	b := &Blackout{
		ResourceID: resourceID,
		StartDate:  s.cal.Key(start),
		EndDate:    s.cal.Key(end),
		Reason:     reason,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create blackout: %w", err)
	}
	s.logger.Printf("blackout_created id=%s resource_id=%s start=%s end=%s", b.ID, b.ResourceID, b.StartDate, b.EndDate)
	return b, nil
}

func (s *Service) ListForResource(ctx context.Context, resourceID string) ([]Blackout, error) {
	if strings.TrimSpace(resourceID) == "" {
		return nil, domain.ValidationError{Field: "resource_id", Msg: "resource_id is required"}
	}
	return s.repo.ListForResource(ctx, resourceID)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete blackout %s: %w", id, err)
	}
	if n == 0 {
		return ErrBlackoutNotFound
	}
	s.logger.Printf("blackout_deleted id=%s", id)
	return nil
}

// IsBlocked reports whether date falls inside any blackout of the resource,
// returning the reason of the earliest-starting one.
func (s *Service) IsBlocked(ctx context.Context, resourceID, date string) (string, bool, error) {
	blocked, err := s.Blocked(ctx, resourceID, []string{date})
	if err != nil {
		return "", false, err
	}
	reason, ok := blocked[date]
	return reason, ok, nil
}

// Blocked maps each blacked-out date among dates to its reason, using one query.
func (s *Service) Blocked(ctx context.Context, resourceID string, dates []string) (map[string]string, error) {
	out := make(map[string]string)
	if len(dates) == 0 {
		return out, nil
	}
	sorted := append([]string(nil), dates...)
	sort.Strings(sorted)

	items, err := s.repo.Overlapping(ctx, resourceID, sorted[0], sorted[len(sorted)-1])
	if err != nil {
		return nil, fmt.Errorf("load blackouts for %s: %w", resourceID, err)
	}
	for _, date := range dates {
		for i := range items {
			if items[i].Covers(date) {
				out[date] = items[i].Reason
				break
			}
		}
	}
	return out, nil
}
