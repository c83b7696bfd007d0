package capacity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"reservecore/internal/domain"
	"reservecore/internal/domain/resource"
	"reservecore/internal/lock"
	"reservecore/internal/metrics"
	"reservecore/internal/pkg/calendar"
	"reservecore/internal/pkg/clock"
	"reservecore/internal/tracing"
)

// BlackoutChecker maps blacked-out dates of a resource to their reason.
type BlackoutChecker interface {
	Blocked(ctx context.Context, resourceID string, dates []string) (map[string]string, error)
}

// ResourceGetter resolves a resource, failing for unknown or soft-deleted ids.
type ResourceGetter interface {
	GetOrFail(ctx context.Context, id string) (*resource.Resource, error)
}

type Service struct {
	repo      *Repository
	blackouts BlackoutChecker
	resources ResourceGetter
	locks     lock.Provider
	cal       *calendar.Calendar
	clock     clock.Clock
	logger    *log.Logger
}

type Option func(*Service)

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithResources makes availability queries reject unknown and soft-deleted resources.
func WithResources(r ResourceGetter) Option {
	return func(s *Service) { s.resources = r }
}

func NewService(repo *Repository, blackouts BlackoutChecker, locks lock.Provider, cal *calendar.Calendar, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		blackouts: blackouts,
		locks:     locks,
		cal:       cal,
		clock:     clock.NewSystem(),
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LockKey is the full, unhashed lock identifier for one (resource, date).
func LockKey(resourceID, date string) string {
	return "capacity:" + resourceID + ":" + date
}

// InitializeCapacity creates rows with available = max = maxCapacity for dates
// that have none yet. Existing rows are left untouched.
func (s *Service) InitializeCapacity(ctx context.Context, resourceID string, dates []string, maxCapacity int) (int, error) {
	if maxCapacity < 0 {
		return 0, domain.ValidationError{Field: "max_capacity", Msg: "max_capacity must be >= 0"}
	}
	if err := s.checkResource(ctx, resourceID); err != nil {
		return 0, err
	}
	keys, err := s.parseDates(dates)
	if err != nil {
		return 0, err
	}

	rows := make([]Capacity, len(keys))
	for i, k := range keys {
		rows[i] = Capacity{ResourceID: resourceID, Date: k, MaxCapacity: maxCapacity, AvailableCapacity: maxCapacity}
	}
	n, err := s.repo.InsertMissing(ctx, rows)
	if err != nil {
		return 0, fmt.Errorf("initialize capacity for %s: %w", resourceID, err)
	}
	s.logger.Printf("capacity_initialized resource_id=%s requested=%d created=%d max=%d", resourceID, len(keys), n, maxCapacity)
	return int(n), nil
}

// InitializeRange initializes every date in [start, end].
func (s *Service) InitializeRange(ctx context.Context, resourceID string, req InitializeRequest) (int, error) {
	start, end, err := s.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return 0, err
	}
	return s.InitializeCapacity(ctx, resourceID, s.cal.Keys(s.cal.Days(start, end)), req.DailyCapacity)
}

// CheckAvailability reports per date whether quantity units can be held.
// Precedence: blackout, missing row, insufficient capacity.
func (s *Service) CheckAvailability(ctx context.Context, resourceID string, dates []string, quantity int) ([]DateAvailability, error) {
	if quantity <= 0 {
		return nil, domain.ValidationError{Field: "quantity", Msg: "quantity must be > 0"}
	}
	if err := s.checkResource(ctx, resourceID); err != nil {
		return nil, err
	}
	keys, err := s.parseDates(dates)
	if err != nil {
		return nil, err
	}

	blocked, err := s.blocked(ctx, resourceID, keys)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindDates(ctx, resourceID, keys)
	if err != nil {
		return nil, fmt.Errorf("load capacity for %s: %w", resourceID, err)
	}
	byDate := make(map[string]Capacity, len(rows))
	for _, row := range rows {
		byDate[row.Date] = row
	}

	out := make([]DateAvailability, 0, len(keys))
	for _, k := range keys {
		row, hasRow := byDate[k]
		item := DateAvailability{Date: k, AvailableCapacity: row.AvailableCapacity, MaxCapacity: row.MaxCapacity}
		switch reason, isBlocked := blocked[k]; {
		case isBlocked:
			item.Reason = reason
			item.Blackout = true
		case !hasRow:
			item.Reason = ReasonNoCapacity
		case row.AvailableCapacity < quantity:
			item.Reason = ReasonInsufficient
		default:
			item.Available = true
		}
		out = append(out, item)
	}
	return out, nil
}

// GetAvailableDates lists dates in [start, end] that have a capacity row, are
// not blacked out and have at least minQuantity units left.
func (s *Service) GetAvailableDates(ctx context.Context, resourceID, start, end string, minQuantity int) ([]AvailableDate, error) {
	if minQuantity <= 0 {
		minQuantity = 1
	}
	from, to, err := s.parseRange(start, end)
	if err != nil {
		return nil, err
	}
	if err := s.checkResource(ctx, resourceID); err != nil {
		return nil, err
	}

	rows, err := s.repo.FindRange(ctx, resourceID, s.cal.Key(from), s.cal.Key(to))
	if err != nil {
		return nil, fmt.Errorf("load capacity for %s: %w", resourceID, err)
	}
	blocked, err := s.blocked(ctx, resourceID, datesOf(rows))
	if err != nil {
		return nil, err
	}

	out := make([]AvailableDate, 0, len(rows))
	for _, row := range rows {
		if _, ok := blocked[row.Date]; ok {
			continue
		}
		if row.AvailableCapacity < minQuantity {
			continue
		}
		out = append(out, AvailableDate{Date: row.Date, AvailableCapacity: row.AvailableCapacity, MaxCapacity: row.MaxCapacity})
	}
	return out, nil
}

// Report returns utilization for every configured date in [start, end].
func (s *Service) Report(ctx context.Context, resourceID, start, end string) ([]ReportRow, error) {
	from, to, err := s.parseRange(start, end)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.FindRange(ctx, resourceID, s.cal.Key(from), s.cal.Key(to))
	if err != nil {
		return nil, fmt.Errorf("load capacity for %s: %w", resourceID, err)
	}
	blocked, err := s.blocked(ctx, resourceID, datesOf(rows))
	if err != nil {
		return nil, err
	}

	out := make([]ReportRow, 0, len(rows))
	for _, row := range rows {
		r := ReportRow{
			Date:              row.Date,
			MaxCapacity:       row.MaxCapacity,
			AvailableCapacity: row.AvailableCapacity,
			Reserved:          row.MaxCapacity - row.AvailableCapacity,
			Blackout:          blocked[row.Date],
		}
		if row.MaxCapacity > 0 {
			r.UtilizationPercent = float64(r.Reserved) / float64(row.MaxCapacity) * 100
		}
		out = append(out, r)
	}
	return out, nil
}

// AdjustCapacity is the single-date form of AdjustMany.
func (s *Service) AdjustCapacity(ctx context.Context, resourceID, date string, delta int) (*Capacity, error) {
	rows, err := s.AdjustMany(ctx, resourceID, []Adjustment{{Date: date, Delta: delta}}, nil)
	if err != nil {
		return nil, err
	}
	return &rows[0], nil
}

// AdjustMany is the critical section for capacity. It takes the lock of every
// affected (resource, date) in sorted order, then in one transaction re-reads
// each row, applies its delta and runs within (if set) against the same tx.
// Either every adjustment and within's writes commit, or none do. Locks are
// released after commit. Never retries.
func (s *Service) AdjustMany(ctx context.Context, resourceID string, adjs []Adjustment, within func(tx *gorm.DB) error) (rows []Capacity, err error) {
	if strings.TrimSpace(resourceID) == "" {
		return nil, domain.ValidationError{Field: "resource_id", Msg: "resource_id is required"}
	}
	merged, err := s.mergeAdjustments(adjs)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.Start(ctx, "capacity.adjust",
		attribute.String("resource.id", resourceID),
		attribute.Int("capacity.dates", len(merged)),
	)
	defer func() {
		metrics.CapacityAdjustments.WithLabelValues(outcome(err)).Inc()
		tracing.End(span, err)
	}()

	keys := make([]string, len(merged))
	for i, a := range merged {
		keys[i] = LockKey(resourceID, a.Date)
	}

	waitStart := time.Now()
	err = lock.With(ctx, s.locks, keys, func(ctx context.Context) error {
		metrics.LockWaitDuration.Observe(time.Since(waitStart).Seconds())
		rows = make([]Capacity, 0, len(merged))

		return s.repo.Transaction(ctx, func(tx *gorm.DB) error {
			now := s.clock.Now()
			for _, a := range merged {
				row, err := lockRow(tx, resourceID, a.Date)
				if err != nil {
					if errors.Is(err, ErrCapacityNotFound) {
						return fmt.Errorf("%s: %w", a.Date, err)
					}
					return fmt.Errorf("read capacity %s/%s: %w", resourceID, a.Date, err)
				}

				next := row.AvailableCapacity + a.Delta
				if next < 0 {
					return domain.ConflictError{
						Code: CodeInsufficientCapacity,
						Msg:  fmt.Sprintf("insufficient capacity on %s: available %d, requested %d", a.Date, row.AvailableCapacity, -a.Delta),
						Err:  ErrInsufficientCapacity,
					}
				}
				if next > row.MaxCapacity {
					return domain.ConflictError{
						Code: CodeExceedsMaxCapacity,
						Msg:  fmt.Sprintf("exceeds max capacity on %s: max %d, resulting %d", a.Date, row.MaxCapacity, next),
						Err:  ErrExceedsMaxCapacity,
					}
				}
				if a.Delta != 0 {
					if err := setAvailable(tx, row.ID, next, now); err != nil {
						return fmt.Errorf("write capacity %s/%s: %w", resourceID, a.Date, err)
					}
				}
				row.AvailableCapacity = next
				row.UpdatedAt = now
				rows = append(rows, *row)
			}

			if within != nil {
				return within(tx)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		s.logger.Printf("capacity_adjusted resource_id=%s date=%s available=%d max=%d", resourceID, row.Date, row.AvailableCapacity, row.MaxCapacity)
	}
	return rows, nil
}

func (s *Service) mergeAdjustments(adjs []Adjustment) ([]Adjustment, error) {
	if len(adjs) == 0 {
		return nil, domain.ValidationError{Field: "dates", Msg: "at least one date is required"}
	}
	sum := make(map[string]int, len(adjs))
	for _, a := range adjs {
		d, err := s.cal.Parse(a.Date)
		if err != nil {
			return nil, domain.ValidationError{Field: "date", Msg: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", a.Date), Err: err}
		}
		sum[s.cal.Key(d)] += a.Delta
	}

	out := make([]Adjustment, 0, len(sum))
	for date, delta := range sum {
		out = append(out, Adjustment{Date: date, Delta: delta})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// parseDates validates and normalizes caller dates, returning sorted unique keys.
func (s *Service) parseDates(dates []string) ([]string, error) {
	if len(dates) == 0 {
		return nil, domain.ValidationError{Field: "dates", Msg: "at least one date is required"}
	}
	parsed := make([]time.Time, 0, len(dates))
	for _, raw := range dates {
		d, err := s.cal.Parse(raw)
		if err != nil {
			return nil, domain.ValidationError{Field: "dates", Msg: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", raw), Err: err}
		}
		parsed = append(parsed, d)
	}
	return s.cal.Keys(s.cal.Unique(parsed)), nil
}

func (s *Service) parseRange(start, end string) (time.Time, time.Time, error) {
	from, err := s.cal.Parse(start)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ValidationError{Field: "start_date", Msg: "start_date must be YYYY-MM-DD", Err: err}
	}
	to, err := s.cal.Parse(end)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ValidationError{Field: "end_date", Msg: "end_date must be YYYY-MM-DD", Err: err}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, domain.ValidationError{Field: "end_date", Msg: "end_date must not be before start_date"}
	}
	if span := s.cal.Span(from, to); span > calendar.MaxRangeDays {
		return time.Time{}, time.Time{}, domain.ValidationError{
			Field: "end_date",
			Msg:   fmt.Sprintf("date range of %d days exceeds %d", span, calendar.MaxRangeDays),
		}
	}
	return from, to, nil
}

func (s *Service) checkResource(ctx context.Context, resourceID string) error {
	if strings.TrimSpace(resourceID) == "" {
		return domain.ValidationError{Field: "resource_id", Msg: "resource_id is required"}
	}
	if s.resources == nil {
		return nil
	}
	_, err := s.resources.GetOrFail(ctx, resourceID)
	return err
}

func (s *Service) blocked(ctx context.Context, resourceID string, dates []string) (map[string]string, error) {
	if s.blackouts == nil || len(dates) == 0 {
		return map[string]string{}, nil
	}
	return s.blackouts.Blocked(ctx, resourceID, dates)
}

func datesOf(rows []Capacity) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = row.Date
	}
	return out
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientCapacity):
		return "insufficient"
	case errors.Is(err, ErrExceedsMaxCapacity):
		return "exceeds_max"
	case domain.IsNotFound(err):
		return "not_found"
	case domain.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}
