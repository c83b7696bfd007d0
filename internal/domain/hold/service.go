package hold

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"reservecore/internal/database"
	"reservecore/internal/domain"
	"reservecore/internal/domain/capacity"
	"reservecore/internal/events"
	"reservecore/internal/metrics"
	"reservecore/internal/pkg/calendar"
	"reservecore/internal/pkg/clock"
	"reservecore/internal/pkg/validator"
	"reservecore/internal/tracing"
)

const (
	DefaultTTL           = 30 * time.Minute
	DefaultExtendMinutes = 30

	sweepBatchSize = 500
	publishTimeout = 2 * time.Second
)

// CapacityService is the part of the capacity store holds depend on.
type CapacityService interface {
	CheckAvailability(ctx context.Context, resourceID string, dates []string, quantity int) ([]capacity.DateAvailability, error)
	AdjustMany(ctx context.Context, resourceID string, adjs []capacity.Adjustment, within func(tx *gorm.DB) error) ([]capacity.Capacity, error)
}

type Service struct {
	repo      *Repository
	capacity  CapacityService
	cal       *calendar.Calendar
	clock     clock.Clock
	ttl       time.Duration
	publisher events.Publisher
	logger    *log.Logger

	sweepBatch int
}

type Option func(*Service)

func WithTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
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

func NewService(repo *Repository, capacity CapacityService, cal *calendar.Calendar, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		capacity:  capacity,
		cal:       cal,
		clock:     clock.NewSystem(),
		ttl:       DefaultTTL,
		publisher: events.Nop{},
		logger:    log.Default(),

		sweepBatch: sweepBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateHold reserves quantity units on every requested date, or on none.
// A request token that already produced holds returns those holds unchanged
// with Created=false, so retries never double-reserve.
func (s *Service) CreateHold(ctx context.Context, in CreateHoldInput) (res *CreateHoldResult, err error) {
	token := strings.TrimSpace(in.IdempotencyToken)
	if token == "" {
		return nil, domain.ValidationError{Field: "idempotencyToken", Msg: "idempotencyToken is required"}
	}
	if existing, err := s.existing(ctx, token); err != nil || existing != nil {
		return existing, err
	}

	if in.Quantity <= 0 {
		return nil, domain.ValidationError{Field: "quantity", Msg: "quantity must be > 0"}
	}
	in.IdempotencyToken = token
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	ctx, span := tracing.Start(ctx, "hold.create",
		attribute.String("resource.id", in.ResourceID),
		attribute.Int("hold.dates", len(in.Dates)),
		attribute.Int("hold.quantity", in.Quantity),
	)
	defer func() { tracing.End(span, err) }()

	availability, err := s.capacity.CheckAvailability(ctx, in.ResourceID, in.Dates, in.Quantity)
	if err != nil {
		return nil, err
	}
	if err := unavailable(availability); err != nil {
		if existing := s.replay(ctx, token, err); existing != nil {
			return existing, nil
		}
		s.reject(err)
		return nil, err
	}

	now := s.clock.Now()
	var email *string
	if in.CustomerEmail != "" {
		email = &in.CustomerEmail
	}
	holds := make([]Hold, len(availability))
	adjs := make([]capacity.Adjustment, len(availability))
	for i, a := range availability {
		holds[i] = Hold{
			ResourceID:     in.ResourceID,
			Date:           a.Date,
			Quantity:       in.Quantity,
			CustomerEmail:  email,
			ExpiresAt:      now.Add(s.ttl),
			IdempotencyKey: idempotencyKey(token, a.Date),
			RequestToken:   token,
			Status:         StatusActive,
		}
		adjs[i] = capacity.Adjustment{Date: a.Date, Delta: -in.Quantity}
	}

	_, err = s.capacity.AdjustMany(ctx, in.ResourceID, adjs, func(tx *gorm.DB) error {
		return createHolds(tx, holds)
	})
	if err != nil {
		if existing := s.replay(ctx, token, err); existing != nil {
			return existing, nil
		}
		s.reject(err)
		return nil, err
	}

	evs := make([]events.Event, len(holds))
	for i := range holds {
		evs[i] = holdEvent(events.HoldCreated, &holds[i], now)
		s.logger.Printf("hold_created hold_id=%s resource_id=%s date=%s quantity=%d expires_at=%s",
			holds[i].ID, holds[i].ResourceID, holds[i].Date, holds[i].Quantity, holds[i].ExpiresAt.Format(time.RFC3339))
	}
	metrics.HoldTransitions.WithLabelValues(string(StatusActive)).Add(float64(len(holds)))
	s.publish(ctx, evs...)

	return &CreateHoldResult{Hold: &holds[0], Holds: holds, Created: true}, nil
}

// ConfirmHold turns an ACTIVE, unexpired hold into a permanent allocation.
// Capacity is untouched: it was already subtracted when the hold was created.
func (s *Service) ConfirmHold(ctx context.Context, holdID string, in ConfirmHoldInput) (*Allocation, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	h, err := s.repo.GetByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if h.Status != StatusActive {
		return nil, notActive(h)
	}
	now := s.clock.Now()
	if now.After(h.ExpiresAt) {
		return nil, expired(h)
	}

	alloc := &Allocation{
		HoldID:     h.ID,
		ResourceID: h.ResourceID,
		Date:       h.Date,
		Quantity:   h.Quantity,
		OrderID:    in.OrderID,
		LineItemID: in.LineItemID,
	}
	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		n, err := transition(tx, h.ID, StatusConfirmed, now, "expires_at >= ?", now)
		if err != nil {
			return err
		}
		if n == 0 {
			return lostRace(h)
		}
		return createAllocation(tx, alloc)
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, lostRace(h)
		}
		return nil, err
	}

	h.Status = StatusConfirmed
	h.UpdatedAt = now
	metrics.HoldTransitions.WithLabelValues(string(StatusConfirmed)).Inc()
	s.logger.Printf("hold_confirmed hold_id=%s order_id=%s line_item_id=%s", h.ID, in.OrderID, in.LineItemID)

	ev := holdEvent(events.HoldConfirmed, h, now)
	ev.OrderID = in.OrderID
	s.publish(ctx, ev)
	return alloc, nil
}

// ReleaseHold cancels an ACTIVE hold and returns its quantity to the date.
func (s *Service) ReleaseHold(ctx context.Context, holdID string) (*Hold, error) {
	h, err := s.repo.GetByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if h.Status != StatusActive {
		return nil, notActive(h)
	}
	now := s.clock.Now()
	if err := s.restore(ctx, h, StatusReleased, now); err != nil {
		return nil, err
	}
	s.logger.Printf("hold_released hold_id=%s resource_id=%s date=%s quantity=%d", h.ID, h.ResourceID, h.Date, h.Quantity)
	s.publish(ctx, holdEvent(events.HoldReleased, h, now))
	return h, nil
}

// ExtendHold pushes an ACTIVE hold's expiry out by minutes.
func (s *Service) ExtendHold(ctx context.Context, holdID string, minutes int) (*Hold, error) {
	if minutes <= 0 {
		return nil, domain.ValidationError{Field: "minutes", Msg: "minutes must be > 0"}
	}
	h, err := s.repo.GetByID(ctx, holdID)
	if err != nil {
		return nil, err
	}
	if h.Status != StatusActive {
		return nil, notActive(h)
	}

	now := s.clock.Now()
	expiresAt := h.ExpiresAt.Add(time.Duration(minutes) * time.Minute)
	n, err := s.repo.Extend(ctx, h.ID, expiresAt, now)
	if err != nil {
		return nil, fmt.Errorf("extend hold %s: %w", h.ID, err)
	}
	if n == 0 {
		return nil, lostRace(h)
	}

	h.ExpiresAt = expiresAt
	h.UpdatedAt = now
	s.logger.Printf("hold_extended hold_id=%s minutes=%d expires_at=%s", h.ID, minutes, expiresAt.Format(time.RFC3339))
	s.publish(ctx, holdEvent(events.HoldExtended, h, now))
	return h, nil
}

// CleanupExpiredHolds expires ACTIVE holds past their expiry and returns their
// capacity. Each hold is handled on its own: one failure is logged and counted
// and never stops the rest. Returns how many holds were expired.
func (s *Service) CleanupExpiredHolds(ctx context.Context) (count int, err error) {
	ctx, span := tracing.Start(ctx, "hold.sweep")
	defer func() { tracing.End(span, err) }()

	now := s.clock.Now()
	var (
		failed     int
		candidates int
		skip       []string
	)
	for {
		due, err := s.repo.ListExpired(ctx, now, s.sweepBatch, skip)
		if err != nil {
			return count, fmt.Errorf("list expired holds: %w", err)
		}
		candidates += len(due)

		for i := range due {
			h := &due[i]
			err := s.restore(ctx, h, StatusExpired, now, "expires_at < ?", now)
			switch {
			case err == nil:
				count++
				s.publish(ctx, holdEvent(events.HoldExpired, h, now))
			case errors.Is(err, ErrHoldNotActive):
				// Confirmed or released after the listing; nothing to return.
			default:
				// Stays ACTIVE; keep it out of the next listing so the pass terminates.
				failed++
				skip = append(skip, h.ID)
				metrics.SweepFailures.Inc()
				s.logger.Printf("hold_expire_failed hold_id=%s resource_id=%s date=%s error=%v", h.ID, h.ResourceID, h.Date, err)
			}
		}

		if len(due) < s.sweepBatch || ctx.Err() != nil {
			break
		}
	}

	if count > 0 || failed > 0 {
		s.logger.Printf("hold_sweep expired=%d failed=%d candidates=%d", count, failed, candidates)
	}
	span.SetAttributes(attribute.Int("hold.expired", count), attribute.Int("hold.failed", failed))
	return count, nil
}

func (s *Service) GetHold(ctx context.Context, holdID string) (*Hold, error) {
	return s.repo.GetByID(ctx, holdID)
}

func (s *Service) GetActiveHolds(ctx context.Context, resourceID, date string) ([]Hold, error) {
	key, err := s.dateKey(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListActive(ctx, resourceID, key)
}

func (s *Service) GetAllocationsByOrder(ctx context.Context, orderID string) ([]Allocation, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, domain.ValidationError{Field: "order_id", Msg: "order_id is required"}
	}
	return s.repo.AllocationsByOrder(ctx, orderID)
}

func (s *Service) GetAllocations(ctx context.Context, resourceID, date string) ([]Allocation, error) {
	key, err := s.dateKey(date)
	if err != nil {
		return nil, err
	}
	return s.repo.Allocations(ctx, resourceID, key)
}

// restore moves h from ACTIVE to status and gives its quantity back, both in
// the capacity critical section. extra narrows the status guard.
func (s *Service) restore(ctx context.Context, h *Hold, status Status, now time.Time, extra ...any) error {
	_, err := s.capacity.AdjustMany(ctx, h.ResourceID, []capacity.Adjustment{{Date: h.Date, Delta: h.Quantity}}, func(tx *gorm.DB) error {
		n, err := transition(tx, h.ID, status, now, extra...)
		if err != nil {
			return err
		}
		if n == 0 {
			return lostRace(h)
		}
		return nil
	})
	if err != nil {
		return err
	}
	h.Status = status
	h.UpdatedAt = now
	metrics.HoldTransitions.WithLabelValues(string(status)).Inc()
	return nil
}

// replay returns the holds of a same-token request that committed after our
// initial lookup. Holds and capacity commit together, so a loser that saw the
// winner's units taken can also see the winner's holds.
func (s *Service) replay(ctx context.Context, token string, err error) *CreateHoldResult {
	if !domain.IsConflict(err) && !domain.IsSemanticConflict(err) && !database.IsUniqueViolation(err) {
		return nil
	}
	existing, ferr := s.existing(ctx, token)
	if ferr != nil {
		return nil
	}
	return existing
}

func (s *Service) existing(ctx context.Context, token string) (*CreateHoldResult, error) {
	holds, err := s.repo.FindByRequestToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("lookup request token: %w", err)
	}
	if len(holds) == 0 {
		return nil, nil
	}
	return &CreateHoldResult{Hold: &holds[0], Holds: holds, Created: false}, nil
}

func (s *Service) dateKey(date string) (string, error) {
	d, err := s.cal.Parse(date)
	if err != nil {
		return "", domain.ValidationError{Field: "date", Msg: "date must be YYYY-MM-DD", Err: err}
	}
	return s.cal.Key(d), nil
}

func (s *Service) reject(err error) {
	reason := "error"
	switch {
	case domain.IsSemanticConflict(err):
		reason = "blackout"
	case domain.IsConflict(err):
		reason = "capacity"
	case domain.IsValidation(err):
		reason = "validation"
	}
	metrics.HoldRejections.WithLabelValues(reason).Inc()
}

func (s *Service) publish(ctx context.Context, evs ...events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, evs...); err != nil {
		s.logger.Printf("event_publish_failed count=%d type=%s error=%v", len(evs), evs[0].Type, err)
	}
}

// unavailable lists every failing date. Any blacked-out date makes the whole
// request a semantic conflict; otherwise it is a capacity conflict.
func unavailable(items []capacity.DateAvailability) error {
	var (
		parts    []string
		blackout bool
	)
	for _, a := range items {
		if a.Available {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", a.Date, a.Reason))
		blackout = blackout || a.Blackout
	}
	if len(parts) == 0 {
		return nil
	}
	msg := "dates unavailable: " + strings.Join(parts, ", ")
	if blackout {
		return domain.SemanticConflictError{Code: CodeBlackoutConflict, Msg: msg, Err: ErrBlackoutConflict}
	}
	return domain.ConflictError{Code: capacity.CodeInsufficientCapacity, Msg: msg, Err: capacity.ErrInsufficientCapacity}
}

func notActive(h *Hold) error {
	return domain.ConflictError{
		Code: CodeHoldNotActive,
		Msg:  fmt.Sprintf("hold %s is %s, not ACTIVE", h.ID, h.Status),
		Err:  ErrHoldNotActive,
	}
}

// lostRace reports a hold that left ACTIVE between the read and the write.
func lostRace(h *Hold) error {
	return domain.ConflictError{
		Code: CodeHoldNotActive,
		Msg:  fmt.Sprintf("hold %s is no longer ACTIVE", h.ID),
		Err:  ErrHoldNotActive,
	}
}

func expired(h *Hold) error {
	return domain.ConflictError{
		Code: CodeHoldExpired,
		Msg:  fmt.Sprintf("hold %s expired at %s", h.ID, h.ExpiresAt.Format(time.RFC3339)),
		Err:  ErrHoldExpired,
	}
}

func holdEvent(typ string, h *Hold, at time.Time) events.Event {
	return events.Event{
		Type:         typ,
		HoldID:       h.ID,
		ResourceID:   h.ResourceID,
		Date:         h.Date,
		Quantity:     h.Quantity,
		Status:       string(h.Status),
		RequestToken: h.RequestToken,
		OccurredAt:   at,
	}
}
