package hold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reservecore/internal/database/databasetest"
	"reservecore/internal/domain"
	"reservecore/internal/domain/blackout"
	"reservecore/internal/domain/capacity"
	"reservecore/internal/domain/resource"
	"reservecore/internal/events"
	"reservecore/internal/lock"
	"reservecore/internal/pkg/calendar"
	"reservecore/internal/pkg/clock"
)

var t0 = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, evs ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evs...)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	svc       *Service
	capacity  *capacity.Service
	blackouts *blackout.Service
	resources *resource.Service
	clock     *clock.Manual
	events    *recordingPublisher
	resID     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := databasetest.Open(t, &resource.Resource{}, &blackout.Blackout{}, &capacity.Capacity{}, &Hold{}, &Allocation{})
	logger := log.New(io.Discard, "", 0)
	cal := calendar.New(time.UTC)
	clk := clock.NewManual(t0)
	pub := &recordingPublisher{}

	resources := resource.NewService(resource.NewRepository(db), clk, logger)
	blackouts := blackout.NewService(blackout.NewRepository(db), cal, logger, blackout.WithResources(resources))
	capSvc := capacity.NewService(capacity.NewRepository(db), blackouts, lock.NewMemory(), cal,
		capacity.WithClock(clk), capacity.WithLogger(logger), capacity.WithResources(resources))
	svc := NewService(NewRepository(db), capSvc, cal,
		WithClock(clk), WithLogger(logger), WithPublisher(pub))

	res, err := resources.Create(context.Background(), resource.CreateResourceRequest{Type: "TOUR", Name: "City walk"})
	require.NoError(t, err)

	return &testEnv{db: db, svc: svc, capacity: capSvc, blackouts: blackouts, resources: resources, clock: clk, events: pub, resID: res.ID}
}

func (e *testEnv) initCapacity(t *testing.T, max int, dates ...string) {
	t.Helper()
	_, err := e.capacity.InitializeCapacity(context.Background(), e.resID, dates, max)
	require.NoError(t, err)
}

func (e *testEnv) available(t *testing.T, date string) int {
	t.Helper()
	var row capacity.Capacity
	require.NoError(t, e.db.Where("resource_id = ? AND date = ?", e.resID, date).First(&row).Error)
	return row.AvailableCapacity
}

func (e *testEnv) hold(t *testing.T, token string, quantity int, dates ...string) *Hold {
	t.Helper()
	res, err := e.svc.CreateHold(context.Background(), CreateHoldInput{
		ResourceID:       e.resID,
		Dates:            dates,
		Quantity:         quantity,
		IdempotencyToken: token,
	})
	require.NoError(t, err)
	return res.Hold
}

func (e *testEnv) countHolds(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&Hold{}).Count(&n).Error)
	return n
}

func TestCreateHoldReservesEveryDate(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-05-10", "2026-05-11")

	res, err := env.svc.CreateHold(context.Background(), CreateHoldInput{
		ResourceID:       env.resID,
		Dates:            []string{"2026-05-11", "2026-05-10"},
		Quantity:         2,
		IdempotencyToken: "cart-1",
		CustomerEmail:    "guest@example.com",
	})
	require.NoError(t, err)
	assert.True(t, res.Created)
	require.Len(t, res.Holds, 2)
	assert.Equal(t, "2026-05-10", res.Hold.Date)

	for _, h := range res.Holds {
		assert.Equal(t, StatusActive, h.Status)
		assert.WithinDuration(t, t0.Add(DefaultTTL), h.ExpiresAt, time.Millisecond)
		assert.Equal(t, "cart-1:"+h.Date, h.IdempotencyKey)
		require.NotNil(t, h.CustomerEmail)
		assert.Equal(t, "guest@example.com", *h.CustomerEmail)
	}
	assert.Equal(t, 3, env.available(t, "2026-05-10"))
	assert.Equal(t, 3, env.available(t, "2026-05-11"))
	assert.Equal(t, []string{events.HoldCreated, events.HoldCreated}, env.events.types())
}

func TestCreateHoldIsIdempotentPerToken(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-05-10")
	ctx := context.Background()
	in := CreateHoldInput{ResourceID: env.resID, Dates: []string{"2026-05-10"}, Quantity: 2, IdempotencyToken: "retry-me"}

	first, err := env.svc.CreateHold(ctx, in)
	require.NoError(t, err)
	second, err := env.svc.CreateHold(ctx, in)
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.Hold.ID, second.Hold.ID)
	assert.Equal(t, 3, env.available(t, "2026-05-10"), "retry must not reserve twice")
	assert.EqualValues(t, 1, env.countHolds(t))
}

func TestCreateHoldConcurrentSameTokenReservesOnce(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-05-12")
	ctx := context.Background()

	const callers = 10
	var (
		wg      sync.WaitGroup
		created atomic.Int64
		mu      sync.Mutex
		ids     = map[string]struct{}{}
		start   = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := env.svc.CreateHold(ctx, CreateHoldInput{
				ResourceID: env.resID, Dates: []string{"2026-05-12"}, Quantity: 1, IdempotencyToken: "double-click",
			})
			if !assert.NoError(t, err) {
				return
			}
			if res.Created {
				created.Add(1)
			}
			mu.Lock()
			ids[res.Hold.ID] = struct{}{}
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	assert.Len(t, ids, 1)
	assert.Equal(t, 4, env.available(t, "2026-05-12"))
	assert.EqualValues(t, 1, env.countHolds(t))
}

// gatedCapacity lines two same-token callers up past the token lookup. In
// serial mode the second caller only checks availability after the first has
// committed its holds.
type gatedCapacity struct {
	CapacityService
	serial   bool
	arrived  sync.WaitGroup
	checks   atomic.Int64
	adjusted chan struct{}
	once     sync.Once
}

func newGatedCapacity(inner CapacityService, serial bool) *gatedCapacity {
	g := &gatedCapacity{CapacityService: inner, serial: serial, adjusted: make(chan struct{})}
	g.arrived.Add(2)
	return g
}

func (g *gatedCapacity) CheckAvailability(ctx context.Context, resourceID string, dates []string, quantity int) ([]capacity.DateAvailability, error) {
	g.arrived.Done()
	g.arrived.Wait()
	if g.serial && g.checks.Add(1) == 2 {
		<-g.adjusted
	}
	return g.CapacityService.CheckAvailability(ctx, resourceID, dates, quantity)
}

func (g *gatedCapacity) AdjustMany(ctx context.Context, resourceID string, adjs []capacity.Adjustment, within func(tx *gorm.DB) error) ([]capacity.Capacity, error) {
	out, err := g.CapacityService.AdjustMany(ctx, resourceID, adjs, within)
	g.once.Do(func() { close(g.adjusted) })
	return out, err
}

func TestCreateHoldSameTokenTakingLastUnit(t *testing.T) {
	for _, tc := range []struct {
		name   string
		serial bool
	}{
		{name: "both checked before either reserved", serial: false},
		{name: "second checked after first committed", serial: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.initCapacity(t, 1, "2026-05-13")
			gated := newGatedCapacity(env.capacity, tc.serial)
			svc := NewService(NewRepository(env.db), gated, calendar.New(time.UTC),
				WithClock(env.clock), WithLogger(log.New(io.Discard, "", 0)), WithPublisher(env.events))

			var (
				wg      sync.WaitGroup
				results [2]*CreateHoldResult
				errs    [2]error
			)
			for i := range results {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = svc.CreateHold(context.Background(), CreateHoldInput{
						ResourceID: env.resID, Dates: []string{"2026-05-13"}, Quantity: 1, IdempotencyToken: "last-seat",
					})
				}(i)
			}
			wg.Wait()

			require.NoError(t, errs[0])
			require.NoError(t, errs[1])
			assert.Equal(t, results[0].Hold.ID, results[1].Hold.ID)
			assert.True(t, results[0].Created != results[1].Created, "exactly one caller creates")
			assert.EqualValues(t, 1, env.countHolds(t))
			assert.Equal(t, 0, env.available(t, "2026-05-13"))
		})
	}
}

func TestCreateHoldOtherTokenStillConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 1, "2026-05-14")
	env.hold(t, "first", 1, "2026-05-14")

	_, err := env.svc.CreateHold(context.Background(), CreateHoldInput{
		ResourceID: env.resID, Dates: []string{"2026-05-14"}, Quantity: 1, IdempotencyToken: "second",
	})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.ErrorIs(t, err, capacity.ErrInsufficientCapacity)
}

func TestCreateHoldConcurrentCallersNeverOversubscribe(t *testing.T) {
	const (
		max     = 10
		callers = 100
	)
	env := newTestEnv(t)
	env.initCapacity(t, max, "2026-05-20")
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		conflicts atomic.Int64
		start     = make(chan struct{})
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, err := env.svc.CreateHold(ctx, CreateHoldInput{
				ResourceID: env.resID, Dates: []string{"2026-05-20"}, Quantity: 1, IdempotencyToken: fmt.Sprintf("cart-%d", i),
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case domain.IsConflict(err):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, max, succeeded.Load())
	assert.EqualValues(t, callers-max, conflicts.Load())
	assert.Equal(t, 0, env.available(t, "2026-05-20"))
	assert.EqualValues(t, max, env.countHolds(t))
}

func TestCreateHoldIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-06-01", "2026-06-02")
	env.initCapacity(t, 1, "2026-06-03")

	_, err := env.svc.CreateHold(context.Background(), CreateHoldInput{
		ResourceID: env.resID, Dates: []string{"2026-06-01", "2026-06-02", "2026-06-03", "2026-06-04"}, Quantity: 2, IdempotencyToken: "big",
	})
	require.Error(t, err)
	assert.True(t, domain.IsConflict(err))
	assert.ErrorIs(t, err, capacity.ErrInsufficientCapacity)
	assert.Contains(t, err.Error(), "2026-06-03 ("+capacity.ReasonInsufficient+")")
	assert.Contains(t, err.Error(), "2026-06-04 ("+capacity.ReasonNoCapacity+")")
	assert.NotContains(t, err.Error(), "2026-06-01")

	assert.Equal(t, 5, env.available(t, "2026-06-01"))
	assert.Equal(t, 5, env.available(t, "2026-06-02"))
	assert.Equal(t, 1, env.available(t, "2026-06-03"))
	assert.Zero(t, env.countHolds(t))
	assert.Empty(t, env.events.types())
}

func TestCreateHoldBlackoutIsSemanticConflict(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-06-10", "2026-06-11")
	_, err := env.blackouts.Create(context.Background(), blackout.CreateBlackoutRequest{
		ResourceID: env.resID, StartDate: "2026-06-11", EndDate: "2026-06-11", Reason: "maintenance",
	})
	require.NoError(t, err)

	_, err = env.svc.CreateHold(context.Background(), CreateHoldInput{
		ResourceID: env.resID, Dates: []string{"2026-06-10", "2026-06-11"}, Quantity: 1, IdempotencyToken: "bo",
	})
	assert.True(t, domain.IsSemanticConflict(err))
	assert.ErrorIs(t, err, ErrBlackoutConflict)
	assert.Contains(t, err.Error(), "2026-06-11 (maintenance)")
	assert.Equal(t, 5, env.available(t, "2026-06-10"))
}

func TestCreateHoldValidation(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-06-20")
	ctx := context.Background()

	cases := map[string]CreateHoldInput{
		"missing token":  {ResourceID: env.resID, Dates: []string{"2026-06-20"}, Quantity: 1},
		"zero quantity":  {ResourceID: env.resID, Dates: []string{"2026-06-20"}, Quantity: 0, IdempotencyToken: "a"},
		"no dates":       {ResourceID: env.resID, Quantity: 1, IdempotencyToken: "b"},
		"bad date":       {ResourceID: env.resID, Dates: []string{"20/06/2026"}, Quantity: 1, IdempotencyToken: "c"},
		"bad email":      {ResourceID: env.resID, Dates: []string{"2026-06-20"}, Quantity: 1, IdempotencyToken: "d", CustomerEmail: "nope"},
		"missing target": {Dates: []string{"2026-06-20"}, Quantity: 1, IdempotencyToken: "e"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.svc.CreateHold(ctx, in)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
	assert.Equal(t, 5, env.available(t, "2026-06-20"))
}

func TestCreateHoldOnDeletedResource(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-06-25")
	_, err := env.resources.SoftDelete(context.Background(), env.resID)
	require.NoError(t, err)

	_, err = env.svc.CreateHold(context.Background(), CreateHoldInput{
		ResourceID: env.resID, Dates: []string{"2026-06-25"}, Quantity: 1, IdempotencyToken: "gone",
	})
	assert.True(t, domain.IsDeleted(err))
}

func TestConfirmHoldIsOneWay(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-07-01")
	ctx := context.Background()
	h := env.hold(t, "checkout", 2, "2026-07-01")

	alloc, err := env.svc.ConfirmHold(ctx, h.ID, ConfirmHoldInput{OrderID: "order-1", LineItemID: "li-1"})
	require.NoError(t, err)
	assert.Equal(t, h.ID, alloc.HoldID)
	assert.Equal(t, 2, alloc.Quantity)
	assert.Equal(t, 3, env.available(t, "2026-07-01"), "confirm does not touch capacity")

	got, err := env.svc.GetHold(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, got.Status)

	_, err = env.svc.ConfirmHold(ctx, h.ID, ConfirmHoldInput{OrderID: "order-1", LineItemID: "li-1"})
	assert.ErrorIs(t, err, ErrHoldNotActive)
	_, err = env.svc.ReleaseHold(ctx, h.ID)
	assert.ErrorIs(t, err, ErrHoldNotActive)
	assert.Equal(t, 3, env.available(t, "2026-07-01"))

	allocs, err := env.svc.GetAllocationsByOrder(ctx, "order-1")
	require.NoError(t, err)
	assert.Len(t, allocs, 1)
	allocs, err = env.svc.GetAllocations(ctx, env.resID, "2026-07-01")
	require.NoError(t, err)
	assert.Len(t, allocs, 1)

	assert.Equal(t, []string{events.HoldCreated, events.HoldConfirmed}, env.events.types())
}

func TestConfirmHoldErrors(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-07-02")
	ctx := context.Background()
	h := env.hold(t, "late", 1, "2026-07-02")

	_, err := env.svc.ConfirmHold(ctx, "missing", ConfirmHoldInput{OrderID: "o", LineItemID: "l"})
	assert.ErrorIs(t, err, ErrHoldNotFound)

	_, err = env.svc.ConfirmHold(ctx, h.ID, ConfirmHoldInput{OrderID: "o"})
	assert.True(t, domain.IsValidation(err))

	env.clock.Advance(DefaultTTL + time.Second)
	_, err = env.svc.ConfirmHold(ctx, h.ID, ConfirmHoldInput{OrderID: "o", LineItemID: "l"})
	assert.ErrorIs(t, err, ErrHoldExpired)

	var conflict domain.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, CodeHoldExpired, conflict.Code)
}

func TestReleaseHoldRestoresQuantity(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-07-10")
	ctx := context.Background()
	h := env.hold(t, "cancel", 3, "2026-07-10")
	assert.Equal(t, 2, env.available(t, "2026-07-10"))

	released, err := env.svc.ReleaseHold(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusReleased, released.Status)
	assert.Equal(t, 5, env.available(t, "2026-07-10"))

	_, err = env.svc.ReleaseHold(ctx, h.ID)
	assert.ErrorIs(t, err, ErrHoldNotActive)
	assert.Equal(t, 5, env.available(t, "2026-07-10"))

	_, err = env.svc.ReleaseHold(ctx, "missing")
	assert.True(t, domain.IsNotFound(err))
}

func TestExtendHold(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-07-15")
	ctx := context.Background()
	h := env.hold(t, "slow", 1, "2026-07-15")

	extended, err := env.svc.ExtendHold(ctx, h.ID, 15)
	require.NoError(t, err)
	assert.WithinDuration(t, t0.Add(DefaultTTL+15*time.Minute), extended.ExpiresAt, time.Millisecond)
	assert.Equal(t, 4, env.available(t, "2026-07-15"))

	_, err = env.svc.ExtendHold(ctx, h.ID, 0)
	assert.True(t, domain.IsValidation(err))

	_, err = env.svc.ReleaseHold(ctx, h.ID)
	require.NoError(t, err)
	_, err = env.svc.ExtendHold(ctx, h.ID, 10)
	assert.ErrorIs(t, err, ErrHoldNotActive)
}

func TestCleanupExpiredHolds(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-08-01", "2026-08-02")
	ctx := context.Background()

	stale1 := env.hold(t, "a", 1, "2026-08-01")
	stale2 := env.hold(t, "b", 2, "2026-08-02")
	confirmed := env.hold(t, "c", 1, "2026-08-01")
	_, err := env.svc.ConfirmHold(ctx, confirmed.ID, ConfirmHoldInput{OrderID: "o", LineItemID: "l"})
	require.NoError(t, err)

	env.clock.Advance(20 * time.Minute)
	fresh := env.hold(t, "d", 1, "2026-08-01")
	assert.Equal(t, 2, env.available(t, "2026-08-01"))

	env.clock.Advance(15 * time.Minute)
	n, err := env.svc.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, 3, env.available(t, "2026-08-01"), "confirmed and fresh holds keep their units")
	assert.Equal(t, 5, env.available(t, "2026-08-02"))

	for id, want := range map[string]Status{
		stale1.ID: StatusExpired, stale2.ID: StatusExpired, confirmed.ID: StatusConfirmed, fresh.ID: StatusActive,
	} {
		got, err := env.svc.GetHold(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got.Status, id)
	}

	n, err = env.svc.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "sweep is idempotent")

	active, err := env.svc.GetActiveHolds(ctx, env.resID, "2026-08-01")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh.ID, active[0].ID)
}

func TestCleanupIsolatesFailingHolds(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-08-10")
	ctx := context.Background()

	good := env.hold(t, "good", 1, "2026-08-10")
	orphan := Hold{
		ResourceID:     env.resID,
		Date:           "2026-08-11",
		Quantity:       1,
		ExpiresAt:      t0.Add(time.Minute),
		IdempotencyKey: "orphan:2026-08-11",
		RequestToken:   "orphan",
		Status:         StatusActive,
	}
	require.NoError(t, env.db.Create(&orphan).Error)

	env.clock.Advance(time.Hour)
	n, err := env.svc.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := env.svc.GetHold(ctx, good.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
	got, err = env.svc.GetHold(ctx, orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status, "failed rows stay for the next sweep")
	assert.Equal(t, 5, env.available(t, "2026-08-10"))
}

func TestCleanupDrainsMoreThanOneBatch(t *testing.T) {
	env := newTestEnv(t)
	const total = sweepBatchSize + 100
	env.initCapacity(t, 1500, "2026-08-15")
	require.NoError(t, env.db.Model(&capacity.Capacity{}).
		Where("resource_id = ? AND date = ?", env.resID, "2026-08-15").
		Update("available_capacity", 1500-total).Error)

	holds := make([]Hold, total)
	for i := range holds {
		token := fmt.Sprintf("bulk-%d", i)
		holds[i] = Hold{
			ResourceID:     env.resID,
			Date:           "2026-08-15",
			Quantity:       1,
			ExpiresAt:      t0.Add(time.Minute),
			IdempotencyKey: token + ":2026-08-15",
			RequestToken:   token,
			Status:         StatusActive,
		}
	}
	require.NoError(t, env.db.CreateInBatches(holds, 100).Error)

	env.clock.Advance(time.Hour)
	n, err := env.svc.CleanupExpiredHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, total, n)
	assert.Equal(t, 1500, env.available(t, "2026-08-15"))
}

func TestCleanupSkipsFailingBatches(t *testing.T) {
	env := newTestEnv(t)
	env.svc.sweepBatch = 2
	env.initCapacity(t, 10, "2026-08-16")
	ctx := context.Background()

	// The orphans expire first, so the whole first batch fails.
	for i := 0; i < 2; i++ {
		token := fmt.Sprintf("orphan-%d", i)
		require.NoError(t, env.db.Create(&Hold{
			ResourceID:     env.resID,
			Date:           "2026-08-17",
			Quantity:       1,
			ExpiresAt:      t0.Add(time.Minute),
			IdempotencyKey: token + ":2026-08-17",
			RequestToken:   token,
			Status:         StatusActive,
		}).Error)
	}
	for i := 0; i < 5; i++ {
		env.hold(t, fmt.Sprintf("h-%d", i), 1, "2026-08-16")
	}
	assert.Equal(t, 5, env.available(t, "2026-08-16"))

	env.clock.Advance(time.Hour)
	n, err := env.svc.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 10, env.available(t, "2026-08-16"))

	n, err = env.svc.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "rows that keep failing do not stall the sweep")
}

func TestReleaseRacingSweepRestoresOnce(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 4, "2026-08-20")
	ctx := context.Background()
	h := env.hold(t, "race", 3, "2026-08-20")
	env.clock.Advance(DefaultTTL + time.Minute)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := env.svc.ReleaseHold(ctx, h.ID)
		if err != nil {
			assert.ErrorIs(t, err, ErrHoldNotActive)
		}
	}()
	go func() {
		defer wg.Done()
		_, err := env.svc.CleanupExpiredHolds(ctx)
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.Equal(t, 4, env.available(t, "2026-08-20"))
	got, err := env.svc.GetHold(ctx, h.ID)
	require.NoError(t, err)
	assert.Contains(t, []Status{StatusReleased, StatusExpired}, got.Status)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	env := newTestEnv(t)
	env.initCapacity(t, 5, "2026-09-01")
	env.events.err = errors.New("broker down")

	h := env.hold(t, "pub", 1, "2026-09-01")
	_, err := env.svc.ReleaseHold(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{events.HoldCreated, events.HoldReleased}, env.events.types())
}

func TestReadQueriesValidateInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.GetActiveHolds(ctx, env.resID, "tomorrow")
	assert.True(t, domain.IsValidation(err))
	_, err = env.svc.GetAllocations(ctx, env.resID, "")
	assert.True(t, domain.IsValidation(err))
	_, err = env.svc.GetAllocationsByOrder(ctx, " ")
	assert.True(t, domain.IsValidation(err))
}
