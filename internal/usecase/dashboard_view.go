package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/elm042025/sales-dashboard/internal/adapter/metrics"
	"github.com/elm042025/sales-dashboard/internal/domain"
	"github.com/elm042025/sales-dashboard/internal/quarter"
)

const profileRefreshTimeout = 5 * time.Second

// DashboardView maintains the current-quarter totals per rep, kept live by
// the change feed. One instance serves one subscription lifecycle:
// Initialize brings it up, Dispose tears it down, and after a feed drop the
// owner builds a fresh instance instead of reinitializing this one.
//
// Initialize subscribes to the feed before running the bulk read, so deals
// committed during the read queue on the subscription channel and are
// applied once the baseline is in place. Events are never applied before
// the baseline. Redelivered events are applied as-is; the totals may
// overcount until the next resync, which rebuilds them from the store.
//
// All totals live in a single goroutine. Readers get an immutable snapshot
// through an atomic pointer, so Snapshot never blocks the event loop.
type DashboardView struct {
	dealRepo    domain.DealRepository
	profileRepo domain.ProfileRepository
	subscriber  domain.DealSubscriber
	metrics     *metrics.ServerMetrics
	logger      *slog.Logger
	location    *time.Location
	onUpdate    func(domain.DashboardSnapshot)

	quarterStart time.Time
	quarterEnd   time.Time

	current      atomic.Pointer[domain.DashboardSnapshot]
	disconnected chan struct{}
	profileCh    chan []domain.UserProfile

	mu          sync.Mutex
	initialized bool
	disposed    bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewDashboardView creates an uninitialized dashboard view. onUpdate, when
// not nil, is invoked from the view's event loop with every published
// snapshot; it must return quickly.
func NewDashboardView(
	dealRepo domain.DealRepository,
	profileRepo domain.ProfileRepository,
	subscriber domain.DealSubscriber,
	m *metrics.ServerMetrics,
	logger *slog.Logger,
	location *time.Location,
	onUpdate func(domain.DashboardSnapshot),
) *DashboardView {
	return &DashboardView{
		dealRepo:     dealRepo,
		profileRepo:  profileRepo,
		subscriber:   subscriber,
		metrics:      m,
		logger:       logger.With("component", "dashboard_view"),
		location:     location,
		onUpdate:     onUpdate,
		disconnected: make(chan struct{}),
		profileCh:    make(chan []domain.UserProfile, 1),
	}
}

// Initialize fixes the quarter window, subscribes to the change feed, loads
// the baseline from the store and starts the event loop. It may be called
// once; a disposed view stays disposed.
func (v *DashboardView) Initialize(ctx context.Context) error {
	v.mu.Lock()
	if v.initialized || v.disposed {
		v.mu.Unlock()
		return fmt.Errorf("%w: view already used", domain.ErrInitialization)
	}
	v.initialized = true
	loopCtx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.mu.Unlock()

	start, end := quarter.Bounds(time.Now().In(v.location))
	v.quarterStart, v.quarterEnd = start, end

	// Subscribe first. Deals committed while the bulk read runs buffer on
	// the subscription channel and are applied after the baseline, so the
	// read-to-subscribe gap cannot lose them.
	events, err := v.subscriber.Subscribe(loopCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: subscribe to change feed: %v", domain.ErrInitialization, err)
	}

	profiles, err := v.profileRepo.List(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: list profiles: %v", domain.ErrInitialization, err)
	}
	deals, err := v.dealRepo.ListBetween(ctx, start, end)
	if err != nil {
		cancel()
		return fmt.Errorf("%w: bulk deal read: %v", domain.ErrInitialization, err)
	}

	names := make(map[uuid.UUID]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}
	totals := make(map[uuid.UUID]int64)
	for _, d := range deals {
		totals[d.RepID] += d.Value
	}

	v.mu.Lock()
	if v.disposed {
		// Disposed while the bulk read was running; discard its result.
		v.mu.Unlock()
		return nil
	}
	v.publish(totals, names, false)
	v.wg.Add(1)
	v.mu.Unlock()

	go v.run(loopCtx, events, totals, names)

	v.logger.Info("dashboard view initialized",
		"quarter", quarter.Label(start), "profiles", len(profiles), "deals", len(deals))
	return nil
}

// Snapshot returns the latest published snapshot. Safe to call from any
// goroutine at any time; before Initialize completes it returns an empty
// stale snapshot.
func (v *DashboardView) Snapshot() domain.DashboardSnapshot {
	if snap := v.current.Load(); snap != nil {
		return *snap
	}
	return domain.DashboardSnapshot{Status: domain.DashboardStale}
}

// Disconnected is closed when the change feed drops. The snapshot is frozen
// and marked stale at that point; the owner resyncs by building and
// initializing a fresh view.
func (v *DashboardView) Disconnected() <-chan struct{} {
	return v.disconnected
}

// Dispose stops the event loop and waits for it to finish. After Dispose
// returns no further snapshots are published and onUpdate is not called
// again. Safe to call more than once.
func (v *DashboardView) Dispose() {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return
	}
	v.disposed = true
	cancel := v.cancel
	v.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	v.wg.Wait()
}

// run owns the totals and names maps exclusively. Every mutation happens
// here, so no lock guards them.
func (v *DashboardView) run(ctx context.Context, events <-chan domain.Deal, totals map[uuid.UUID]int64, names map[uuid.UUID]string) {
	defer v.wg.Done()

	pending := make(map[uuid.UUID]struct{})
	refreshing := false

	for {
		select {
		case <-ctx.Done():
			return

		case deal, ok := <-events:
			if !ok {
				// The feed cannot guarantee continuity anymore. Freeze the
				// totals, mark them stale and signal for a resync;
				// resubscribing in place could skip events silently.
				v.publish(totals, names, true)
				close(v.disconnected)
				v.logger.Warn("snapshot frozen stale", "error", domain.ErrFeedDisconnected)
				return
			}

			if !quarter.Contains(deal.CreatedAt, v.quarterStart, v.quarterEnd) {
				v.metrics.FeedEventsTotal.WithLabelValues("out_of_quarter").Inc()
				continue
			}

			totals[deal.RepID] += deal.Value
			v.metrics.FeedEventsTotal.WithLabelValues("applied").Inc()

			if _, known := names[deal.RepID]; !known {
				// Deal for a rep the baseline never saw. Count it now and
				// withhold the row until a profile refresh names it.
				pending[deal.RepID] = struct{}{}
				if !refreshing {
					refreshing = true
					v.wg.Add(1)
					go v.fetchProfiles(ctx)
				}
			}
			v.publish(totals, names, false)

		case profiles := <-v.profileCh:
			refreshing = false
			resolved := false
			for _, p := range profiles {
				if _, known := names[p.ID]; known {
					continue
				}
				names[p.ID] = p.Name
				if _, waiting := pending[p.ID]; waiting {
					delete(pending, p.ID)
					resolved = true
				}
			}
			if resolved {
				v.publish(totals, names, false)
			}
		}
	}
}

// fetchProfiles reloads the profile list off the event loop and hands the
// result back through profileCh. A nil result just clears the in-flight
// flag; the next deal for an unnamed rep retries.
func (v *DashboardView) fetchProfiles(ctx context.Context) {
	defer v.wg.Done()

	reqCtx, cancelReq := context.WithTimeout(ctx, profileRefreshTimeout)
	defer cancelReq()

	profiles, err := v.profileRepo.List(reqCtx)
	if err != nil {
		v.logger.Warn("profile refresh failed", "error", err)
	}

	select {
	case v.profileCh <- profiles:
	case <-ctx.Done():
	}
}

// publish rebuilds the snapshot from the loop-owned maps and installs it.
// Reps with no positive total, or whose profile has not resolved yet, get
// no row.
func (v *DashboardView) publish(totals map[uuid.UUID]int64, names map[uuid.UUID]string, stale bool) {
	rows := make([]domain.AggregateRow, 0, len(totals))
	for repID, total := range totals {
		if total <= 0 {
			continue
		}
		name, known := names[repID]
		if !known {
			continue
		}
		rows = append(rows, domain.AggregateRow{RepID: repID, RepName: name, TotalValue: total})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalValue != rows[j].TotalValue {
			return rows[i].TotalValue > rows[j].TotalValue
		}
		if rows[i].RepName != rows[j].RepName {
			return rows[i].RepName < rows[j].RepName
		}
		return rows[i].RepID.String() < rows[j].RepID.String()
	})

	status := domain.DashboardLive
	if stale {
		status = domain.DashboardStale
	}

	snap := &domain.DashboardSnapshot{
		QuarterStart: v.quarterStart,
		QuarterEnd:   v.quarterEnd,
		Rows:         rows,
		Status:       status,
		GeneratedAt:  time.Now().UTC(),
	}
	v.current.Store(snap)
	v.metrics.SnapshotRebuilds.Inc()

	if v.onUpdate != nil {
		v.onUpdate(*snap)
	}
}
