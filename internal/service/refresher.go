package service

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/smartfarmer/backend/internal/domain"
	"github.com/smartfarmer/backend/internal/observability"
)

// DashboardSource produces dashboard snapshots.
type DashboardSource interface {
	FetchDashboardSnapshot(ctx context.Context, session, district string, lang domain.Language) (domain.Envelope[domain.DashboardSnapshot], error)
}

// Refresher keeps a periodically refreshed dashboard per district.
type Refresher struct {
	source   DashboardSource
	interval time.Duration
	lang     domain.Language
	clock    clockwork.Clock
	metrics  *observability.Metrics
	logger   *zap.Logger

	mu     sync.Mutex
	tasks  map[string]context.CancelFunc
	latest map[string]domain.Envelope[domain.DashboardSnapshot]
	wg     sync.WaitGroup
}

// NewRefresher creates a refresher that fetches every interval.
func NewRefresher(source DashboardSource, interval time.Duration, lang domain.Language, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) *Refresher {
	return &Refresher{
		source:   source,
		interval: interval,
		lang:     lang,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
		tasks:    make(map[string]context.CancelFunc),
		latest:   make(map[string]domain.Envelope[domain.DashboardSnapshot]),
	}
}

// Start refreshes district now and then on every tick until ctx ends or Stop
// is called. Starting a district again replaces its running task.
func (r *Refresher) Start(ctx context.Context, district string) {
	district = canonicalDistrict(district)
	ctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	if prev, ok := r.tasks[district]; ok {
		prev()
	}
	r.tasks[district] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx, district)
	}()
}

func (r *Refresher) run(ctx context.Context, district string) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx, district)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.refresh(ctx, district)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context, district string) {
	env, err := r.source.FetchDashboardSnapshot(ctx, "refresh:"+district, district, r.lang)
	if err != nil {
		r.logger.Debug("dashboard refresh skipped", zap.String("district", district), zap.Error(err))
		return
	}
	if r.metrics != nil {
		r.metrics.RefreshRuns.Inc()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// A replaced or stopped task must not overwrite newer state.
	if ctx.Err() != nil {
		return
	}
	r.latest[district] = env
}

// Latest returns the most recent snapshot for district.
func (r *Refresher) Latest(district string) (domain.Envelope[domain.DashboardSnapshot], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, ok := r.latest[canonicalDistrict(district)]
	return env, ok
}

// Stop cancels every task and waits for them to exit.
func (r *Refresher) Stop() {
	r.mu.Lock()
	for district, cancel := range r.tasks {
		cancel()
		delete(r.tasks, district)
	}
	r.mu.Unlock()
	r.wg.Wait()
}

func canonicalDistrict(d string) string {
	if loc, ok := domain.LookupLocation(d); ok {
		return loc.District
	}
	return d
}
