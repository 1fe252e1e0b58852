package monitor

import (
	"context"
	"fmt"
	log "log/slog"
	"sort"
	"sync"

	apperrors "github.com/axellelanca/portfolio/internal/errors"
	"github.com/axellelanca/portfolio/internal/models"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/axellelanca/portfolio/internal/telemetry"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// SlugSet tells whether a slug belongs to the content catalog.
type SlugSet interface {
	Has(slug string) bool
}

// Report summarises one audit run.
type Report struct {
	Checked  int
	Drifts   []apperrors.ErrAggregateDrift
	Repaired int
	Orphans  []string // aggregates whose slug is not in the catalog
}

// ConsistencyMonitor periodically checks that every aggregate row equals the
// number of logged interactions of its slug, and optionally repairs drift
// from the log. The log is the source of truth: both sides are read in one
// snapshot, and repairs are recomputed by the store from the log at write
// time, so interactions accepted while an audit runs are kept.
type ConsistencyMonitor struct {
	metrics repository.MetricRepository
	catalog SlugSet
	workers int
	repair  bool

	engine  *cron.Cron
	initial sync.WaitGroup

	mu          sync.Mutex
	knownDrifts map[string]bool // slug -> drifted at last run
}

// NewConsistencyMonitor creates a monitor. catalog may be nil.
func NewConsistencyMonitor(metrics repository.MetricRepository, catalog SlugSet, workers int, repair bool) *ConsistencyMonitor {
	if workers <= 0 {
		workers = 1
	}
	return &ConsistencyMonitor{
		metrics:     metrics,
		catalog:     catalog,
		workers:     workers,
		repair:      repair,
		knownDrifts: make(map[string]bool),
	}
}

// Start schedules Audit with the given cron spec and runs a first audit
// immediately. It returns once the scheduler is running.
func (m *ConsistencyMonitor) Start(ctx context.Context, schedule string) error {
	m.engine = cron.New()
	if _, err := m.engine.AddFunc(schedule, func() { m.run(ctx) }); err != nil {
		return fmt.Errorf("invalid monitor schedule %q: %w", schedule, err)
	}

	log.Info("[MONITOR] Starting consistency monitor", "schedule", schedule, "workers", m.workers, "repair", m.repair)
	m.initial.Add(1)
	go func() {
		defer m.initial.Done()
		m.run(ctx)
	}()
	m.engine.Start()
	return nil
}

// Stop stops the scheduler and waits for a running audit to finish.
func (m *ConsistencyMonitor) Stop() {
	if m.engine == nil {
		return
	}
	<-m.engine.Stop().Done()
	m.initial.Wait()
	log.Info("[MONITOR] Consistency monitor stopped")
}

func (m *ConsistencyMonitor) run(ctx context.Context) {
	if _, err := m.Audit(ctx); err != nil {
		log.Error("[MONITOR] Audit failed", "err", err)
	}
}

// Audit compares every aggregate with the interaction log.
func (m *ConsistencyMonitor) Audit(ctx context.Context) (*Report, error) {
	snapshot, err := m.metrics.Snapshot(ctx)
	if err != nil {
		telemetry.AuditRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	aggregates := snapshot.Metrics

	fromLog := make(map[string]models.Counts)
	for _, t := range snapshot.Tallies {
		c := fromLog[t.SubjectSlug]
		switch t.Kind {
		case models.KindView:
			c.Views = t.Total
		case models.KindLike:
			c.Likes = t.Total
		}
		fromLog[t.SubjectSlug] = c
	}

	fromAggregate := make(map[string]models.Counts, len(aggregates))
	for i := range aggregates {
		fromAggregate[aggregates[i].SubjectSlug] = aggregates[i].Counts()
	}

	slugs := make([]string, 0, len(fromLog)+len(fromAggregate))
	for s := range fromLog {
		slugs = append(slugs, s)
	}
	for s := range fromAggregate {
		if _, ok := fromLog[s]; !ok {
			slugs = append(slugs, s)
		}
	}
	sort.Strings(slugs)

	report := &Report{Checked: len(slugs)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for _, slug := range slugs {
		g.Go(func() error {
			drifts, repaired, err := m.check(gctx, slug, fromAggregate[slug], fromLog[slug])
			if err != nil {
				return err
			}
			mu.Lock()
			report.Drifts = append(report.Drifts, drifts...)
			if repaired {
				report.Repaired++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		telemetry.AuditRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if m.catalog != nil {
		for slug := range fromAggregate {
			if !m.catalog.Has(slug) {
				report.Orphans = append(report.Orphans, slug)
			}
		}
		sort.Strings(report.Orphans)
		if len(report.Orphans) > 0 {
			log.Info("[MONITOR] Metrics recorded for slugs absent from the catalog", "slugs", report.Orphans)
		}
	}

	sort.Slice(report.Drifts, func(i, j int) bool {
		if report.Drifts[i].Slug != report.Drifts[j].Slug {
			return report.Drifts[i].Slug < report.Drifts[j].Slug
		}
		return report.Drifts[i].Kind < report.Drifts[j].Kind
	})

	telemetry.AuditRunsTotal.WithLabelValues("ok").Inc()
	log.Info("[MONITOR] Consistency audit completed", "checked", report.Checked, "drifts", len(report.Drifts), "repaired", report.Repaired)
	return report, nil
}

// check compares one slug and logs state transitions, the way a health
// monitor reports a link going down or back up.
func (m *ConsistencyMonitor) check(ctx context.Context, slug string, aggregate, logged models.Counts) ([]apperrors.ErrAggregateDrift, bool, error) {
	var drifts []apperrors.ErrAggregateDrift
	if aggregate.Views != logged.Views {
		drifts = append(drifts, apperrors.ErrAggregateDrift{Slug: slug, Kind: string(models.KindView), AggregateSays: aggregate.Views, LogSays: logged.Views})
	}
	if aggregate.Likes != logged.Likes {
		drifts = append(drifts, apperrors.ErrAggregateDrift{Slug: slug, Kind: string(models.KindLike), AggregateSays: aggregate.Likes, LogSays: logged.Likes})
	}

	m.mu.Lock()
	wasDrifted := m.knownDrifts[slug]
	m.knownDrifts[slug] = len(drifts) > 0
	m.mu.Unlock()

	for _, d := range drifts {
		telemetry.AuditDriftTotal.WithLabelValues(d.Kind).Inc()
		log.Warn("[MONITOR] Aggregate drift", "slug", slug, "kind", d.Kind, "aggregate", d.AggregateSays, "log", d.LogSays)
	}
	if wasDrifted && len(drifts) == 0 {
		log.Info("[NOTIFICATION] Aggregate back in sync", "slug", slug)
	}

	if len(drifts) == 0 || !m.repair {
		return drifts, false, nil
	}

	repaired, err := m.metrics.RepairFromLog(ctx, slug)
	if err != nil {
		return nil, false, err
	}
	log.Info("[MONITOR] Aggregate repaired from log", "slug", slug, "views", repaired.ViewCount, "likes", repaired.LikeCount)
	return drifts, true, nil
}
