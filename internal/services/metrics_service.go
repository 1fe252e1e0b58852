// Package services contains the business logic layer: view/like recording
// and contact submissions.
package services

import (
	"context"
	"fmt"
	log "log/slog"
	"regexp"
	"time"

	apperrors "github.com/axellelanca/portfolio/internal/errors"
	"github.com/axellelanca/portfolio/internal/models"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/axellelanca/portfolio/internal/telemetry"
)

const (
	// DefaultViewWindow is the interval in which repeat views from one visitor count once.
	DefaultViewWindow = 60 * time.Minute

	// DefaultStoreTimeout bounds each operation's store round trips.
	DefaultStoreTimeout = 5 * time.Second

	// UnknownVisitor is the visitor key used when no address header is present.
	// Every such client shares one dedup bucket per slug.
	UnknownVisitor = "unknown"

	// AlreadyLikedMessage accompanies a duplicate like.
	AlreadyLikedMessage = "You have already liked this project"

	maxSlugLength       = 128
	maxVisitorKeyLength = 255
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// ViewResult is the outcome of RecordView.
type ViewResult struct {
	Views       int64
	RateLimited bool
}

// LikeResult is the outcome of RecordLike.
type LikeResult struct {
	Likes        int64
	AlreadyLiked bool
	Message      string
}

// MetricsService decides, per request, whether an interaction is accepted
// or a duplicate, and serves the per-slug counters. It keeps no in-process
// state: every dedup decision is taken against the store.
type MetricsService struct {
	interactions repository.InteractionRepository
	metrics      repository.MetricRepository
	viewWindow   time.Duration
	timeout      time.Duration
	now          func() time.Time
}

// Option configures a MetricsService.
type Option func(*MetricsService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MetricsService) { s.now = now }
}

// WithViewWindow overrides DefaultViewWindow.
func WithViewWindow(d time.Duration) Option {
	return func(s *MetricsService) {
		if d > 0 {
			s.viewWindow = d
		}
	}
}

// WithStoreTimeout overrides DefaultStoreTimeout.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *MetricsService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewMetricsService creates and returns a new instance of MetricsService.
func NewMetricsService(interactions repository.InteractionRepository, metrics repository.MetricRepository, opts ...Option) *MetricsService {
	s := &MetricsService{
		interactions: interactions,
		metrics:      metrics,
		viewWindow:   DefaultViewWindow,
		timeout:      DefaultStoreTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateSlug rejects empty, overlong or non URL-safe slugs.
func ValidateSlug(slug string) error {
	if slug == "" || len(slug) > maxSlugLength || !slugPattern.MatchString(slug) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidSlug, slug)
	}
	return nil
}

// NormalizeVisitorKey maps an empty key to UnknownVisitor and caps its length.
func NormalizeVisitorKey(visitorKey string) string {
	if visitorKey == "" {
		return UnknownVisitor
	}
	if len(visitorKey) > maxVisitorKeyLength {
		return visitorKey[:maxVisitorKeyLength]
	}
	return visitorKey
}

// RecordView counts a view unless the visitor already viewed slug within the
// view window, in which case nothing is written and RateLimited is set.
func (s *MetricsService) RecordView(ctx context.Context, visitorKey, slug string) (ViewResult, error) {
	const op = "record_view"
	if err := ValidateSlug(slug); err != nil {
		return ViewResult{}, err
	}
	visitorKey = NormalizeVisitorKey(visitorKey)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer observe(op, time.Now())

	now := s.now().UTC()

	latest, err := s.interactions.LatestInteraction(ctx, visitorKey, slug, models.KindView)
	if err != nil {
		return ViewResult{}, s.fail(ctx, op, slug, models.KindView, err)
	}

	if latest != nil && latest.OccurredAt.After(now.Add(-s.viewWindow)) {
		metric, err := s.metrics.FindBySlug(ctx, slug)
		if err != nil {
			return ViewResult{}, s.fail(ctx, op, slug, models.KindView, err)
		}
		telemetry.InteractionsTotal.WithLabelValues(string(models.KindView), telemetry.OutcomeDuplicate).Inc()
		log.DebugContext(ctx, "View rate limited", "slug", slug, "last_view", latest.OccurredAt)
		return ViewResult{Views: metric.Counts().Views, RateLimited: true}, nil
	}

	metric, _, err := s.metrics.RecordInteraction(ctx, models.NewInteraction(visitorKey, slug, models.KindView, now))
	if err != nil {
		return ViewResult{}, s.fail(ctx, op, slug, models.KindView, err)
	}

	telemetry.InteractionsTotal.WithLabelValues(string(models.KindView), telemetry.OutcomeAccepted).Inc()
	return ViewResult{Views: metric.ViewCount}, nil
}

// RecordLike credits at most one like per visitor and slug, ever. A
// duplicate, including a concurrent request that lost the race on the
// store's unique index, answers AlreadyLiked with the current count.
func (s *MetricsService) RecordLike(ctx context.Context, visitorKey, slug string) (LikeResult, error) {
	const op = "record_like"
	if err := ValidateSlug(slug); err != nil {
		return LikeResult{}, err
	}
	visitorKey = NormalizeVisitorKey(visitorKey)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer observe(op, time.Now())

	liked, err := s.interactions.HasInteraction(ctx, visitorKey, slug, models.KindLike)
	if err != nil {
		return LikeResult{}, s.fail(ctx, op, slug, models.KindLike, err)
	}

	if liked {
		metric, err := s.metrics.FindBySlug(ctx, slug)
		if err != nil {
			return LikeResult{}, s.fail(ctx, op, slug, models.KindLike, err)
		}
		return s.alreadyLiked(metric.Counts().Likes), nil
	}

	metric, accepted, err := s.metrics.RecordInteraction(ctx, models.NewInteraction(visitorKey, slug, models.KindLike, s.now()))
	if err != nil {
		return LikeResult{}, s.fail(ctx, op, slug, models.KindLike, err)
	}
	if !accepted {
		log.DebugContext(ctx, "Concurrent duplicate like rejected by store", "slug", slug)
		return s.alreadyLiked(metric.LikeCount), nil
	}

	telemetry.InteractionsTotal.WithLabelValues(string(models.KindLike), telemetry.OutcomeAccepted).Inc()
	return LikeResult{Likes: metric.LikeCount}, nil
}

// GetMetrics returns the counters of slug; an unknown slug yields zeros.
func (s *MetricsService) GetMetrics(ctx context.Context, slug string) (models.Counts, error) {
	const op = "get_metrics"
	if err := ValidateSlug(slug); err != nil {
		return models.Counts{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer observe(op, time.Now())

	metric, err := s.metrics.FindBySlug(ctx, slug)
	if err != nil {
		return models.Counts{}, s.fail(ctx, op, slug, "", err)
	}
	return metric.Counts(), nil
}

// HasLiked reports whether visitorKey already liked slug.
func (s *MetricsService) HasLiked(ctx context.Context, visitorKey, slug string) (bool, error) {
	const op = "has_liked"
	if err := ValidateSlug(slug); err != nil {
		return false, err
	}
	visitorKey = NormalizeVisitorKey(visitorKey)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer observe(op, time.Now())

	liked, err := s.interactions.HasInteraction(ctx, visitorKey, slug, models.KindLike)
	if err != nil {
		return false, s.fail(ctx, op, slug, "", err)
	}
	return liked, nil
}

// AllMetrics returns every aggregate keyed by slug.
func (s *MetricsService) AllMetrics(ctx context.Context) (map[string]models.Counts, error) {
	const op = "all_metrics"

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	defer observe(op, time.Now())

	metrics, err := s.metrics.ListMetrics(ctx)
	if err != nil {
		return nil, s.fail(ctx, op, "", "", err)
	}

	out := make(map[string]models.Counts, len(metrics))
	for i := range metrics {
		out[metrics[i].SubjectSlug] = metrics[i].Counts()
	}
	return out, nil
}

func (s *MetricsService) alreadyLiked(likes int64) LikeResult {
	telemetry.InteractionsTotal.WithLabelValues(string(models.KindLike), telemetry.OutcomeDuplicate).Inc()
	return LikeResult{Likes: likes, AlreadyLiked: true, Message: AlreadyLikedMessage}
}

// fail logs the storage cause and hides it behind a StorageError.
func (s *MetricsService) fail(ctx context.Context, op, slug string, kind models.InteractionKind, err error) error {
	log.ErrorContext(ctx, "Metrics store operation failed", "op", op, "slug", slug, "err", err)
	if kind != "" {
		telemetry.InteractionsTotal.WithLabelValues(string(kind), telemetry.OutcomeError).Inc()
	}
	return &apperrors.StorageError{Op: op, Slug: slug, Err: err}
}

func observe(op string, start time.Time) {
	telemetry.StoreDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
