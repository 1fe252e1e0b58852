package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/axellelanca/portfolio/internal/database/dbtest"
	apperrors "github.com/axellelanca/portfolio/internal/errors"
	"github.com/axellelanca/portfolio/internal/models"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type slugSet map[string]bool

func (s slugSet) Has(slug string) bool { return s[slug] }

func seed(t *testing.T, metrics *repository.GormMetricRepository) {
	t.Helper()
	ctx := context.Background()
	for _, i := range []*models.Interaction{
		models.NewInteraction("a", "alpha", models.KindView, time.Now()),
		models.NewInteraction("b", "alpha", models.KindView, time.Now()),
		models.NewInteraction("a", "alpha", models.KindLike, time.Now()),
		models.NewInteraction("a", "beta", models.KindView, time.Now()),
	} {
		_, _, err := metrics.RecordInteraction(ctx, i)
		require.NoError(t, err)
	}
}

// forceAggregate writes counters directly, as a seed script or a bug would.
func forceAggregate(t *testing.T, db *gorm.DB, slug string, views, likes int64) {
	t.Helper()
	require.NoError(t, db.Save(&models.Metric{SubjectSlug: slug, ViewCount: views, LikeCount: likes}).Error)
}

func logRows(t *testing.T, db *gorm.DB, slug string, kind models.InteractionKind) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Interaction{}).Where("subject_slug = ? AND kind = ?", slug, kind).Count(&n).Error)
	return n
}

func TestAudit_InSync(t *testing.T) {
	db := dbtest.Open(t)
	metrics := repository.NewMetricRepository(db)
	seed(t, metrics)

	m := NewConsistencyMonitor(metrics, slugSet{"alpha": true, "beta": true}, 2, false)
	report, err := m.Audit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	assert.Empty(t, report.Drifts)
	assert.Empty(t, report.Orphans)
}

func TestAudit_DetectsDriftWithoutRepair(t *testing.T) {
	db := dbtest.Open(t)
	metrics := repository.NewMetricRepository(db)
	seed(t, metrics)
	ctx := context.Background()

	forceAggregate(t, db, "alpha", 42, 8)

	m := NewConsistencyMonitor(metrics, nil, 1, false)
	report, err := m.Audit(ctx)
	require.NoError(t, err)

	assert.Equal(t, []apperrors.ErrAggregateDrift{
		{Slug: "alpha", Kind: "LIKE", AggregateSays: 8, LogSays: 1},
		{Slug: "alpha", Kind: "VIEW", AggregateSays: 42, LogSays: 2},
	}, report.Drifts)
	assert.Zero(t, report.Repaired)

	metric, err := metrics.FindBySlug(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, int64(42), metric.ViewCount, "audit without repair must not write")
}

func TestAudit_RepairsFromLog(t *testing.T) {
	db := dbtest.Open(t)
	metrics := repository.NewMetricRepository(db)
	seed(t, metrics)
	ctx := context.Background()

	// An aggregate with no log rows at all, as a seed script would leave.
	forceAggregate(t, db, "portfolio-website", 42, 8)

	m := NewConsistencyMonitor(metrics, slugSet{"alpha": true, "beta": true}, 4, true)
	report, err := m.Audit(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.Repaired)
	assert.Equal(t, []string{"portfolio-website"}, report.Orphans)

	metric, err := metrics.FindBySlug(ctx, "portfolio-website")
	require.NoError(t, err)
	assert.Equal(t, models.Counts{}, metric.Counts())

	report, err = m.Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Drifts)
}

// writeAfterSnapshot records one more like as soon as the audit has read
// its snapshot, like a visitor hitting the live server mid-audit.
type writeAfterSnapshot struct {
	*repository.GormMetricRepository
	t     *testing.T
	extra *models.Interaction
}

func (w writeAfterSnapshot) Snapshot(ctx context.Context) (*repository.AuditSnapshot, error) {
	snapshot, err := w.GormMetricRepository.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	_, accepted, err := w.RecordInteraction(ctx, w.extra)
	require.NoError(w.t, err)
	require.True(w.t, accepted)
	return snapshot, nil
}

func TestAudit_RepairKeepsInteractionsAcceptedDuringAudit(t *testing.T) {
	db := dbtest.Open(t)
	metrics := repository.NewMetricRepository(db)
	ctx := context.Background()

	_, _, err := metrics.RecordInteraction(ctx, models.NewInteraction("a", "p", models.KindLike, time.Now()))
	require.NoError(t, err)
	forceAggregate(t, db, "p", 0, 5)

	store := writeAfterSnapshot{
		GormMetricRepository: metrics,
		t:                    t,
		extra:                models.NewInteraction("b", "p", models.KindLike, time.Now()),
	}
	m := NewConsistencyMonitor(store, nil, 1, true)

	report, err := m.Audit(ctx)
	require.NoError(t, err)
	require.Len(t, report.Drifts, 1)
	assert.Equal(t, int64(1), report.Drifts[0].LogSays)
	assert.Equal(t, 1, report.Repaired)

	metric, err := metrics.FindBySlug(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, int64(2), logRows(t, db, "p", models.KindLike))
	assert.Equal(t, int64(2), metric.LikeCount, "aggregate must equal the log after repair")

	report, err = NewConsistencyMonitor(metrics, nil, 1, false).Audit(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Drifts)
}

func TestAudit_WriteAfterSnapshotIsNotDrift(t *testing.T) {
	db := dbtest.Open(t)
	metrics := repository.NewMetricRepository(db)
	seed(t, metrics)

	store := writeAfterSnapshot{
		GormMetricRepository: metrics,
		t:                    t,
		extra:                models.NewInteraction("c", "alpha", models.KindLike, time.Now()),
	}
	report, err := NewConsistencyMonitor(store, nil, 2, false).Audit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Drifts)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	m := NewConsistencyMonitor(repository.NewMetricRepository(dbtest.Open(t)), nil, 1, false)

	assert.Error(t, m.Start(context.Background(), "every now and then"))
}

func TestStartStop(t *testing.T) {
	m := NewConsistencyMonitor(repository.NewMetricRepository(dbtest.Open(t)), nil, 1, false)

	require.NoError(t, m.Start(context.Background(), "@every 1h"))
	m.Stop()
}
