package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/axellelanca/portfolio/internal/database/dbtest"
	"github.com/axellelanca/portfolio/internal/models"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordInteraction_CreatesAndIncrementsAggregate(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewMetricRepository(db)
	ctx := context.Background()
	now := time.Now()

	metric, accepted, err := repo.RecordInteraction(ctx, models.NewInteraction("1.2.3.4", "my-project", models.KindView, now))
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, int64(1), metric.ViewCount)
	assert.Equal(t, int64(0), metric.LikeCount)

	metric, accepted, err = repo.RecordInteraction(ctx, models.NewInteraction("5.6.7.8", "my-project", models.KindView, now))
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, int64(2), metric.ViewCount)

	metric, accepted, err = repo.RecordInteraction(ctx, models.NewInteraction("1.2.3.4", "my-project", models.KindLike, now))
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, int64(2), metric.ViewCount)
	assert.Equal(t, int64(1), metric.LikeCount)
}

func TestRecordInteraction_ViewsAreNotUnique(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewMetricRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, accepted, err := repo.RecordInteraction(ctx, models.NewInteraction("1.2.3.4", "p", models.KindView, time.Now()))
		require.NoError(t, err)
		assert.True(t, accepted)
	}

	metric, err := repo.FindBySlug(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, int64(3), metric.ViewCount)
}

func TestRecordInteraction_DuplicateLikeRejectedByStore(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewMetricRepository(db)
	ctx := context.Background()

	_, accepted, err := repo.RecordInteraction(ctx, models.NewInteraction("1.2.3.4", "p", models.KindLike, time.Now()))
	require.NoError(t, err)
	require.True(t, accepted)

	metric, accepted, err := repo.RecordInteraction(ctx, models.NewInteraction("1.2.3.4", "p", models.KindLike, time.Now()))
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, int64(1), metric.LikeCount)

	var rows int64
	require.NoError(t, db.Model(&models.Interaction{}).Where("kind = ?", models.KindLike).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}

func TestFindBySlug_Unknown(t *testing.T) {
	repo := repository.NewMetricRepository(dbtest.Open(t))

	metric, err := repo.FindBySlug(context.Background(), "never-viewed-project")
	require.NoError(t, err)
	assert.Nil(t, metric)
	assert.Equal(t, models.Counts{}, metric.Counts())
}

func TestRepairFromLog(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewMetricRepository(db)
	ctx := context.Background()

	for _, i := range []*models.Interaction{
		models.NewInteraction("a", "p", models.KindView, time.Now()),
		models.NewInteraction("b", "p", models.KindView, time.Now()),
		models.NewInteraction("a", "p", models.KindLike, time.Now()),
	} {
		_, _, err := repo.RecordInteraction(ctx, i)
		require.NoError(t, err)
	}
	require.NoError(t, db.Save(&models.Metric{SubjectSlug: "p", ViewCount: 7, LikeCount: 9}).Error)
	require.NoError(t, db.Save(&models.Metric{SubjectSlug: "seeded", ViewCount: 42, LikeCount: 8}).Error)

	metric, err := repo.RepairFromLog(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, models.Counts{Views: 2, Likes: 1}, metric.Counts())

	metric, err = repo.RepairFromLog(ctx, "seeded")
	require.NoError(t, err)
	assert.Equal(t, models.Counts{}, metric.Counts())
}

func TestRepairFromLog_RecreatesMissingAggregate(t *testing.T) {
	db := dbtest.Open(t)
	repo := repository.NewMetricRepository(db)
	ctx := context.Background()

	_, _, err := repo.RecordInteraction(ctx, models.NewInteraction("a", "p", models.KindLike, time.Now()))
	require.NoError(t, err)
	require.NoError(t, db.Where("subject_slug = ?", "p").Delete(&models.Metric{}).Error)

	metric, err := repo.RepairFromLog(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, models.Counts{Likes: 1}, metric.Counts())
}

func TestRecordInteraction_RejectsUnknownKind(t *testing.T) {
	repo := repository.NewMetricRepository(dbtest.Open(t))
	ctx := context.Background()

	_, _, err := repo.RecordInteraction(ctx, models.NewInteraction("a", "p", models.InteractionKind("SHARE"), time.Now()))
	assert.Error(t, err)

	snapshot, err := repo.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Tallies)
	assert.Empty(t, snapshot.Metrics)
}

func TestRecordInteraction_CanceledContext(t *testing.T) {
	repo := repository.NewMetricRepository(dbtest.Open(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := repo.RecordInteraction(ctx, models.NewInteraction("1.2.3.4", "p", models.KindView, time.Now()))
	assert.Error(t, err)
}
