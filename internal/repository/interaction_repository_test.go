package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/axellelanca/portfolio/internal/database/dbtest"
	"github.com/axellelanca/portfolio/internal/models"
	"github.com/axellelanca/portfolio/internal/repository"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLatestInteraction(t *testing.T) {
	db := dbtest.Open(t)
	metrics := repository.NewMetricRepository(db)
	interactions := repository.NewInteractionRepository(db)
	ctx := context.Background()

	latest, err := interactions.LatestInteraction(ctx, "1.2.3.4", "p", models.KindView)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(2 * time.Hour)
	for _, at := range []time.Time{first, second} {
		_, _, err := metrics.RecordInteraction(ctx, models.NewInteraction("1.2.3.4", "p", models.KindView, at))
		require.NoError(t, err)
	}

	latest, err = interactions.LatestInteraction(ctx, "1.2.3.4", "p", models.KindView)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.True(t, latest.OccurredAt.Equal(second), "got %v", latest.OccurredAt)
}

func TestHasInteraction(t *testing.T) {
	db := dbtest.Open(t)
	metrics := repository.NewMetricRepository(db)
	interactions := repository.NewInteractionRepository(db)
	ctx := context.Background()

	_, _, err := metrics.RecordInteraction(ctx, models.NewInteraction("1.2.3.4", "p", models.KindView, time.Now()))
	require.NoError(t, err)

	liked, err := interactions.HasInteraction(ctx, "1.2.3.4", "p", models.KindLike)
	require.NoError(t, err)
	assert.False(t, liked)

	_, _, err = metrics.RecordInteraction(ctx, models.NewInteraction("1.2.3.4", "p", models.KindLike, time.Now()))
	require.NoError(t, err)

	liked, err = interactions.HasInteraction(ctx, "1.2.3.4", "p", models.KindLike)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestSnapshot_TalliesLogBySlugAndKind(t *testing.T) {
	db := dbtest.Open(t)
	metrics := repository.NewMetricRepository(db)
	ctx := context.Background()

	record := func(visitor, slug string, kind models.InteractionKind) {
		_, _, err := metrics.RecordInteraction(ctx, models.NewInteraction(visitor, slug, kind, time.Now()))
		require.NoError(t, err)
	}
	record("a", "alpha", models.KindView)
	record("b", "alpha", models.KindView)
	record("a", "alpha", models.KindLike)
	record("a", "beta", models.KindView)

	snapshot, err := metrics.Snapshot(ctx)
	require.NoError(t, err)

	got := map[string]int64{}
	for _, tl := range snapshot.Tallies {
		got[tl.SubjectSlug+"/"+string(tl.Kind)] = tl.Total
	}
	assert.Equal(t, map[string]int64{
		"alpha/VIEW": 2,
		"alpha/LIKE": 1,
		"beta/VIEW":  1,
	}, got)

	require.Len(t, snapshot.Metrics, 2)
	assert.Equal(t, "alpha", snapshot.Metrics[0].SubjectSlug)
	assert.Equal(t, models.Counts{Views: 2, Likes: 1}, snapshot.Metrics[0].Counts())
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, repository.IsUniqueViolation(nil))
	assert.False(t, repository.IsUniqueViolation(errors.New("disk I/O error")))
	assert.True(t, repository.IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, repository.IsUniqueViolation(&mysql.MySQLError{Number: 1062}))
	assert.False(t, repository.IsUniqueViolation(&mysql.MySQLError{Number: 1045}))
	assert.True(t, repository.IsUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: interactions.visitor_key (2067)")))
}
