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

func TestMessageRepository_ListRecentNewestFirst(t *testing.T) {
	repo := repository.NewMessageRepository(dbtest.Open(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, repo.CreateMessage(ctx, &models.Message{
			ID:        id,
			Name:      "Jane Doe",
			Email:     "jane@example.com",
			Body:      "Hi! I love your portfolio.",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	messages, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m3", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
}
