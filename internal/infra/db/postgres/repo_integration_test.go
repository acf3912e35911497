//go:build integration
// +build integration

// Run with: go test -tags=integration ./internal/infra/db/postgres/...

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bryanwahyu/clarify/internal/domain/conversation"
	domain "github.com/bryanwahyu/clarify/internal/domain/homework"
)

func setupPostgres(t *testing.T, ctx context.Context) string {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("clarify_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestRepositories(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}
	ctx := context.Background()
	dsn := setupPostgres(t, ctx)

	for _, driver := range []string{"postgres", "pgx"} {
		t.Run(driver, func(t *testing.T) {
			db, err := Connect(ctx, driver, dsn)
			require.NoError(t, err)
			defer db.Close()
			require.NoError(t, Migrate(ctx, db))
			_, err = db.ExecContext(ctx, "TRUNCATE homework CASCADE")
			require.NoError(t, err)

			records := NewHomeworkRepository(db)
			convs := NewConversationRepository(db)

			first, err := records.Create(ctx, &domain.Record{
				OwnerID: "u1", OriginalText: "2x + 5 = 13", TranslatedText: "2x + 5 = 13",
				Explanation: "Resta 5.", Subject: "Math", SourceLanguage: "English",
				TargetLanguage: domain.LanguageSpanish, Timestamp: 100,
			})
			require.NoError(t, err)
			second, err := records.Create(ctx, &domain.Record{OwnerID: "u1", Subject: "History", Timestamp: 200})
			require.NoError(t, err)

			list, err := records.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, second, list[0].ID)

			url := "https://cdn.test/a.mp3"
			require.NoError(t, records.Update(ctx, first, domain.Patch{AudioURL: &url}))
			got, err := records.Get(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, url, got.AudioURL)
			assert.Equal(t, domain.LanguageSpanish, got.TargetLanguage)

			assert.ErrorIs(t, records.Update(ctx, "missing", domain.Patch{AudioURL: &url}), domain.ErrNotFound)

			convID, err := convs.Create(ctx, string(first), "u1", 101)
			require.NoError(t, err)
			require.NoError(t, convs.Append(ctx, convID, conversation.Turn{Role: conversation.RoleUser, Text: "why?", Timestamp: 102}))
			require.NoError(t, convs.Append(ctx, convID, conversation.Turn{Role: conversation.RoleAssistant, Text: "because", Timestamp: 103}))
			assert.ErrorIs(t, convs.Append(ctx, "nope", conversation.Turn{Role: conversation.RoleUser}), conversation.ErrNotFound)

			c, err := convs.GetByRecord(ctx, string(first))
			require.NoError(t, err)
			require.Len(t, c.Messages, 2)
			assert.Equal(t, conversation.RoleUser, c.Messages[0].Role)
			assert.Equal(t, "because", c.Messages[1].Text)

			require.NoError(t, records.Delete(ctx, first))
			_, err = records.Get(ctx, first)
			assert.ErrorIs(t, err, domain.ErrNotFound)
			_, err = convs.GetByRecord(ctx, string(first))
			assert.ErrorIs(t, err, conversation.ErrNotFound)

			require.NoError(t, records.DeleteAll(ctx, "u1"))
			list, err = records.List(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}
