package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
	"github.com/nkiryanov/petalert/internal/testutil"
)

func Test_SessionRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	issuedAt := mustParseTime("2024-05-10 08:00:00Z")

	stored := func(t *testing.T, tx pgx.Tx, userID int64) models.Session {
		t.Helper()

		u, err := (&UserRepo{DB: tx}).GetUserByID(t.Context(), userID)
		require.NoError(t, err)
		return u.Session
	}

	t.Run("write token fields overwrites the previous session", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := SessionRepo{DB: tx}
			u := createTestUser(t, tx, "writer")

			err := repo.WriteTokenFields(t.Context(), models.Session{UserID: u.ID, Token: "first", Expiration: issuedAt})
			require.NoError(t, err)
			err = repo.WriteTokenFields(t.Context(), models.Session{UserID: u.ID, Token: "second", Expiration: issuedAt.Add(time.Hour), SourceAddress: "10.0.0.2"})
			require.NoError(t, err)

			s := stored(t, tx, u.ID)
			assert.Equal(t, "second", s.Token)
			assert.WithinDuration(t, issuedAt.Add(time.Hour), s.Expiration, time.Microsecond)
			assert.Equal(t, "10.0.0.2", s.SourceAddress)

			tokens, err := repo.ListTokens(t.Context())
			require.NoError(t, err)
			assert.Equal(t, []string{"second"}, tokens, "one live token per user")
		})
	})

	t.Run("touch token moves expiration only for the same token", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := SessionRepo{DB: tx}
			userID := testutil.SeedSession(t, tx, "toucher", "live", issuedAt)

			renewedAt := issuedAt.Add(2 * time.Hour)
			err := repo.TouchToken(t.Context(), models.Session{UserID: userID, Token: "live", Expiration: renewedAt, SourceAddress: "10.0.0.3"})
			require.NoError(t, err)

			err = repo.TouchToken(t.Context(), models.Session{UserID: userID, Token: "stale", Expiration: issuedAt.Add(5 * time.Hour)})
			require.ErrorIs(t, err, apperrors.ErrSessionNotFound)

			s := stored(t, tx, userID)
			assert.Equal(t, "live", s.Token)
			assert.WithinDuration(t, renewedAt, s.Expiration, time.Microsecond)
			assert.Equal(t, "10.0.0.3", s.SourceAddress)
		})
	})

	t.Run("clear token keeps expiration", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := SessionRepo{DB: tx}
			userID := testutil.SeedSession(t, tx, "clearer", "gone", issuedAt)

			require.NoError(t, repo.ClearToken(t.Context(), userID))
			require.ErrorIs(t, repo.ClearToken(t.Context(), userID), apperrors.ErrSessionNotFound, "nothing left to clear")

			s := stored(t, tx, userID)
			assert.False(t, s.HasToken())
			assert.WithinDuration(t, issuedAt, s.Expiration, time.Microsecond)

			err := repo.TouchToken(t.Context(), models.Session{UserID: userID, Token: "gone", Expiration: issuedAt.Add(time.Hour)})
			assert.ErrorIs(t, err, apperrors.ErrSessionNotFound, "cleared session can't be renewed")
		})
	})

	t.Run("clear token of user without session", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := SessionRepo{DB: tx}
			userID := testutil.SeedUser(t, tx, "never")

			err := repo.ClearToken(t.Context(), userID)

			assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
		})
	})

	t.Run("list tokens", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := SessionRepo{DB: tx}
			testutil.SeedSession(t, tx, "a", "ta", issuedAt)
			testutil.SeedSession(t, tx, "b", "tb", issuedAt)
			testutil.SeedSession(t, tx, "c", "", issuedAt)
			testutil.SeedUser(t, tx, "d")

			tokens, err := repo.ListTokens(t.Context())

			require.NoError(t, err)
			assert.Equal(t, []string{"ta", "tb"}, tokens)
		})
	})
}
