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

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func createTestUser(t *testing.T, db DBTX, username string) models.User {
	t.Helper()

	r := UserRepo{DB: db}
	u, err := r.CreateUser(t.Context(), models.User{
		Name:     "Test " + username,
		Username: username,
		Password: "pwd",
		Role:     models.RoleUser,
		Mail:     username + "@example.com",
		Active:   true,
	})
	require.NoError(t, err)

	return u
}

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			user, err := r.CreateUser(t.Context(), models.User{
				Name:       "Alice",
				Username:   "alice",
				Password:   "pwd",
				Role:       models.RoleUser,
				Mail:       "alice@example.com",
				Population: "Barcelona",
				Active:     true,
			})

			require.NoError(t, err)
			assert.NotZero(t, user.ID)
			assert.Equal(t, "alice", user.Username)
			assert.Equal(t, "pwd", user.Password)
			assert.Equal(t, "Barcelona", user.Population)
			assert.True(t, user.Active)
			assert.False(t, user.Session.HasToken(), "new user has no session")
			assert.WithinDuration(t, time.Now(), user.CreatedAt, time.Second, "CreatedAt should be recent")
		})
	})

	t.Run("create user duplicates", func(t *testing.T) {
		tests := []struct {
			name    string
			user    models.User
			wantErr error
		}{
			{"same username", models.User{Username: "dup", Password: "pwd", Mail: "other@example.com"}, apperrors.ErrUserAlreadyExists},
			{"same mail", models.User{Username: "other", Password: "pwd", Mail: "dup@example.com"}, apperrors.ErrMailAlreadyExists},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
					createTestUser(t, tx, "dup")
					r := UserRepo{DB: tx}

					_, err := r.CreateUser(t.Context(), tt.user)

					require.ErrorIs(t, err, tt.wantErr)
				})
			})
		}
	})

	t.Run("get user by id ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := createTestUser(t, tx, "findbyid")

			got, err := r.GetUserByID(t.Context(), created.ID)

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, created.Username, got.Username)
			assert.Equal(t, created.Password, got.Password)
			assert.Equal(t, created.CreatedAt, got.CreatedAt)
		})
	})

	t.Run("get user not found", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}

			_, err := r.GetUserByID(t.Context(), 999999)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound, "should return well known error")

			_, err = r.GetUserByUsername(t.Context(), "nonexistentuser")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = r.GetUserByToken(t.Context(), "unknown")
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = r.GetUserByAlert(t.Context(), 999999)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("get user by username ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := createTestUser(t, tx, "findbyusername")

			got, err := r.GetUserByUsername(t.Context(), created.Username)

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
		})
	})

	t.Run("get user by token carries the session", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			created := createTestUser(t, tx, "bytoken")
			expiration := mustParseTime("2024-05-10 08:00:00Z")
			err := (&SessionRepo{DB: tx}).WriteTokenFields(t.Context(), models.Session{
				UserID:        created.ID,
				Token:         "token-value",
				Expiration:    expiration,
				SourceAddress: "10.0.0.1",
			})
			require.NoError(t, err)

			got, err := r.GetUserByToken(t.Context(), "token-value")

			require.NoError(t, err)
			assert.Equal(t, created.ID, got.ID)
			assert.Equal(t, "token-value", got.Session.Token)
			assert.Equal(t, created.ID, got.Session.UserID)
			assert.WithinDuration(t, expiration, got.Session.Expiration, time.Microsecond)
			assert.Equal(t, "10.0.0.1", got.Session.SourceAddress)
		})
	})

	t.Run("get user by alert", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			owner := createTestUser(t, tx, "owner")
			alert := createTestAlert(t, tx, owner.ID, "dog")

			got, err := r.GetUserByAlert(t.Context(), alert.ID)

			require.NoError(t, err)
			assert.Equal(t, owner.ID, got.ID)
		})
	})

	t.Run("list users", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			first := createTestUser(t, tx, "first")
			second := createTestUser(t, tx, "second")

			users, err := r.ListUsers(t.Context())

			require.NoError(t, err)
			require.Len(t, users, 2)
			assert.Equal(t, first.ID, users[0].ID)
			assert.Equal(t, second.ID, users[1].ID)
		})
	})

	t.Run("update user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			u := createTestUser(t, tx, "before")
			createTestUser(t, tx, "taken")

			u.Username = "after"
			u.Role = models.RoleAdmin
			updated, err := r.UpdateUser(t.Context(), u)
			require.NoError(t, err)
			assert.Equal(t, "after", updated.Username)
			assert.Equal(t, models.RoleAdmin, updated.Role)
			assert.Equal(t, "pwd", updated.Password, "password is not touched")

			ghost := u
			ghost.ID = 999999
			ghost.Username = "ghost"
			_, err = r.UpdateUser(t.Context(), ghost)
			assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

			// Unique violation aborts the transaction, keep it last
			u.Username = "taken"
			_, err = r.UpdateUser(t.Context(), u)
			assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("set password and active", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := UserRepo{DB: tx}
			u := createTestUser(t, tx, "flags")

			require.NoError(t, r.SetPassword(t.Context(), u.ID, "new"))
			require.NoError(t, r.SetActive(t.Context(), u.ID, false))

			got, err := r.GetUserByID(t.Context(), u.ID)
			require.NoError(t, err)
			assert.Equal(t, "new", got.Password)
			assert.False(t, got.Active)

			assert.ErrorIs(t, r.SetActive(t.Context(), 999999, false), apperrors.ErrUserNotFound)
		})
	})
}
