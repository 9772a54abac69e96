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

func Test_MessageRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create and get message", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			alice := createTestUser(t, tx, "alice")
			bob := createTestUser(t, tx, "bob")
			r := MessageRepo{DB: tx}

			created, err := r.CreateMessage(t.Context(), models.Message{
				Title:      "Found",
				Content:    "I think I saw your dog",
				SenderID:   alice.ID,
				ReceiverID: bob.ID,
			})
			require.NoError(t, err)
			assert.True(t, created.SenderActive)
			assert.True(t, created.ReceiverActive)
			assert.WithinDuration(t, time.Now(), created.SentAt, time.Second)

			got, err := r.GetMessage(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created, got)

			_, err = r.GetMessage(t.Context(), 999999)
			assert.ErrorIs(t, err, apperrors.ErrMessageNotFound)
		})
	})

	t.Run("list and hide", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			alice := createTestUser(t, tx, "alice")
			bob := createTestUser(t, tx, "bob")
			r := MessageRepo{DB: tx}

			first, err := r.CreateMessage(t.Context(), models.Message{Content: "one", SenderID: alice.ID, ReceiverID: bob.ID, SentAt: mustParseTime("2024-05-10 08:00:00Z")})
			require.NoError(t, err)
			second, err := r.CreateMessage(t.Context(), models.Message{Content: "two", SenderID: bob.ID, ReceiverID: alice.ID, SentAt: mustParseTime("2024-05-10 09:00:00Z")})
			require.NoError(t, err)

			require.NoError(t, r.HideMessage(t.Context(), first.ID, models.HideReceived))

			ids := func(filter models.MessageFilter) []int64 {
				messages, err := r.ListMessages(t.Context(), filter)
				require.NoError(t, err)

				var ids []int64
				for _, m := range messages {
					ids = append(ids, m.ID)
				}
				return ids
			}

			assert.Equal(t, []int64{first.ID, second.ID}, ids(models.MessageFilter{}), "admin listing shows hidden messages")
			assert.Equal(t, []int64{first.ID}, ids(models.MessageFilter{SenderID: alice.ID, Visible: true}), "sender still sees it")
			assert.Nil(t, ids(models.MessageFilter{ReceiverID: bob.ID, Visible: true}), "receiver hid it")
			assert.Equal(t, []int64{first.ID}, ids(models.MessageFilter{ReceiverID: bob.ID}))
			assert.Equal(t, []int64{second.ID}, ids(models.MessageFilter{ReceiverID: alice.ID, Visible: true}))
		})
	})

	t.Run("hide errors", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := MessageRepo{DB: tx}

			assert.ErrorIs(t, r.HideMessage(t.Context(), 999999, models.HideSent), apperrors.ErrMessageNotFound)
			assert.ErrorIs(t, r.HideMessage(t.Context(), 1, "everybody"), apperrors.ErrInvalidInput)
		})
	})
}
