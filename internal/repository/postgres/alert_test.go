package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
	"github.com/nkiryanov/petalert/internal/testutil"
)

var (
	barcelona = models.Coordinate{Latitude: decimal.RequireFromString("41.387400"), Longitude: decimal.RequireFromString("2.168600")}
	madrid    = models.Coordinate{Latitude: decimal.RequireFromString("40.416800"), Longitude: decimal.RequireFromString("-3.703800")}
)

func createTestAlert(t *testing.T, db DBTX, ownerID int64, kind string) models.Alert {
	t.Helper()

	r := AlertRepo{DB: db}
	a, err := r.CreateAlert(t.Context(), models.Alert{
		Active:      true,
		UserID:      ownerID,
		Animal:      models.Animal{Kind: kind, Race: "mixed", Sex: "female", ChipNum: "123456789012345"},
		Coordinate:  barcelona,
		Description: models.Description{Title: "Lost " + kind, Phone: "600000000"},
	})
	require.NoError(t, err)

	return a
}

func Test_AlertRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create alert ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			owner := createTestUser(t, tx, "owner")
			lostAt := mustParseTime("2024-05-09 18:30:00Z")
			r := AlertRepo{DB: tx}

			a, err := r.CreateAlert(t.Context(), models.Alert{
				Active:      true,
				UserID:      owner.ID,
				Animal:      models.Animal{Kind: "dog", Name: "Rex", HalfBlood: true, Age: 3},
				Coordinate:  madrid,
				Description: models.Description{Title: "Lost Rex", LostAt: lostAt, Text: "Brown, friendly"},
			})

			require.NoError(t, err)
			assert.NotZero(t, a.ID)
			assert.Equal(t, owner.ID, a.UserID)
			assert.Equal(t, "Rex", a.Animal.Name)
			assert.True(t, a.Animal.HalfBlood)
			assert.True(t, a.Coordinate.Latitude.Equal(madrid.Latitude), "got %s", a.Coordinate.Latitude)
			assert.True(t, a.Coordinate.Longitude.Equal(madrid.Longitude), "got %s", a.Coordinate.Longitude)
			assert.WithinDuration(t, lostAt, a.Description.LostAt, time.Microsecond)
			assert.WithinDuration(t, time.Now(), a.CreatedAt, time.Second, "unset creation date defaults to now")
		})
	})

	t.Run("get alert", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			owner := createTestUser(t, tx, "owner")
			created := createTestAlert(t, tx, owner.ID, "cat")
			r := AlertRepo{DB: tx}

			got, err := r.GetAlert(t.Context(), created.ID)
			require.NoError(t, err)
			assert.Equal(t, created, got)

			_, err = r.GetAlert(t.Context(), 999999)
			assert.ErrorIs(t, err, apperrors.ErrAlertNotFound)
		})
	})

	t.Run("update finish and report", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			owner := createTestUser(t, tx, "owner")
			a := createTestAlert(t, tx, owner.ID, "dog")
			r := AlertRepo{DB: tx}

			a.Animal.Kind = "cat"
			a.Coordinate = madrid
			updated, err := r.UpdateAlert(t.Context(), a)
			require.NoError(t, err)
			assert.Equal(t, "cat", updated.Animal.Kind)

			reported, err := r.ReportAlert(t.Context(), a.ID)
			require.NoError(t, err)
			assert.Equal(t, 1, reported.ReportNumber)

			require.NoError(t, r.FinishAlert(t.Context(), a.ID))
			got, err := r.GetAlert(t.Context(), a.ID)
			require.NoError(t, err)
			assert.False(t, got.Active)

			assert.ErrorIs(t, r.FinishAlert(t.Context(), 999999), apperrors.ErrAlertNotFound)
			_, err = r.ReportAlert(t.Context(), 999999)
			assert.ErrorIs(t, err, apperrors.ErrAlertNotFound)
			_, err = r.UpdateAlert(t.Context(), models.Alert{ID: 999999, Coordinate: madrid, Animal: models.Animal{Kind: "dog"}})
			assert.ErrorIs(t, err, apperrors.ErrAlertNotFound)
		})
	})

	t.Run("list alerts by filter", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			owner := createTestUser(t, tx, "owner")
			dog := createTestAlert(t, tx, owner.ID, "dog")
			cat := createTestAlert(t, tx, owner.ID, "cat")
			r := AlertRepo{DB: tx}
			for range models.ReportThreshold {
				_, err := r.ReportAlert(t.Context(), cat.ID)
				require.NoError(t, err)
			}

			tests := []struct {
				name   string
				filter models.AlertFilter
				want   []int64
			}{
				{"all", models.AlertFilter{}, []int64{dog.ID, cat.ID}},
				{"kind", models.AlertFilter{Kind: "dog"}, []int64{dog.ID}},
				{"race", models.AlertFilter{Kind: "cat", Race: "mixed"}, []int64{cat.ID}},
				{"sex", models.AlertFilter{Kind: "cat", Race: "mixed", Sex: "male"}, nil},
				{"reported", models.AlertFilter{MinReports: models.ReportThreshold}, []int64{cat.ID}},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					alerts, err := r.ListAlerts(t.Context(), tt.filter)
					require.NoError(t, err)

					var ids []int64
					for _, a := range alerts {
						ids = append(ids, a.ID)
					}
					assert.Equal(t, tt.want, ids)
				})
			}
		})
	})

	t.Run("list alerts by distance", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			owner := createTestUser(t, tx, "owner")
			r := AlertRepo{DB: tx}
			far := createTestAlert(t, tx, owner.ID, "dog")

			nearInput := far
			nearInput.Coordinate = madrid
			near, err := r.CreateAlert(t.Context(), nearInput)
			require.NoError(t, err)

			finished := createTestAlert(t, tx, owner.ID, "cat")
			require.NoError(t, r.FinishAlert(t.Context(), finished.ID))

			ranked, err := r.ListAlertsByDistance(t.Context(), madrid.Latitude, madrid.Longitude)

			require.NoError(t, err)
			require.Len(t, ranked, 2, "finished alerts are not ranked")
			assert.Equal(t, near.ID, ranked[0].ID)
			assert.InDelta(t, 0, ranked[0].Distance, 0.001)
			assert.Equal(t, far.ID, ranked[1].ID)
			assert.InDelta(t, 505, ranked[1].Distance, 5, "Madrid to Barcelona")
		})
	})
}
