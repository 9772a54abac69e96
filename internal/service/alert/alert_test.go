package alert

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
	"github.com/nkiryanov/petalert/internal/repository/memory"
)

func coordinate(lat, lon string) models.Coordinate {
	return models.Coordinate{
		Latitude:  decimal.RequireFromString(lat),
		Longitude: decimal.RequireFromString(lon),
	}
}

func newAlert(kind, race, sex string) models.Alert {
	return models.Alert{
		Animal:      models.Animal{Name: "Rex", Kind: kind, Race: race, Sex: sex},
		Coordinate:  coordinate("41.387", "2.170"),
		Description: models.Description{Title: "Lost " + kind, Phone: "600000000"},
	}
}

type fixture struct {
	service *AlertService
	storage *memory.Storage
	owner   models.User
	other   models.User
	admin   models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	storage := memory.NewStorage()
	create := func(username, role string) models.User {
		u, err := storage.User().CreateUser(t.Context(), models.User{Username: username, Mail: username + "@example.com", Role: role, Active: true})
		require.NoError(t, err)
		return u
	}

	return fixture{
		service: NewService(storage),
		storage: storage,
		owner:   create("owner", models.RoleUser),
		other:   create("other", models.RoleUser),
		admin:   create("admin", models.RoleAdmin),
	}
}

func (f fixture) create(t *testing.T, a models.Alert) models.Alert {
	t.Helper()
	created, err := f.service.Create(t.Context(), f.owner, a)
	require.NoError(t, err)
	return created
}

func TestPage(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6}

	tests := []struct {
		name     string
		from     int
		expected []int
		err      error
	}{
		{"first page", 0, []int{0, 1, 2, 3, 4}, nil},
		{"rest shorter than page", 5, []int{5, 6}, nil},
		{"from the middle", 3, []int{3, 4, 5, 6}, nil},
		{"last item", 6, []int{6}, nil},
		{"past the end", 7, nil, apperrors.ErrNoResults},
		{"far past the end", 100, nil, apperrors.ErrNoResults},
		{"negative", -1, nil, apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := page(items, tt.from)

			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}

	t.Run("empty", func(t *testing.T) {
		_, err := page([]int{}, 0)

		require.ErrorIs(t, err, apperrors.ErrNoResults)
	})
}

func TestAlert(t *testing.T) {
	t.Parallel()

	t.Run("Create", func(t *testing.T) {
		f := newFixture(t)
		a := newAlert("dog", "beagle", "male")
		a.UserID = f.other.ID
		a.ReportNumber = 10
		a.Active = false

		created, err := f.service.Create(t.Context(), f.owner, a)

		require.NoError(t, err)
		require.NotZero(t, created.ID)
		require.Equal(t, f.owner.ID, created.UserID, "owner is the acting user")
		require.True(t, created.Active)
		require.Zero(t, created.ReportNumber)
		require.Equal(t, "Rex", created.Animal.Name)
	})

	t.Run("Create with bad coordinate", func(t *testing.T) {
		f := newFixture(t)
		a := newAlert("dog", "beagle", "male")
		a.Coordinate = coordinate("91", "0")

		_, err := f.service.Create(t.Context(), f.owner, a)

		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("List", func(t *testing.T) {
		f := newFixture(t)
		for range 6 {
			f.create(t, newAlert("dog", "beagle", "male"))
		}
		f.create(t, newAlert("dog", "poodle", "female"))
		f.create(t, newAlert("cat", "siamese", "female"))

		all, err := f.service.List(t.Context(), models.AlertFilter{}, 0)
		require.NoError(t, err)
		require.Len(t, all, PageSize)
		require.Equal(t, int64(1), all[0].ID)

		rest, err := f.service.List(t.Context(), models.AlertFilter{}, 5)
		require.NoError(t, err)
		require.Len(t, rest, 3)

		_, err = f.service.List(t.Context(), models.AlertFilter{}, 8)
		require.ErrorIs(t, err, apperrors.ErrNoResults)

		dogs, err := f.service.List(t.Context(), models.AlertFilter{Kind: "dog", Race: "poodle"}, 0)
		require.NoError(t, err)
		require.Len(t, dogs, 1)

		females, err := f.service.List(t.Context(), models.AlertFilter{Kind: "cat", Race: "siamese", Sex: "female"}, 0)
		require.NoError(t, err)
		require.Len(t, females, 1)

		_, err = f.service.List(t.Context(), models.AlertFilter{Kind: "parrot"}, 0)
		require.ErrorIs(t, err, apperrors.ErrNoResults)
	})

	t.Run("ListReported", func(t *testing.T) {
		f := newFixture(t)
		reported := f.create(t, newAlert("dog", "beagle", "male"))
		once := f.create(t, newAlert("cat", "siamese", "female"))

		for range models.ReportThreshold {
			_, err := f.service.Report(t.Context(), reported.ID)
			require.NoError(t, err)
		}
		_, err := f.service.Report(t.Context(), once.ID)
		require.NoError(t, err)

		got, err := f.service.ListReported(t.Context(), 0)

		require.NoError(t, err)
		require.Len(t, got, 1)
		require.Equal(t, reported.ID, got[0].ID)
		require.Equal(t, models.ReportThreshold, got[0].ReportNumber)
	})

	t.Run("ListByDistance", func(t *testing.T) {
		f := newFixture(t)
		far := newAlert("dog", "beagle", "male")
		far.Coordinate = coordinate("40.416", "-3.703") // Madrid
		near := newAlert("cat", "siamese", "female")
		near.Coordinate = coordinate("41.390", "2.154") // Barcelona
		finished := newAlert("cat", "persian", "male")
		finished.Coordinate = coordinate("41.387", "2.170")

		farID := f.create(t, far).ID
		nearID := f.create(t, near).ID
		finishedID := f.create(t, finished).ID
		require.NoError(t, f.service.Finish(t.Context(), f.owner, finishedID))

		got, err := f.service.ListByDistance(t.Context(), coordinate("41.387", "2.170"), 0)

		require.NoError(t, err)
		require.Len(t, got, 2, "finished alerts are not ranked")
		require.Equal(t, nearID, got[0].ID)
		require.Equal(t, farID, got[1].ID)
		require.Less(t, got[0].Distance, 5.0)
		require.InDelta(t, 505, got[1].Distance, 10, "Barcelona to Madrid is about 505 km")

		_, err = f.service.ListByDistance(t.Context(), coordinate("0", "181"), 0)
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)

		_, err = f.service.ListByDistance(t.Context(), coordinate("41.387", "2.170"), 2)
		require.ErrorIs(t, err, apperrors.ErrNoResults)
	})

	t.Run("Modify", func(t *testing.T) {
		tests := []struct {
			name  string
			actor func(f fixture) models.User
			err   error
		}{
			{"owner", func(f fixture) models.User { return f.owner }, nil},
			{"admin", func(f fixture) models.User { return f.admin }, nil},
			{"someone else", func(f fixture) models.User { return f.other }, apperrors.ErrForbidden},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				created := f.create(t, newAlert("dog", "beagle", "male"))
				_, err := f.service.Report(t.Context(), created.ID)
				require.NoError(t, err)

				update := created
				update.UserID = f.other.ID
				update.ReportNumber = 0
				update.Animal.Name = "Max"

				updated, err := f.service.Modify(t.Context(), tt.actor(f), update)

				if tt.err != nil {
					require.ErrorIs(t, err, tt.err)
					stored, err := f.service.Get(t.Context(), created.ID)
					require.NoError(t, err)
					require.Equal(t, "Rex", stored.Animal.Name)
					return
				}
				require.NoError(t, err)
				require.Equal(t, "Max", updated.Animal.Name)
				require.Equal(t, f.owner.ID, updated.UserID, "owner can't be changed")
				require.Equal(t, 1, updated.ReportNumber, "reports can't be reset")
			})
		}

		t.Run("not found", func(t *testing.T) {
			f := newFixture(t)
			a := newAlert("dog", "beagle", "male")
			a.ID = 404

			_, err := f.service.Modify(t.Context(), f.admin, a)

			require.ErrorIs(t, err, apperrors.ErrAlertNotFound)
		})
	})

	t.Run("Finish", func(t *testing.T) {
		f := newFixture(t)
		created := f.create(t, newAlert("dog", "beagle", "male"))

		require.ErrorIs(t, f.service.Finish(t.Context(), f.other, created.ID), apperrors.ErrForbidden)
		require.ErrorIs(t, f.service.Finish(t.Context(), f.owner, 404), apperrors.ErrAlertNotFound)

		require.NoError(t, f.service.Finish(t.Context(), f.owner, created.ID))
		stored, err := f.service.Get(t.Context(), created.ID)
		require.NoError(t, err)
		require.False(t, stored.Active)
	})

	t.Run("Report not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Report(t.Context(), 404)

		require.ErrorIs(t, err, apperrors.ErrAlertNotFound)
	})
}
