package memory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
)

const earthRadiusKm = 6371

type AlertRepo struct {
	state *state
}

func (r *AlertRepo) CreateAlert(ctx context.Context, a models.Alert) (models.Alert, error) {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	if _, ok := r.state.users[a.UserID]; !ok {
		return models.Alert{}, apperrors.ErrUserNotFound
	}

	a.ID = r.state.ids.alert.Add(1)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	r.state.alerts[a.ID] = a

	return a, nil
}

func (r *AlertRepo) GetAlert(ctx context.Context, id int64) (models.Alert, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	a, ok := r.state.alerts[id]
	if !ok {
		return models.Alert{}, apperrors.ErrAlertNotFound
	}
	return a, nil
}

func (r *AlertRepo) UpdateAlert(ctx context.Context, a models.Alert) (models.Alert, error) {
	var updated models.Alert
	err := r.update(a.ID, func(stored *models.Alert) {
		stored.Active = a.Active
		stored.ReportNumber = a.ReportNumber
		stored.Animal = a.Animal
		stored.Coordinate = a.Coordinate
		stored.Description = a.Description
		updated = *stored
	})
	return updated, err
}

func (r *AlertRepo) FinishAlert(ctx context.Context, id int64) error {
	return r.update(id, func(a *models.Alert) { a.Active = false })
}

func (r *AlertRepo) ReportAlert(ctx context.Context, id int64) (models.Alert, error) {
	var reported models.Alert
	err := r.update(id, func(a *models.Alert) {
		a.ReportNumber++
		reported = *a
	})
	return reported, err
}

func (r *AlertRepo) ListAlerts(ctx context.Context, f models.AlertFilter) ([]models.Alert, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	alerts := make([]models.Alert, 0)
	for _, a := range r.state.alerts {
		if matches(a, f) {
			alerts = append(alerts, a)
		}
	}
	slices.SortFunc(alerts, func(a, b models.Alert) int { return cmp.Compare(a.ID, b.ID) })

	return alerts, nil
}

func (r *AlertRepo) ListAlertsByDistance(ctx context.Context, latitude, longitude decimal.Decimal) ([]models.RankedAlert, error) {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()

	lat, _ := latitude.Float64()
	lon, _ := longitude.Float64()

	ranked := make([]models.RankedAlert, 0)
	for _, a := range r.state.alerts {
		if !a.Active {
			continue
		}
		ranked = append(ranked, models.RankedAlert{Alert: a, Distance: distanceKm(lat, lon, a.Coordinate)})
	}
	slices.SortFunc(ranked, func(a, b models.RankedAlert) int {
		return cmp.Or(cmp.Compare(a.Distance, b.Distance), cmp.Compare(a.ID, b.ID))
	})

	return ranked, nil
}

func (r *AlertRepo) update(id int64, fn func(*models.Alert)) error {
	r.state.mu.Lock()
	defer r.state.mu.Unlock()

	a, ok := r.state.alerts[id]
	if !ok {
		return apperrors.ErrAlertNotFound
	}

	fn(&a)
	r.state.alerts[id] = a

	return nil
}

func matches(a models.Alert, f models.AlertFilter) bool {
	switch {
	case f.Kind != "" && a.Animal.Kind != f.Kind:
		return false
	case f.Race != "" && a.Animal.Race != f.Race:
		return false
	case f.Sex != "" && a.Animal.Sex != f.Sex:
		return false
	default:
		return a.ReportNumber >= f.MinReports
	}
}

// Haversine distance, same formula as the calc_distance SQL function
func distanceKm(lat, lon float64, c models.Coordinate) float64 {
	toLat, _ := c.Latitude.Float64()
	toLon, _ := c.Longitude.Float64()

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := rad(toLat - lat)
	dLon := rad(toLon - lon)
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(rad(lat))*math.Cos(rad(toLat))*math.Pow(math.Sin(dLon/2), 2)

	return earthRadiusKm * 2 * math.Asin(math.Sqrt(h))
}
