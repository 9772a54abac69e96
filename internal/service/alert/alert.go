package alert

import (
	"context"
	"fmt"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
	"github.com/nkiryanov/petalert/internal/repository"
)

// Listings are returned in pages of PageSize starting at a requested position
const PageSize = 5

type AlertService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *AlertService {
	return &AlertService{storage: storage}
}

// List returns a page of alerts matching the filter
func (s *AlertService) List(ctx context.Context, filter models.AlertFilter, from int) ([]models.Alert, error) {
	alerts, err := s.storage.Alert().ListAlerts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return page(alerts, from)
}

// ListReported returns a page of alerts reported at least models.ReportThreshold times
func (s *AlertService) ListReported(ctx context.Context, from int) ([]models.Alert, error) {
	return s.List(ctx, models.AlertFilter{MinReports: models.ReportThreshold}, from)
}

// ListByDistance returns a page of active alerts, nearest to the point first
func (s *AlertService) ListByDistance(ctx context.Context, point models.Coordinate, from int) ([]models.RankedAlert, error) {
	if !point.Valid() {
		return nil, fmt.Errorf("coordinate out of range: %w", apperrors.ErrInvalidInput)
	}

	ranked, err := s.storage.Alert().ListAlertsByDistance(ctx, point.Latitude, point.Longitude)
	if err != nil {
		return nil, fmt.Errorf("list alerts by distance: %w", err)
	}
	return page(ranked, from)
}

func (s *AlertService) Get(ctx context.Context, id int64) (models.Alert, error) {
	return s.storage.Alert().GetAlert(ctx, id)
}

// Create stores a new active alert owned by the actor
func (s *AlertService) Create(ctx context.Context, actor models.User, alert models.Alert) (models.Alert, error) {
	if !alert.Coordinate.Valid() {
		return models.Alert{}, fmt.Errorf("coordinate out of range: %w", apperrors.ErrInvalidInput)
	}

	alert.ID = 0
	alert.UserID = actor.ID
	alert.Active = true
	alert.ReportNumber = 0

	return s.storage.Alert().CreateAlert(ctx, alert)
}

// Modify replaces the animal, coordinate and description of an alert.
// Owner and report counter can't be changed this way.
func (s *AlertService) Modify(ctx context.Context, actor models.User, alert models.Alert) (models.Alert, error) {
	if !alert.Coordinate.Valid() {
		return models.Alert{}, fmt.Errorf("coordinate out of range: %w", apperrors.ErrInvalidInput)
	}

	var updated models.Alert
	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		stored, err := tx.Alert().GetAlert(ctx, alert.ID)
		if err != nil {
			return err
		}
		if !actor.CanManage(stored.UserID) {
			return apperrors.ErrForbidden
		}

		stored.Animal = alert.Animal
		stored.Coordinate = alert.Coordinate
		stored.Description = alert.Description

		updated, err = tx.Alert().UpdateAlert(ctx, stored)
		return err
	})

	return updated, err
}

// Finish marks the alert inactive, e.g. when the animal was found
func (s *AlertService) Finish(ctx context.Context, actor models.User, id int64) error {
	return s.storage.InTx(ctx, func(tx repository.Storage) error {
		stored, err := tx.Alert().GetAlert(ctx, id)
		if err != nil {
			return err
		}
		if !actor.CanManage(stored.UserID) {
			return apperrors.ErrForbidden
		}

		return tx.Alert().FinishAlert(ctx, id)
	})
}

// Report increments the report counter; any user may report any alert
func (s *AlertService) Report(ctx context.Context, id int64) (models.Alert, error) {
	return s.storage.Alert().ReportAlert(ctx, id)
}

// page cuts PageSize items starting at from.
// Returns apperrors.ErrNoResults when nothing is left at from.
func page[T any](items []T, from int) ([]T, error) {
	if from < 0 {
		return nil, fmt.Errorf("negative position %d: %w", from, apperrors.ErrInvalidInput)
	}
	if from >= len(items) {
		return nil, apperrors.ErrNoResults
	}

	return items[from:min(from+PageSize, len(items))], nil
}
