package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/petalert/internal/apperrors"
	"github.com/nkiryanov/petalert/internal/models"
)

type AlertRepo struct {
	DB DBTX
}

const alertColumns = `
a.id, a.created_at, a.active, a.report_number, a.user_id,
a.animal_chip_num, a.animal_name, a.animal_kind, a.animal_sex, a.animal_hair_color,
a.animal_race, a.animal_half_blood, a.animal_age, a.animal_image,
a.latitude, a.longitude,
a.title, a.lost_at, a.description, a.phone`

const createAlert = `-- name: CreateAlert
INSERT INTO alerts AS a (
	created_at, active, report_number, user_id,
	animal_chip_num, animal_name, animal_kind, animal_sex, animal_hair_color,
	animal_race, animal_half_blood, animal_age, animal_image,
	latitude, longitude,
	title, lost_at, description, phone
)
VALUES (COALESCE($1::timestamptz, now()), $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, COALESCE($17::timestamptz, now()), $18, $19)
RETURNING` + alertColumns

func (r *AlertRepo) CreateAlert(ctx context.Context, a models.Alert) (models.Alert, error) {
	rows, _ := r.DB.Query(ctx, createAlert,
		nullTime(a.CreatedAt), a.Active, a.ReportNumber, a.UserID,
		a.Animal.ChipNum, a.Animal.Name, a.Animal.Kind, a.Animal.Sex, a.Animal.HairColor,
		a.Animal.Race, a.Animal.HalfBlood, a.Animal.Age, a.Animal.Image,
		a.Coordinate.Latitude, a.Coordinate.Longitude,
		a.Description.Title, nullTime(a.Description.LostAt), a.Description.Text, a.Description.Phone,
	)
	created, err := pgx.CollectOneRow(rows, rowToAlert)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getAlert = `-- name: GetAlert
SELECT` + alertColumns + `
FROM alerts a
WHERE a.id = $1
`

func (r *AlertRepo) GetAlert(ctx context.Context, id int64) (models.Alert, error) {
	rows, _ := r.DB.Query(ctx, getAlert, id)
	return collectAlert(rows)
}

const updateAlert = `-- name: UpdateAlert
UPDATE alerts AS a
SET active = $2, report_number = $3,
	animal_chip_num = $4, animal_name = $5, animal_kind = $6, animal_sex = $7, animal_hair_color = $8,
	animal_race = $9, animal_half_blood = $10, animal_age = $11, animal_image = $12,
	latitude = $13, longitude = $14,
	title = $15, lost_at = $16, description = $17, phone = $18
WHERE a.id = $1
RETURNING` + alertColumns

func (r *AlertRepo) UpdateAlert(ctx context.Context, a models.Alert) (models.Alert, error) {
	rows, _ := r.DB.Query(ctx, updateAlert,
		a.ID, a.Active, a.ReportNumber,
		a.Animal.ChipNum, a.Animal.Name, a.Animal.Kind, a.Animal.Sex, a.Animal.HairColor,
		a.Animal.Race, a.Animal.HalfBlood, a.Animal.Age, a.Animal.Image,
		a.Coordinate.Latitude, a.Coordinate.Longitude,
		a.Description.Title, a.Description.LostAt, a.Description.Text, a.Description.Phone,
	)
	return collectAlert(rows)
}

const finishAlert = `-- name: FinishAlert
UPDATE alerts SET active = FALSE WHERE id = $1
`

func (r *AlertRepo) FinishAlert(ctx context.Context, id int64) error {
	tag, err := r.DB.Exec(ctx, finishAlert, id)
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrAlertNotFound
	default:
		return nil
	}
}

const reportAlert = `-- name: ReportAlert
UPDATE alerts AS a
SET report_number = a.report_number + 1
WHERE a.id = $1
RETURNING` + alertColumns

func (r *AlertRepo) ReportAlert(ctx context.Context, id int64) (models.Alert, error) {
	rows, _ := r.DB.Query(ctx, reportAlert, id)
	return collectAlert(rows)
}

const listAlerts = `-- name: ListAlerts
SELECT` + alertColumns + `
FROM alerts a
WHERE ($1::text = '' OR a.animal_kind = $1)
  AND ($2::text = '' OR a.animal_race = $2)
  AND ($3::text = '' OR a.animal_sex = $3)
  AND a.report_number >= $4::integer
ORDER BY a.id
`

func (r *AlertRepo) ListAlerts(ctx context.Context, f models.AlertFilter) ([]models.Alert, error) {
	rows, _ := r.DB.Query(ctx, listAlerts, f.Kind, f.Race, f.Sex, f.MinReports)
	alerts, err := pgx.CollectRows(rows, rowToAlert)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return alerts, nil
}

const listAlertsByDistance = `-- name: ListAlertsByDistance
SELECT` + alertColumns + `, d.distance
FROM calc_distance($1::float8, $2::float8) d
JOIN alerts a ON a.id = d.alert_id
ORDER BY d.distance, a.id
`

func (r *AlertRepo) ListAlertsByDistance(ctx context.Context, latitude, longitude decimal.Decimal) ([]models.RankedAlert, error) {
	lat, _ := latitude.Float64()
	lon, _ := longitude.Float64()

	rows, _ := r.DB.Query(ctx, listAlertsByDistance, lat, lon)
	ranked, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RankedAlert, error) {
		var ra models.RankedAlert
		err := row.Scan(append(alertFields(&ra.Alert), &ra.Distance)...)
		return ra, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ranked, nil
}

func collectAlert(rows pgx.Rows) (models.Alert, error) {
	alert, err := pgx.CollectOneRow(rows, rowToAlert)

	switch {
	case err == nil:
		return alert, nil
	case errors.Is(err, pgx.ErrNoRows):
		return alert, apperrors.ErrAlertNotFound
	default:
		return alert, fmt.Errorf("db error: %w", err)
	}
}

func rowToAlert(row pgx.CollectableRow) (models.Alert, error) {
	var a models.Alert
	err := row.Scan(alertFields(&a)...)
	return a, err
}

// Scan destinations in alertColumns order
func alertFields(a *models.Alert) []any {
	return []any{
		&a.ID, &a.CreatedAt, &a.Active, &a.ReportNumber, &a.UserID,
		&a.Animal.ChipNum, &a.Animal.Name, &a.Animal.Kind, &a.Animal.Sex, &a.Animal.HairColor,
		&a.Animal.Race, &a.Animal.HalfBlood, &a.Animal.Age, &a.Animal.Image,
		&a.Coordinate.Latitude, &a.Coordinate.Longitude,
		&a.Description.Title, &a.Description.LostAt, &a.Description.Text, &a.Description.Phone,
	}
}

// nullTime lets the column default apply to unset timestamps
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
