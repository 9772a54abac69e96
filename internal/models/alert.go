package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alerts reported at least this many times are listed as reported
const ReportThreshold = 3

type Alert struct {
	ID           int64
	CreatedAt    time.Time
	Active       bool
	ReportNumber int
	UserID       int64

	Animal      Animal
	Coordinate  Coordinate
	Description Description
}

type Animal struct {
	ChipNum   string
	Name      string
	Kind      string
	Sex       string
	HairColor string
	Race      string
	HalfBlood bool
	Age       int
	Image     string
}

type Coordinate struct {
	Latitude  decimal.Decimal
	Longitude decimal.Decimal
}

var (
	maxLatitude  = decimal.NewFromInt(90)
	maxLongitude = decimal.NewFromInt(180)
)

func (c Coordinate) Valid() bool {
	return c.Latitude.Abs().LessThanOrEqual(maxLatitude) && c.Longitude.Abs().LessThanOrEqual(maxLongitude)
}

type Description struct {
	Title  string
	LostAt time.Time
	Text   string
	Phone  string
}

// Filter for alert listings; empty fields match anything
type AlertFilter struct {
	Kind       string
	Race       string
	Sex        string
	MinReports int
}

// RankedAlert is an alert with its distance in kilometers to a requested point
type RankedAlert struct {
	Alert
	Distance float64
}
