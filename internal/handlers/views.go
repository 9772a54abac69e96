package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/petalert/internal/models"
)

// Payloads never carry passwords or tokens
type userView struct {
	ID         int64     `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Name       string    `json:"name"`
	Username   string    `json:"username"`
	Role       string    `json:"rol"`
	Mail       string    `json:"mail"`
	Population string    `json:"population"`
	Active     bool      `json:"active"`
}

func newUserView(u models.User) userView {
	return userView{
		ID:         u.ID,
		CreatedAt:  u.CreatedAt,
		Name:       u.Name,
		Username:   u.Username,
		Role:       u.Role,
		Mail:       u.Mail,
		Population: u.Population,
		Active:     u.Active,
	}
}

type animalView struct {
	ChipNum   string `json:"chipNum" validate:"chip"`
	Name      string `json:"name" validate:"max=100"`
	Kind      string `json:"kind" validate:"required,max=50"`
	Sex       string `json:"sex" validate:"max=20"`
	HairColor string `json:"hairColor" validate:"max=50"`
	Race      string `json:"race" validate:"max=50"`
	HalfBlood bool   `json:"halfBlood"`
	Age       int    `json:"age" validate:"min=0"`
	Image     string `json:"image"`
}

type coordinateView struct {
	Latitude  decimal.Decimal `json:"latitude"`
	Longitude decimal.Decimal `json:"longitude"`
}

type descriptionView struct {
	Title       string    `json:"title" validate:"required,max=200"`
	LostAt      time.Time `json:"lostDayHour"`
	Description string    `json:"description"`
	Phone       string    `json:"phone" validate:"max=20"`
}

type alertView struct {
	ID           int64           `json:"id"`
	CreatedAt    time.Time       `json:"creationDate"`
	Active       bool            `json:"active"`
	ReportNumber int             `json:"reportNumber"`
	UserID       int64           `json:"userId"`
	Animal       animalView      `json:"animal"`
	Coordinate   coordinateView  `json:"coordinate"`
	Description  descriptionView `json:"description"`
	Distance     *float64        `json:"distance,omitempty"`
}

func newAlertView(a models.Alert) alertView {
	return alertView{
		ID:           a.ID,
		CreatedAt:    a.CreatedAt,
		Active:       a.Active,
		ReportNumber: a.ReportNumber,
		UserID:       a.UserID,
		Animal: animalView{
			ChipNum:   a.Animal.ChipNum,
			Name:      a.Animal.Name,
			Kind:      a.Animal.Kind,
			Sex:       a.Animal.Sex,
			HairColor: a.Animal.HairColor,
			Race:      a.Animal.Race,
			HalfBlood: a.Animal.HalfBlood,
			Age:       a.Animal.Age,
			Image:     a.Animal.Image,
		},
		Coordinate: coordinateView{
			Latitude:  a.Coordinate.Latitude,
			Longitude: a.Coordinate.Longitude,
		},
		Description: descriptionView{
			Title:       a.Description.Title,
			LostAt:      a.Description.LostAt,
			Description: a.Description.Text,
			Phone:       a.Description.Phone,
		},
	}
}

func newRankedAlertView(ra models.RankedAlert) alertView {
	v := newAlertView(ra.Alert)
	v.Distance = &ra.Distance
	return v
}

func alertViews(alerts []models.Alert) []alertView {
	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, newAlertView(a))
	}
	return views
}

// alertInput is the body of add and modify requests
type alertInput struct {
	ID          int64           `json:"id"`
	Animal      animalView      `json:"animal"`
	Coordinate  coordinateView  `json:"coordinate"`
	Description descriptionView `json:"description"`
}

func (in alertInput) model() models.Alert {
	return models.Alert{
		ID: in.ID,
		Animal: models.Animal{
			ChipNum:   in.Animal.ChipNum,
			Name:      in.Animal.Name,
			Kind:      in.Animal.Kind,
			Sex:       in.Animal.Sex,
			HairColor: in.Animal.HairColor,
			Race:      in.Animal.Race,
			HalfBlood: in.Animal.HalfBlood,
			Age:       in.Animal.Age,
			Image:     in.Animal.Image,
		},
		Coordinate: models.Coordinate{
			Latitude:  in.Coordinate.Latitude,
			Longitude: in.Coordinate.Longitude,
		},
		Description: models.Description{
			Title:  in.Description.Title,
			LostAt: in.Description.LostAt,
			Text:   in.Description.Description,
			Phone:  in.Description.Phone,
		},
	}
}

type messageView struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	SenderID       int64     `json:"senderId"`
	ReceiverID     int64     `json:"receiverId"`
	SenderActive   bool      `json:"senderActive"`
	ReceiverActive bool      `json:"receiverActive"`
	SentAt         time.Time `json:"sendDate"`
}

func messageViews(messages []models.Message) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, messageView{
			ID:             m.ID,
			Title:          m.Title,
			Content:        m.Content,
			SenderID:       m.SenderID,
			ReceiverID:     m.ReceiverID,
			SenderActive:   m.SenderActive,
			ReceiverActive: m.ReceiverActive,
			SentAt:         m.SentAt,
		})
	}
	return views
}
