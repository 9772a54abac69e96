package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID         int64
	CreatedAt  time.Time
	Name       string
	Username   string
	Password   string // stored credential, plain or hashed depending on password mode
	Role       string
	Mail       string
	Population string
	Active     bool

	// Session is loaded together with the user; zero value means the user never logged in
	Session Session
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManage reports whether u may change records owned by ownerID
func (u User) CanManage(ownerID int64) bool {
	return u.ID == ownerID || u.IsAdmin()
}
