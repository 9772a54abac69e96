package models

import (
	"time"
)

// Session is the single token record a user may hold.
//
// Expiration is the instant the validity window is measured from, not the moment the
// session dies. The session is alive while now <= Expiration + window.
type Session struct {
	UserID        int64
	Token         string // empty means no active session
	Expiration    time.Time
	SourceAddress string
}

func (s Session) HasToken() bool {
	return s.Token != ""
}

func (s Session) Deadline(window time.Duration) time.Time {
	return s.Expiration.Add(window)
}

// Token is a freshly issued credential
type Token struct {
	Value         string
	Username      string
	Expiration    time.Time
	SourceAddress string
}

// Session converts the issued token into the record stored for its owner
func (t Token) Session(userID int64) Session {
	return Session{
		UserID:        userID,
		Token:         t.Value,
		Expiration:    t.Expiration,
		SourceAddress: t.SourceAddress,
	}
}
