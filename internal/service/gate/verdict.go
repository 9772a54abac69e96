package gate

import (
	"github.com/nkiryanov/petalert/internal/models"
)

// Reason explains a verdict; OK is the only granting one
type Reason int

const (
	OK Reason = iota
	InvalidInput
	NoMatch
	Blocked
	Expired
	RenewalFailed
	LookupFailed
	UnknownUser
	BadPassword
	NoToken
	IssueFailed
	RevokeFailed
)

var reasonNames = map[Reason]string{
	OK:            "granted",
	InvalidInput:  "invalid_input",
	NoMatch:       "no_match",
	Blocked:       "blocked",
	Expired:       "expired",
	RenewalFailed: "renewal_failed",
	LookupFailed:  "lookup_failed",
	UnknownUser:   "unknown_user",
	BadPassword:   "bad_password",
	NoToken:       "no_token",
	IssueFailed:   "issue_failed",
	RevokeFailed:  "revoke_failed",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// The same reason maps to different result codes depending on the flow that produced it
type flow int

const (
	flowAuthorize flow = iota
	flowLogin
	flowLoginToken
	flowLogout
)

type outcome struct {
	code    int
	message string
}

var outcomes = map[flow]map[Reason]outcome{
	flowAuthorize: {
		OK:            {1, "Granted"},
		InvalidInput:  {-1, "Error in token parameters"},
		LookupFailed:  {-1, "Error"},
		NoMatch:       {-10, "Invalid token"},
		Blocked:       {-10, "Invalid token"},
		Expired:       {-11, "Expired token"},
		RenewalFailed: {-12, "Error assigning token"},
	},
	flowLogin: {
		OK:           {1, ""},
		InvalidInput: {-1, "Error in parameters"},
		IssueFailed:  {-1, "Error assigning token"},
		UnknownUser:  {-2, "User doesnt exist"},
		BadPassword:  {-3, "Password does not match"},
		Blocked:      {-10, "User is blocked"},
		LookupFailed: {-5, "Server error"},
	},
	flowLoginToken: {
		OK:            {1, ""},
		Expired:       {0, "Password required"},
		InvalidInput:  {-1, "Error in token parameters"},
		NoMatch:       {-1, "No user with this token"},
		NoToken:       {-2, "User dont have token"},
		Blocked:       {-10, "User is blocked"},
		RenewalFailed: {-5, "Login fail"},
		LookupFailed:  {-5, "Login fail"},
	},
	flowLogout: {
		OK:           {1, "Token removed successfully"},
		NoMatch:      {-2, "Token not found"},
		RevokeFailed: {-1, "Error removing token"},
		LookupFailed: {-1, "Error logout"},
	},
}

// Verdict is the result of a gate check or a credential flow
type Verdict struct {
	Reason Reason

	// Set when granted
	User  models.User
	Token string

	flow flow
}

func (v Verdict) Granted() bool {
	return v.Reason == OK
}

// Code is the stable result code sent to clients
func (v Verdict) Code() int {
	if o, ok := outcomes[v.flow][v.Reason]; ok {
		return o.code
	}
	return -1
}

// Message is the payload sent to clients instead of data when the verdict is not granted
func (v Verdict) Message() string {
	if o, ok := outcomes[v.flow][v.Reason]; ok {
		return o.message
	}
	return "Error"
}

func (v Verdict) String() string {
	return v.Reason.String()
}
