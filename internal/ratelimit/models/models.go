package models

import "time"

// Result is the outcome of one limit check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is only set when the request was rejected.
	RetryAfter time.Duration
}

// Policy bounds how many requests one key may make per window. A zero Limit
// disables the check.
type Policy struct {
	Limit  int
	Window time.Duration
}

func (p Policy) Enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

// ExceededResponse is the body written with a 429.
type ExceededResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	RetryAfter       int    `json:"retry_after"`
}
