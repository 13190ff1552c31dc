package models

import (
	"time"
)

// PendingRegistration holds the details submitted on the registration form
// while the applicant confirms their email address. It lives in the ephemeral
// store keyed by the confirmation token's secret and is consumed exactly once
// on redemption.
type PendingRegistration struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
}
