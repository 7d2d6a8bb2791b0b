package model

import "time"

// PendingSubmission marks that a user picked a plan and the bot is waiting
// for their proof-of-payment photo. Stored in Postgres next to payments and
// cleared explicitly; Expired submissions are treated as absent.
type PendingSubmission struct {
	UserID    int64
	PlanKey   string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *PendingSubmission) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
