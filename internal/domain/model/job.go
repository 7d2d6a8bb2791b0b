package model

import "time"

type JobKind string

const (
	JobKindNotify JobKind = "notify" // renewal reminder, fires lead-time before expiry
	JobKindRevoke JobKind = "revoke" // access removal, fires at expiry
)

// JobPayload is what a fired job hands to its handler. Serialized as JSONB.
type JobPayload struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// ScheduledJob is a durable timer. At most one job per (UserID, Kind);
// scheduling the same key again replaces the previous job.
type ScheduledJob struct {
	UserID    int64
	Kind      JobKind
	FireAt    time.Time
	Payload   JobPayload
	CreatedAt time.Time
}

// Key identifies the job for replace/cancel semantics.
func (j *ScheduledJob) Key() JobKey { return JobKey{UserID: j.UserID, Kind: j.Kind} }

type JobKey struct {
	UserID int64
	Kind   JobKind
}
