package model

import "time"

// JobKind identifies a scheduled background job type.
type JobKind string

const (
	JobKindAutoCancel JobKind = "auto_cancel"
)

// ScheduledJob is a durable delayed-job record. The auto-cancel worker polls
// for due jobs and claims each with a conditional update on done_at.
type ScheduledJob struct {
	ID      string     `bson:"_id" json:"id"`
	Kind    JobKind    `bson:"kind" json:"kind"`
	OrderID string     `bson:"order_id" json:"orderId"`
	RunAt   time.Time  `bson:"run_at" json:"runAt"`
	DoneAt  *time.Time `bson:"done_at,omitempty" json:"doneAt,omitempty"`
}
