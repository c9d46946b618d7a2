package models

import "time"

type DeletionState string

const (
	DeletionStateInProgress DeletionState = "IN_PROGRESS"
	DeletionStateCompleted  DeletionState = "COMPLETED"
	DeletionStateFailed     DeletionState = "FAILED"
)

// DeletionTombstone tracks one hard-deletion workflow per company. The row
// outlives the purged company so retried delete/ack calls stay idempotent.
type DeletionTombstone struct {
	DeletionID     string        `gorm:"primarykey;type:varchar(36)" json:"deletion_id"`
	CompanyID      string        `gorm:"type:varchar(36);not null;uniqueIndex" json:"company_id"`
	State          DeletionState `gorm:"type:varchar(16);not null" json:"state"`
	RequestedAtUTC time.Time     `gorm:"column:requested_at_utc;not null" json:"requested_at_utc"`
	RequestedBySub string        `gorm:"column:requested_by_sub;type:varchar(100);not null" json:"requested_by_sub"`
	IdempotencyKey *string       `gorm:"type:varchar(128)" json:"idempotency_key,omitempty"`
	CompletedAtUTC *time.Time    `gorm:"column:completed_at_utc" json:"completed_at_utc,omitempty"`
	FailedAtUTC    *time.Time    `gorm:"column:failed_at_utc" json:"failed_at_utc,omitempty"`
	FailureReason  *string       `gorm:"type:varchar(500)" json:"failure_reason,omitempty"`
}

// Terminal reports whether the workflow reached an immutable end state.
func (t *DeletionTombstone) Terminal() bool {
	return t.State == DeletionStateCompleted || t.State == DeletionStateFailed
}
