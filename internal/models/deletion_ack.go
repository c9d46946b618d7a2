package models

import "time"

// DeletionAck is an append-only acknowledgement from one external service for
// one deletion workflow. Duplicate acks from the same service are no-ops.
type DeletionAck struct {
	DeletionID  string    `gorm:"primarykey;type:varchar(36)" json:"deletion_id"`
	ServiceName string    `gorm:"primarykey;type:varchar(100)" json:"service_name"`
	AckedAtUTC  time.Time `gorm:"column:acked_at_utc;not null" json:"acked_at_utc"`
	AckedBySub  string    `gorm:"column:acked_by_sub;type:varchar(100)" json:"acked_by_sub"`
}
