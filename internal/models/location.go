package models

import "time"

type LocationStatus string

const (
	LocationStatusOpen   LocationStatus = "OPEN"
	LocationStatusClosed LocationStatus = "CLOSED"
)

// TrashedCause records why a location was trashed. CASCADE is set only when
// the location was trashed as a side effect of trashing its company, which is
// what makes it eligible for automatic restore.
type TrashedCause string

const (
	TrashedCauseManual  TrashedCause = "MANUAL"
	TrashedCauseCascade TrashedCause = "CASCADE"
)

type Location struct {
	LocationID   string         `gorm:"primarykey;type:varchar(36)" json:"location_id"`
	CompanyID    string         `gorm:"type:varchar(36);not null;index" json:"company_id"`
	Name         string         `gorm:"type:varchar(255);not null" json:"name"`
	LocationCode string         `gorm:"type:varchar(64)" json:"location_code"`
	Timezone     string         `gorm:"type:varchar(64)" json:"timezone"`
	CountryCode  *string        `gorm:"type:varchar(2)" json:"country_code,omitempty"`
	RegionCode   *string        `gorm:"type:varchar(32)" json:"region_code,omitempty"`
	Status       LocationStatus `gorm:"type:varchar(16);not null" json:"status"`
	ClosedAt     *time.Time     `json:"closed_at,omitempty"`
	ClosedBy     *string        `gorm:"type:varchar(100)" json:"closed_by,omitempty"`
	ClosedReason *string        `gorm:"type:varchar(500)" json:"closed_reason,omitempty"`
	TrashedAt    *time.Time     `json:"trashed_at,omitempty"`
	TrashedBy    *string        `gorm:"type:varchar(100)" json:"trashed_by,omitempty"`
	TrashedCause *TrashedCause  `gorm:"type:varchar(16)" json:"trashed_cause,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	CreatedBy    string         `gorm:"type:varchar(100)" json:"created_by"`
	ModifiedAt   time.Time      `json:"modified_at"`
	ModifiedBy   string         `gorm:"type:varchar(100)" json:"modified_by"`
	Version      int64          `gorm:"not null;default:0" json:"version"`
}

// Trashed reports whether the location is soft-deleted.
func (l *Location) Trashed() bool {
	return l.TrashedAt != nil
}

// OpenAndActive reports whether the location counts toward the company's
// open-location minimum.
func (l *Location) OpenAndActive() bool {
	return l.Status == LocationStatusOpen && l.TrashedAt == nil
}
