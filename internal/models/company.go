package models

import "time"

type Company struct {
	CompanyID      string     `gorm:"primarykey;type:varchar(36)" json:"company_id"`
	Name           string     `gorm:"type:varchar(255);not null" json:"name"`
	DisplayName    string     `gorm:"type:varchar(255)" json:"display_name"`
	Timezone       string     `gorm:"type:varchar(64)" json:"timezone"`
	Locale         string     `gorm:"type:varchar(32)" json:"locale"`
	LogoFileRef    *string    `gorm:"type:varchar(255)" json:"logo_file_ref,omitempty"`
	MainLocationID string     `gorm:"type:varchar(36);not null" json:"main_location_id"`
	CreatedAt      time.Time  `json:"created_at"`
	CreatedBy      string     `gorm:"type:varchar(100)" json:"created_by"`
	ModifiedAt     time.Time  `json:"modified_at"`
	ModifiedBy     string     `gorm:"type:varchar(100)" json:"modified_by"`
	TrashedAt      *time.Time `json:"trashed_at,omitempty"`
	TrashedBy      *string    `gorm:"type:varchar(100)" json:"trashed_by,omitempty"`
	Version        int64      `gorm:"not null;default:0" json:"version"`

	// Relations
	Locations []Location `gorm:"foreignKey:CompanyID;references:CompanyID" json:"locations,omitempty"`
}

// Trashed reports whether the company is soft-deleted.
func (c *Company) Trashed() bool {
	return c.TrashedAt != nil
}
