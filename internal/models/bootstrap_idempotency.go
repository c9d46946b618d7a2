package models

import "time"

// BootstrapIdempotency dedupes retried company-creation requests. The key is
// caller supplied; RequestHash pins it to one canonical payload.
type BootstrapIdempotency struct {
	IdempotencyKey string    `gorm:"primarykey;type:varchar(128)" json:"idempotency_key"`
	RequestHash    string    `gorm:"type:varchar(64);not null" json:"request_hash"`
	CompanyID      string    `gorm:"type:varchar(36);not null" json:"company_id"`
	CreatedAt      time.Time `json:"created_at"`
	CreatedBy      string    `gorm:"type:varchar(100)" json:"created_by"`
}

func (BootstrapIdempotency) TableName() string {
	return "bootstrap_idempotency"
}
