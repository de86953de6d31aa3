package repository

import "time"

// Entity is implemented by every persistable record: a typed primary key
// plus the audit metadata carried by the embedded Audit struct.
type Entity[K comparable] interface {
	PrimaryKey() K
}

// Audit is the embeddable audit block shared by all entities. The unit of
// work stamps it at Save time with the session clock and the acting user
// from the request context; gorm's own time tracking is disabled so stamps
// stay deterministic under a fake clock.
type Audit struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;autoUpdateTime:false" json:"updated_at"`
	CreatedBy string    `gorm:"size:64" json:"created_by,omitempty"`
	UpdatedBy string    `gorm:"size:64" json:"updated_by,omitempty"`
}

// Auditable is satisfied by any entity embedding Audit.
type Auditable interface {
	Touch(now time.Time, actor string, created bool)
}

// Touch stamps the audit block.
func (a *Audit) Touch(now time.Time, actor string, created bool) {
	if created {
		a.CreatedAt = now
		a.CreatedBy = actor
	}
	a.UpdatedAt = now
	a.UpdatedBy = actor
}
