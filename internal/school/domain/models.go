package domain

import (
	"github.com/bwmarrin/snowflake"
	contactdomain "github.com/campuskit/campuskit/internal/contact/domain"
	"github.com/campuskit/campuskit/pkg/repository"
	"gorm.io/datatypes"
)

// School is the tenant-scoped aggregate root of the Schools vertical. Its
// contact collections are polymorphic members maintained by the contact
// services; the repository eager-loads them through include paths.
type School struct {
	ID       snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID      `gorm:"not null;index;uniqueIndex:idx_schools_tenant_code,priority:1" json:"tenant_id"`
	Name     string            `gorm:"not null;size:254" validate:"required,min=2,max=254" json:"name"`
	Code     string            `gorm:"not null;size:32;uniqueIndex:idx_schools_tenant_code,priority:2" validate:"required,min=2,max=32" json:"code"`
	Timezone string            `gorm:"size:64" json:"timezone,omitempty"`
	Active   bool              `gorm:"not null;default:true" json:"active"`
	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	Campuses       []*Campus                      `gorm:"foreignKey:SchoolID" json:"campuses,omitempty"`
	ContactNumbers []*contactdomain.ContactNumber `gorm:"polymorphic:Owner;polymorphicValue:school" json:"contact_numbers,omitempty"`
	EmailAddresses []*contactdomain.EmailAddress  `gorm:"polymorphic:Owner;polymorphicValue:school" json:"email_addresses,omitempty"`

	repository.Audit
}

func (School) TableName() string { return "schools" }

func (s School) PrimaryKey() snowflake.ID { return s.ID }

// Campus is a physical site of a school. Its own contact members hang off
// the polymorphic owner relation, giving two-level include paths such as
// "Campuses.ContactNumbers".
type Campus struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	SchoolID snowflake.ID `gorm:"not null;index" json:"school_id"`
	Name     string       `gorm:"not null;size:254" validate:"required,min=2,max=254" json:"name"`

	ContactNumbers []*contactdomain.ContactNumber `gorm:"polymorphic:Owner;polymorphicValue:campus" json:"contact_numbers,omitempty"`
	Addresses      []*contactdomain.Address       `gorm:"polymorphic:Owner;polymorphicValue:campus" json:"addresses,omitempty"`

	repository.Audit
}

func (Campus) TableName() string { return "campuses" }

func (c Campus) PrimaryKey() snowflake.ID { return c.ID }
