package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/campuskit/campuskit/pkg/repository"
)

// OwnerType identifies which aggregate a contact member belongs to.
// Members are polymorphic: schools, staff and business listings all own
// contact collections.
type OwnerType string

const (
	OwnerTypeSchool  OwnerType = "school"
	OwnerTypeCampus  OwnerType = "campus"
	OwnerTypeStaff   OwnerType = "staff"
	OwnerTypeListing OwnerType = "listing"
)

// Member is the capability shared by every "owner has many, exactly one is
// default" collection record. The default-member manager is generic over it.
type Member interface {
	PrimaryKey() snowflake.ID
	OwnerKey() (snowflake.ID, OwnerType)
	IsDefault() bool
	SetDefault(v bool)
}

type ContactNumber struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	OwnerID   snowflake.ID `gorm:"not null;index:idx_contact_numbers_owner" json:"owner_id"`
	OwnerType OwnerType    `gorm:"not null;size:32;index:idx_contact_numbers_owner" json:"owner_type"`
	Label     string       `gorm:"size:64" json:"label,omitempty"`
	Number    string       `gorm:"not null;size:32" validate:"required,min=3,max=32" json:"number"`
	Default   bool         `gorm:"column:is_default;not null;default:false" json:"default"`
	repository.Audit
}

func (ContactNumber) TableName() string { return "contact_numbers" }

func (m ContactNumber) PrimaryKey() snowflake.ID { return m.ID }

func (m ContactNumber) OwnerKey() (snowflake.ID, OwnerType) { return m.OwnerID, m.OwnerType }

func (m ContactNumber) IsDefault() bool { return m.Default }

func (m *ContactNumber) SetDefault(v bool) { m.Default = v }

type EmailAddress struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	OwnerID   snowflake.ID `gorm:"not null;index:idx_email_addresses_owner" json:"owner_id"`
	OwnerType OwnerType    `gorm:"not null;size:32;index:idx_email_addresses_owner" json:"owner_type"`
	Label     string       `gorm:"size:64" json:"label,omitempty"`
	Email     string       `gorm:"not null;size:254" validate:"required,email" json:"email"`
	Default   bool         `gorm:"column:is_default;not null;default:false" json:"default"`
	repository.Audit
}

func (EmailAddress) TableName() string { return "email_addresses" }

func (m EmailAddress) PrimaryKey() snowflake.ID { return m.ID }

func (m EmailAddress) OwnerKey() (snowflake.ID, OwnerType) { return m.OwnerID, m.OwnerType }

func (m EmailAddress) IsDefault() bool { return m.Default }

func (m *EmailAddress) SetDefault(v bool) { m.Default = v }

type Address struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	OwnerID    snowflake.ID `gorm:"not null;index:idx_addresses_owner" json:"owner_id"`
	OwnerType  OwnerType    `gorm:"not null;size:32;index:idx_addresses_owner" json:"owner_type"`
	Label      string       `gorm:"size:64" json:"label,omitempty"`
	Street     string       `gorm:"not null;size:254" validate:"required" json:"street"`
	City       string       `gorm:"not null;size:128" validate:"required" json:"city"`
	Region     string       `gorm:"size:128" json:"region,omitempty"`
	PostalCode string       `gorm:"size:16" json:"postal_code,omitempty"`
	Country    string       `gorm:"not null;size:2" validate:"required,len=2" json:"country"`
	Latitude   float64      `json:"latitude,omitempty"`
	Longitude  float64      `json:"longitude,omitempty"`
	Default    bool         `gorm:"column:is_default;not null;default:false" json:"default"`
	repository.Audit
}

func (Address) TableName() string { return "addresses" }

func (m Address) PrimaryKey() snowflake.ID { return m.ID }

func (m Address) OwnerKey() (snowflake.ID, OwnerType) { return m.OwnerID, m.OwnerType }

func (m Address) IsDefault() bool { return m.Default }

func (m *Address) SetDefault(v bool) { m.Default = v }
