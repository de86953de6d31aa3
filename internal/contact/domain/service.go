package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/campuskit/campuskit/pkg/result"
)

var (
	ErrInvalidTenant = errors.New("missing or invalid tenant")
	ErrInvalidOwner  = errors.New("missing or invalid owner")
)

type ListMembersRequest struct {
	OwnerID   snowflake.ID `json:"owner_id"`
	OwnerType OwnerType    `json:"owner_type"`
}

type CreateContactNumberRequest struct {
	OwnerID   snowflake.ID `json:"owner_id"`
	OwnerType OwnerType    `json:"owner_type"`
	Label     string       `json:"label,omitempty"`
	Number    string       `json:"number"`
	Default   bool         `json:"default"`
}

type UpdateContactNumberRequest struct {
	ID      snowflake.ID `json:"id"`
	Label   *string      `json:"label,omitempty"`
	Number  *string      `json:"number,omitempty"`
	Default *bool        `json:"default,omitempty"`
}

type CreateEmailAddressRequest struct {
	OwnerID   snowflake.ID `json:"owner_id"`
	OwnerType OwnerType    `json:"owner_type"`
	Label     string       `json:"label,omitempty"`
	Email     string       `json:"email"`
	Default   bool         `json:"default"`
}

type UpdateEmailAddressRequest struct {
	ID      snowflake.ID `json:"id"`
	Label   *string      `json:"label,omitempty"`
	Email   *string      `json:"email,omitempty"`
	Default *bool        `json:"default,omitempty"`
}

type CreateAddressRequest struct {
	OwnerID    snowflake.ID `json:"owner_id"`
	OwnerType  OwnerType    `json:"owner_type"`
	Label      string       `json:"label,omitempty"`
	Street     string       `json:"street"`
	City       string       `json:"city"`
	Region     string       `json:"region,omitempty"`
	PostalCode string       `json:"postal_code,omitempty"`
	Country    string       `json:"country"`
	Latitude   float64      `json:"latitude,omitempty"`
	Longitude  float64      `json:"longitude,omitempty"`
	Default    bool         `json:"default"`
}

type UpdateAddressRequest struct {
	ID      snowflake.ID `json:"id"`
	Label   *string      `json:"label,omitempty"`
	Street  *string      `json:"street,omitempty"`
	City    *string      `json:"city,omitempty"`
	Default *bool        `json:"default,omitempty"`
}

// ContactNumberService maintains an owner's phone numbers under the
// single-default invariant: at most one default per owner, and exactly one
// whenever the owner has members.
type ContactNumberService interface {
	List(ctx context.Context, req ListMembersRequest) result.Result[[]*ContactNumber]
	Create(ctx context.Context, req CreateContactNumberRequest) result.Result[*ContactNumber]
	Update(ctx context.Context, req UpdateContactNumberRequest) result.Result[*ContactNumber]
	Delete(ctx context.Context, id snowflake.ID) result.Result[*ContactNumber]
}

// EmailAddressService is the email-address instantiation of the same
// invariant.
type EmailAddressService interface {
	List(ctx context.Context, req ListMembersRequest) result.Result[[]*EmailAddress]
	Create(ctx context.Context, req CreateEmailAddressRequest) result.Result[*EmailAddress]
	Update(ctx context.Context, req UpdateEmailAddressRequest) result.Result[*EmailAddress]
	Delete(ctx context.Context, id snowflake.ID) result.Result[*EmailAddress]
}

// AddressService is the postal-address instantiation of the same invariant.
type AddressService interface {
	List(ctx context.Context, req ListMembersRequest) result.Result[[]*Address]
	Create(ctx context.Context, req CreateAddressRequest) result.Result[*Address]
	Update(ctx context.Context, req UpdateAddressRequest) result.Result[*Address]
	Delete(ctx context.Context, id snowflake.ID) result.Result[*Address]
}
