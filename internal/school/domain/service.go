package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/campuskit/campuskit/pkg/db/pagination"
	"github.com/campuskit/campuskit/pkg/result"
)

var ErrInvalidTenant = errors.New("missing or invalid tenant")

type ListSchoolsRequest struct {
	Name   string `form:"name"`
	Code   string `form:"code"`
	Active *bool  `form:"active"`
	pagination.Pagination
}

type ListSchoolsResponse struct {
	pagination.PageInfo
	Schools []*School `json:"schools"`
}

type CreateSchoolRequest struct {
	Name     string         `json:"name"`
	Code     string         `json:"code"`
	Timezone string         `json:"timezone,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type UpdateSchoolRequest struct {
	ID       snowflake.ID `json:"id"`
	Name     *string      `json:"name,omitempty"`
	Timezone *string      `json:"timezone,omitempty"`
	Active   *bool        `json:"active,omitempty"`
}

type Service interface {
	// List returns one page of the tenant's schools plus total-count
	// metadata for the response's pagination header.
	List(ctx context.Context, req ListSchoolsRequest) result.Result[ListSchoolsResponse]

	// Get resolves a school with the requested include paths eager-loaded
	// (e.g. "Campuses", "Campuses.ContactNumbers"). A missing id is a
	// success with nil payload.
	Get(ctx context.Context, id snowflake.ID, includes ...string) result.Result[*School]

	Create(ctx context.Context, req CreateSchoolRequest) result.Result[*School]

	// BulkImport stages a whole batch atomically: one invalid row rejects
	// the import.
	BulkImport(ctx context.Context, reqs []CreateSchoolRequest) result.Result[[]*School]

	Update(ctx context.Context, req UpdateSchoolRequest) result.Result[*School]

	Delete(ctx context.Context, id snowflake.ID) result.Result[*School]
}
