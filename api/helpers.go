package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/xraph/forge"

	"github.com/xraph/tenancy"
	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/tenant"
)

// respondError writes err as an HTTP error. Conflicts are written as a 409
// body directly; the rest map onto Forge HTTP errors.
func respondError(ctx forge.Context, err error) error {
	if err == nil {
		return nil
	}
	switch status := statusOf(err); status {
	case http.StatusNotFound:
		return forge.NotFound(err.Error())
	case http.StatusBadRequest:
		return forge.BadRequest(err.Error())
	case http.StatusForbidden:
		return forge.Forbidden(err.Error())
	case http.StatusConflict:
		return ctx.JSON(status, ErrorResponse{Error: err.Error(), Code: codeOf(err)})
	default:
		return err
	}
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case tenancy.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, tenancy.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, tenancy.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, tenancy.ErrConcurrencyConflict),
		errors.Is(err, tenancy.ErrTransitionNotAllowed),
		errors.Is(err, tenancy.ErrDuplicateTenant),
		errors.Is(err, tenancy.ErrDuplicateUser),
		errors.Is(err, tenancy.ErrDuplicateRole),
		errors.Is(err, tenancy.ErrLastOwner):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func codeOf(err error) string {
	switch {
	case errors.Is(err, tenancy.ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, tenancy.ErrTransitionNotAllowed):
		return "transition_not_allowed"
	case errors.Is(err, tenancy.ErrLastOwner):
		return "last_owner"
	default:
		return "duplicate"
	}
}

// tenantParam reads and validates the :tenantId path parameter.
func tenantParam(ctx forge.Context) (string, error) {
	tid := tenant.NormalizeID(ctx.Param("tenantId"))
	if err := tenant.ValidateID(tid); err != nil {
		return "", forge.BadRequest(err.Error())
	}
	return tid, nil
}

// userParam reads and parses the :userId path parameter.
func userParam(ctx forge.Context) (id.UserID, error) {
	uid, err := id.ParseUserID(ctx.Param("userId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid user ID: %v", err))
	}
	return uid, nil
}

// roleParam reads the :roleName path parameter. Tenant role names carry a
// '#' and arrive percent-encoded.
func roleParam(ctx forge.Context) (string, error) {
	name, err := url.PathUnescape(ctx.Param("roleName"))
	if err != nil || name == "" {
		return "", forge.BadRequest("invalid role name")
	}
	return name, nil
}

// query builds a list query from the request parameters.
func (r ListRequest) query() listquery.Query {
	q := listquery.Query{
		CurrentFilter: r.CurrentFilter,
		SearchText:    r.SearchText,
		SortOrder:     r.SortOrder,
	}
	if r.PageIndex > 0 {
		q = q.WithPage(r.PageIndex)
	}
	return q
}

func (r ListTenantsRequest) query() listquery.Query {
	return ListRequest{
		CurrentFilter: r.CurrentFilter,
		SearchText:    r.SearchText,
		SortOrder:     r.SortOrder,
		PageIndex:     r.PageIndex,
	}.query()
}
