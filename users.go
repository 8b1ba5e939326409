package tenancy

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/listquery"
	"github.com/xraph/tenancy/user"
)

// CreateUser registers a user. The e-mail address is normalized and must be
// unique; the user name defaults to the address.
func (m *Manager) CreateUser(ctx context.Context, u *user.User) (*user.User, error) {
	email, err := user.NormalizeEmail(u.Email)
	if err != nil {
		return nil, invalid(err)
	}
	userName := strings.TrimSpace(u.UserName)
	if userName == "" {
		userName = email
	}

	now := m.timestamp()
	created := &user.User{
		ID:               id.NewUserID(),
		Email:            email,
		UserName:         userName,
		GivenName:        strings.TrimSpace(u.GivenName),
		Surname:          strings.TrimSpace(u.Surname),
		ProfilePicture:   u.ProfilePicture,
		ConcurrencyStamp: newStamp(),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	created.BuildSearchIndex()

	if err := m.store.CreateUser(ctx, created); err != nil {
		return nil, translate(err, nil, ErrDuplicateUser)
	}
	m.plugins.EmitUserCreated(ctx, created)
	return created, nil
}

// GetUser returns a user by ID.
func (m *Manager) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	u, err := m.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err, ErrUserNotFound, nil)
	}
	return u, nil
}

// GetUserByEmail returns a user by e-mail address.
func (m *Manager) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	normalized, err := user.NormalizeEmail(email)
	if err != nil {
		return nil, invalid(err)
	}
	u, err := m.store.GetUserByEmail(ctx, normalized)
	if err != nil {
		return nil, translate(err, ErrUserNotFound, nil)
	}
	return u, nil
}

// UpdateUser persists the profile fields of u. u.ConcurrencyStamp must be
// the stamp the caller last read. Nothing observable happens unless the
// write succeeds: hooks fire only after the store accepted the change.
func (m *Manager) UpdateUser(ctx context.Context, u *user.User) (*user.User, error) {
	cur, err := m.GetUser(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	updated := *cur
	if u.Email != "" {
		email, err := user.NormalizeEmail(u.Email)
		if err != nil {
			return nil, invalid(err)
		}
		updated.Email = email
	}
	if n := strings.TrimSpace(u.UserName); n != "" {
		updated.UserName = n
	}
	updated.GivenName = strings.TrimSpace(u.GivenName)
	updated.Surname = strings.TrimSpace(u.Surname)
	updated.ProfilePicture = u.ProfilePicture
	updated.ConcurrencyStamp = newStamp()
	updated.UpdatedAt = m.timestamp()
	updated.BuildSearchIndex()

	if err := m.store.UpdateUser(ctx, &updated, u.ConcurrencyStamp); err != nil {
		return nil, translate(err, ErrUserNotFound, ErrDuplicateUser)
	}
	m.plugins.EmitUserUpdated(ctx, &updated)
	return &updated, nil
}

// ListUsers returns one page of users matching q.
func (m *Manager) ListUsers(ctx context.Context, q listquery.Query) (listquery.Result[*user.User], error) {
	return m.listUsers(ctx, q, nil)
}

func (m *Manager) listUsers(ctx context.Context, q listquery.Query, ids []id.UserID) (listquery.Result[*user.User], error) {
	plan := listquery.Resolve(q, user.SortKeys)
	filter := &user.ListFilter{
		IDs:    ids,
		Search: plan.Search,
		SortBy: plan.Column,
	}

	total, err := m.store.CountUsers(ctx, filter)
	if err != nil {
		return listquery.Result[*user.User]{}, fmt.Errorf("count users: %w", err)
	}

	filter.Limit = plan.Limit
	filter.Offset = plan.Offset
	items, err := m.store.ListUsers(ctx, filter)
	if err != nil {
		return listquery.Result[*user.User]{}, fmt.Errorf("list users: %w", err)
	}

	return listquery.NewResult(q, listquery.NewPaginatedList(items, total, q.PageIndex())), nil
}
