package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/tenancy/id"
	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/user"
)

const userColumns = `id, email, user_name, given_name, surname, profile_picture,
	concurrency_stamp, search_index, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.UserName, &u.GivenName, &u.Surname, &u.ProfilePicture,
		&u.ConcurrencyStamp, &u.SearchIndex, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenancy_users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID.String(), u.Email, u.UserName, u.GivenName, u.Surname, u.ProfilePicture,
		u.ConcurrencyStamp, u.SearchIndex, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	return s.getUserBy(ctx, "id", userID.String())
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.getUserBy(ctx, "email", email)
}

func (s *Store) getUserBy(ctx context.Context, column, value string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM tenancy_users WHERE `+column+` = $1`, value))
	if isNoRows(err) {
		return nil, fmt.Errorf("user %s: %w", value, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User, expectedStamp string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenancy_users SET email = $2, user_name = $3, given_name = $4, surname = $5,
		   profile_picture = $6, concurrency_stamp = $7, search_index = $8, updated_at = $9
		 WHERE id = $1 AND concurrency_stamp = $10`,
		u.ID.String(), u.Email, u.UserName, u.GivenName, u.Surname,
		u.ProfilePicture, u.ConcurrencyStamp, u.SearchIndex, u.UpdatedAt, expectedStamp)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("user %s: %w", u.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missOrConflict(ctx, "tenancy_users", "id", u.ID.String(), "user")
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, filter *user.ListFilter) ([]*user.User, error) {
	w, order := userWhere(filter)
	q := `SELECT ` + userColumns + ` FROM tenancy_users` + w.String() + order
	if filter != nil {
		q += w.page(filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, q, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context, filter *user.ListFilter) (int64, error) {
	w, _ := userWhere(filter)
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenancy_users`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func userWhere(filter *user.ListFilter) (*where, string) {
	w := &where{}
	column := user.SortKeys.Default().Column
	if filter == nil {
		return w, " ORDER BY " + column + ", email"
	}
	if filter.IDs != nil {
		w.add("id = ANY(?)", userIDStrings(filter.IDs))
	}
	w.search("search_index", filter.Search)
	if user.SortKeys.HasColumn(filter.SortBy) {
		column = filter.SortBy
	}
	return w, " ORDER BY " + column + ", email"
}

func userIDStrings(ids []id.UserID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}
