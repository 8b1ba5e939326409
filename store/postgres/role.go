package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/store"
)

const roleColumns = `name, label, tenant_id, description, created_at`

func scanRole(row pgx.Row) (*role.Role, error) {
	var r role.Role
	if err := row.Scan(&r.Name, &r.Label, &r.TenantID, &r.Description, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenancy_roles (`+roleColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		r.Name, r.Label, r.TenantID, r.Description, r.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("role %s: %w", r.Name, store.ErrDuplicate)
		}
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, name string) (*role.Role, error) {
	r, err := scanRole(s.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM tenancy_roles WHERE name = $1`, name))
	if isNoRows(err) {
		return nil, fmt.Errorf("role %s: %w", name, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	return r, nil
}

// DeleteRole removes a role. Grants of the role go with it through the
// foreign key.
func (s *Store) DeleteRole(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tenancy_roles WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("role %s: %w", name, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	w := &where{}
	if filter != nil {
		switch {
		case filter.TenantID != "":
			w.add("tenant_id = ?", filter.TenantID)
		case filter.SystemOnly:
			w.add("tenant_id = ?", "")
		}
		if len(filter.Names) > 0 {
			w.add("name = ANY(?)", filter.Names)
		}
		w.search("LOWER(name || '~' || description)", filter.Search)
	}
	q := `SELECT ` + roleColumns + ` FROM tenancy_roles` + w.String() + ` ORDER BY tenant_id, label`
	if filter != nil {
		q += w.page(filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, q, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	out := make([]*role.Role, 0)
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
