package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/tenancy/store"
	"github.com/xraph/tenancy/tenant"
)

const tenantColumns = `id, state, name, description, remark, picture, database_provider,
	connection_string, concurrency_stamp, search_index, created_at, updated_at`

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	var state int
	err := row.Scan(&t.ID, &state, &t.Name, &t.Description, &t.Remark, &t.Picture, &t.DatabaseProvider,
		&t.ConnectionString, &t.ConcurrencyStamp, &t.SearchIndex, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.State = tenant.State(state)
	return &t, nil
}

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenancy_tenants (`+tenantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, int(t.State), t.Name, t.Description, t.Remark, t.Picture, t.DatabaseProvider,
		t.ConnectionString, t.ConcurrencyStamp, t.SearchIndex, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("tenant %s: %w", t.ID, store.ErrDuplicate)
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, tenantID string) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenancy_tenants WHERE id = $1`, tenantID))
	if isNoRows(err) {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant, expectedStamp string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenancy_tenants SET state = $2, name = $3, description = $4, remark = $5, picture = $6,
		   database_provider = $7, connection_string = $8, concurrency_stamp = $9, search_index = $10,
		   updated_at = $11
		 WHERE id = $1 AND concurrency_stamp = $12`,
		t.ID, int(t.State), t.Name, t.Description, t.Remark, t.Picture,
		t.DatabaseProvider, t.ConnectionString, t.ConcurrencyStamp, t.SearchIndex,
		t.UpdatedAt, expectedStamp)
	if err != nil {
		return fmt.Errorf("update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return s.missOrConflict(ctx, "tenancy_tenants", "id", t.ID, "tenant")
	}
	return nil
}

func (s *Store) ListTenants(ctx context.Context, filter *tenant.ListFilter) ([]*tenant.Tenant, error) {
	w, order := tenantWhere(filter)
	q := `SELECT ` + tenantColumns + ` FROM tenancy_tenants` + w.String() + order
	if filter != nil {
		q += w.page(filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, q, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	out := make([]*tenant.Tenant, 0)
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CountTenants(ctx context.Context, filter *tenant.ListFilter) (int64, error) {
	w, _ := tenantWhere(filter)
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenancy_tenants`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tenants: %w", err)
	}
	return n, nil
}

func tenantWhere(filter *tenant.ListFilter) (*where, string) {
	w := &where{}
	column := tenant.SortKeys.Default().Column
	if filter == nil {
		return w, " ORDER BY " + column + ", id"
	}
	if len(filter.States) > 0 {
		states := make([]int, len(filter.States))
		for i, st := range filter.States {
			states[i] = int(st)
		}
		w.add("state = ANY(?)", states)
	}
	w.search("search_index", filter.Search)
	if tenant.SortKeys.HasColumn(filter.SortBy) {
		column = filter.SortBy
	}
	return w, " ORDER BY " + column + ", id"
}

// missOrConflict tells a missing row from a stale stamp after a guarded
// update touched nothing.
func (s *Store) missOrConflict(ctx context.Context, table, keyColumn string, key any, entity string) error {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE `+keyColumn+` = $1)`, key).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s: %w", entity, err)
	}
	if !exists {
		return fmt.Errorf("%s %v: %w", entity, key, store.ErrNotFound)
	}
	return fmt.Errorf("%s %v: %w", entity, key, store.ErrConflict)
}
