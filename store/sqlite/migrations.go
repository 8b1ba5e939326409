package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the tenancy store (SQLite).
var Migrations = migrate.NewGroup("tenancy")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_tenants",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenancy_tenants (
    id                TEXT PRIMARY KEY,
    state             INTEGER NOT NULL,
    name              TEXT NOT NULL,
    description       TEXT NOT NULL DEFAULT '',
    remark            TEXT NOT NULL DEFAULT '',
    picture           BLOB,
    database_provider TEXT NOT NULL DEFAULT '',
    connection_string TEXT NOT NULL DEFAULT '',
    concurrency_stamp TEXT NOT NULL,
    search_index      TEXT NOT NULL DEFAULT '',
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tenancy_tenants_state ON tenancy_tenants (state);
CREATE INDEX IF NOT EXISTS idx_tenancy_tenants_name ON tenancy_tenants (name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tenancy_tenants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenancy_roles (
    name        TEXT PRIMARY KEY,
    label       TEXT NOT NULL,
    tenant_id   TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_tenancy_roles_tenant ON tenancy_roles (tenant_id, label);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tenancy_roles`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_users",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenancy_users (
    id                TEXT PRIMARY KEY,
    email             TEXT NOT NULL UNIQUE,
    user_name         TEXT NOT NULL,
    given_name        TEXT NOT NULL DEFAULT '',
    surname           TEXT NOT NULL DEFAULT '',
    profile_picture   BLOB,
    concurrency_stamp TEXT NOT NULL,
    search_index      TEXT NOT NULL DEFAULT '',
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS tenancy_users`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_memberships",
			Version: "20240101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS tenancy_user_tenants (
    id                TEXT PRIMARY KEY,
    user_id           TEXT NOT NULL,
    tenant_id         TEXT NOT NULL,
    remark            TEXT NOT NULL DEFAULT '',
    concurrency_stamp TEXT NOT NULL,
    created_at        TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at        TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(user_id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_tenancy_user_tenants_tenant ON tenancy_user_tenants (tenant_id);

CREATE TABLE IF NOT EXISTS tenancy_user_roles (
    user_id    TEXT NOT NULL,
    role_name  TEXT NOT NULL,
    tenant_id  TEXT NOT NULL DEFAULT '',
    label      TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),

    PRIMARY KEY (user_id, role_name)
);

CREATE INDEX IF NOT EXISTS idx_tenancy_user_roles_tenant ON tenancy_user_roles (tenant_id, user_id);
CREATE INDEX IF NOT EXISTS idx_tenancy_user_roles_role ON tenancy_user_roles (role_name);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
DROP TABLE IF EXISTS tenancy_user_roles;
DROP TABLE IF EXISTS tenancy_user_tenants;
`)
				return err
			},
		},
	)
}
