// Package store defines the aggregate persistence interface. Each entity
// package (tenant, role, user, membership) defines its own store interface
// and the composite Store composes them all.
// Backends: Memory, Postgres, SQLite and MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/xraph/tenancy/membership"
	"github.com/xraph/tenancy/role"
	"github.com/xraph/tenancy/tenant"
	"github.com/xraph/tenancy/user"
)

// Errors shared by every backend. Backends wrap them with the key of the
// affected record.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate is returned when a unique key already exists.
	ErrDuplicate = errors.New("store: duplicate key")

	// ErrConflict is returned when an update carries a stale concurrency
	// stamp.
	ErrConflict = errors.New("store: concurrency stamp mismatch")
)

// Store is the aggregate persistence interface.
// A single backend implements all entity stores.
type Store interface {
	tenant.Store
	role.Store
	user.Store
	membership.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
