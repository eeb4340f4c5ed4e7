package permissions

import (
	"context"
	"errors"
)

// Sentinel errors returned by store implementations. Any other error is
// treated as an I/O fault and surfaces as an evaluation failure.
var (
	ErrResourceNotFound = errors.New("permissions: resource not found")
	ErrGrantNotFound    = errors.New("permissions: grant not found")
)

// Grant is a stored association giving a non-owner principal a level on
// a resource. At most one grant exists per (resource, principal) pair.
type Grant struct {
	ResourceID  string `json:"resource_id"`
	PrincipalID string `json:"principal_id"`
	Level       Level  `json:"-"`
}

// ResourceStore resolves resource ownership.
type ResourceStore interface {
	// FindOwner returns the owning principal of the resource, or
	// ErrResourceNotFound.
	FindOwner(ctx context.Context, resourceID string) (string, error)
}

// GrantStore persists grants. UpsertGrant and DeleteGrant must each be a
// single atomic operation: a concurrent FindGrant observes either the
// old or the new row, never a transiently absent one.
type GrantStore interface {
	// FindGrant returns the level granted to the principal on the
	// resource, or ErrGrantNotFound.
	FindGrant(ctx context.Context, resourceID, principalID string) (Level, error)

	// UpsertGrant stores exactly the given level for the pair, replacing
	// any existing row.
	UpsertGrant(ctx context.Context, resourceID, principalID string, level Level) error

	// DeleteGrant removes the grant row for the pair. Absence is not an
	// error.
	DeleteGrant(ctx context.Context, resourceID, principalID string) error

	// DeleteAllGrants removes every grant row for the resource. Invoked
	// when the resource itself is destroyed.
	DeleteAllGrants(ctx context.Context, resourceID string) error

	// ListGrants returns all grants on the resource.
	ListGrants(ctx context.Context, resourceID string) ([]Grant, error)
}
