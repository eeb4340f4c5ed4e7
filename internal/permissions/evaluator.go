package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Evaluator is the single authoritative decision function for the
// service: both the request guard and the grant manager delegate here.
// It is side-effect free and safe for concurrent use.
type Evaluator struct {
	resources ResourceStore
	grants    GrantStore
}

// NewEvaluator constructs an evaluator over the provided stores.
func NewEvaluator(resources ResourceStore, grants GrantStore) (*Evaluator, error) {
	if resources == nil {
		return nil, errors.New("permissions: resource store is required")
	}
	if grants == nil {
		return nil, errors.New("permissions: grant store is required")
	}
	return &Evaluator{resources: resources, grants: grants}, nil
}

// Evaluate answers whether the principal may perform an operation that
// requires the given level on the resource. A deny is returned as a
// Decision, not an error; a non-nil error means the stores could not be
// consulted and callers must fail closed.
func (e *Evaluator) Evaluate(ctx context.Context, principalID, resourceID string, required Level) (Decision, error) {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		return Decision{}, errors.New("permissions: principal id is required")
	}
	resourceID = strings.TrimSpace(resourceID)
	if resourceID == "" {
		return Decision{}, errors.New("permissions: resource id is required")
	}
	if !required.Grantable() && required != LevelOwner {
		return Decision{}, fmt.Errorf("permissions: %q is not a checkable level", required)
	}

	ownerID, err := e.resources.FindOwner(ctx, resourceID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return deny(ReasonResourceNotFound, LevelNone, required), nil
		}
		return Decision{}, fmt.Errorf("permissions: resolve owner: %w", err)
	}

	// Ownership implies every level, including the owner pseudo-level.
	if ownerID == principalID {
		return allow(ReasonOwner, LevelOwner, required), nil
	}

	// No grant can ever satisfy an owner-level requirement.
	if required == LevelOwner {
		return deny(ReasonNotOwner, LevelNone, required), nil
	}

	held, err := e.grants.FindGrant(ctx, resourceID, principalID)
	if err != nil {
		if errors.Is(err, ErrGrantNotFound) {
			return deny(ReasonNoGrant, LevelNone, required), nil
		}
		return Decision{}, fmt.Errorf("permissions: resolve grant: %w", err)
	}

	if held.Covers(required) {
		return allow(ReasonGrant, held, required), nil
	}
	return deny(ReasonInsufficientLevel, held, required), nil
}
