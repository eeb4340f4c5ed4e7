package permissions

// Reason explains why an evaluation allowed or denied an operation.
type Reason string

const (
	// ReasonOwner marks an allow derived from resource ownership.
	ReasonOwner Reason = "owner"
	// ReasonGrant marks an allow derived from a stored grant.
	ReasonGrant Reason = "grant"

	// ReasonResourceNotFound denies because the resource does not exist.
	ReasonResourceNotFound Reason = "resource_not_found"
	// ReasonNotOwner denies an owner-level requirement for a non-owner.
	ReasonNotOwner Reason = "not_owner"
	// ReasonNoGrant denies because no grant row exists for the principal.
	ReasonNoGrant Reason = "no_grant"
	// ReasonInsufficientLevel denies because the held grant is below the
	// required level.
	ReasonInsufficientLevel Reason = "insufficient_level"
)

// Decision is the structured outcome of a permission evaluation. A deny
// is an expected outcome, not an error; Held and Required carry the
// levels involved for diagnostics.
type Decision struct {
	Allowed  bool
	Reason   Reason
	Held     Level
	Required Level
}

func allow(reason Reason, held, required Level) Decision {
	return Decision{Allowed: true, Reason: reason, Held: held, Required: required}
}

func deny(reason Reason, held, required Level) Decision {
	return Decision{Allowed: false, Reason: reason, Held: held, Required: required}
}
