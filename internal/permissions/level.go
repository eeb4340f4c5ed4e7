package permissions

import "fmt"

// Level is an ordered permission right. Holding a level implies holding
// every lower level: a write grant can read, a delete grant can read and
// write. LevelOwner sits strictly above LevelDelete and is never stored
// as a grant; it is derived from resource ownership alone.
type Level int8

const (
	// LevelNone represents the absence of rights. It is a valid input to
	// grant mutations (meaning "remove the grant") but is never persisted.
	LevelNone Level = iota
	LevelRead
	LevelWrite
	LevelDelete
	// LevelOwner is the pseudo-level required for ownership-gated
	// operations such as managing grants or deleting the resource's
	// grants wholesale. Only the resource owner ever satisfies it.
	LevelOwner
)

const (
	levelNoneName   = "none"
	levelReadName   = "read"
	levelWriteName  = "write"
	levelDeleteName = "delete"
	levelOwnerName  = "owner"
)

// String returns the wire representation of the level.
func (l Level) String() string {
	switch l {
	case LevelNone:
		return levelNoneName
	case LevelRead:
		return levelReadName
	case LevelWrite:
		return levelWriteName
	case LevelDelete:
		return levelDeleteName
	case LevelOwner:
		return levelOwnerName
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

// Covers reports whether the held level satisfies the required one.
func (l Level) Covers(required Level) bool {
	return l >= required
}

// Grantable reports whether the level may be stored as a grant row.
// LevelNone means "delete the row" and LevelOwner is derived, so neither
// is grantable.
func (l Level) Grantable() bool {
	return l >= LevelRead && l <= LevelDelete
}

// ParseLevel converts a wire string into a Level. Accepted values are
// none, read, write, delete and owner.
func ParseLevel(value string) (Level, error) {
	switch value {
	case levelNoneName:
		return LevelNone, nil
	case levelReadName:
		return LevelRead, nil
	case levelWriteName:
		return LevelWrite, nil
	case levelDeleteName:
		return LevelDelete, nil
	case levelOwnerName:
		return LevelOwner, nil
	default:
		return LevelNone, fmt.Errorf("permissions: unknown level %q", value)
	}
}

// ParseGrantLevel converts a wire string into a storable grant level or
// LevelNone. It rejects "owner", which can never be granted.
func ParseGrantLevel(value string) (Level, error) {
	level, err := ParseLevel(value)
	if err != nil {
		return LevelNone, err
	}
	if level == LevelOwner {
		return LevelNone, fmt.Errorf("permissions: %q cannot be granted", value)
	}
	return level, nil
}
