package entgroup

// Persistable is an optional capability for entity types that track their
// own persistence state. When implemented, the flag is authoritative: the
// engine dispatches put to insert or update based on IsPersisted rather
// than on the identity value.
type Persistable interface {
	IsPersisted() bool
	SetPersisted(persisted bool)
}

// Initializable is an optional capability for entity types that need a
// one-time setup step before they are first persisted. The engine invokes
// Initialize from put/putAll when IsInitialized reports false.
type Initializable interface {
	IsInitialized() bool
	Initialize()
}

// Comparable is an optional capability that gives an entity type a natural
// ordering. When implemented, Group.List sorts with CompareTo; otherwise
// entities are ordered by identity.
type Comparable interface {
	// CompareTo returns a negative value if the receiver orders before
	// other, zero if equal, and a positive value otherwise.
	CompareTo(other any) int
}

// Record is the generic transport form of an entity: bound column name to
// value. Enums appear as their name string, so a Record round-trips through
// text-based transports such as caches or API payloads.
type Record map[string]any
