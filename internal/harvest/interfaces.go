package harvest

import "context"

// CountryKey identifies one top-level partition.
type CountryKey struct {
	Name string
	ID   string
}

// ChildKey identifies one direct child of a partition. The ID is carried so
// the controller can descend further when a child is itself oversized.
type ChildKey struct {
	Name string
	ID   string
}

// Enumerator discovers partition keys in the source hierarchy.
type Enumerator interface {
	// Countries returns all top-level partitions in source order.
	Countries(ctx context.Context) ([]CountryKey, error)

	// Children returns the direct children of a node by identifier. An
	// empty result is valid: the node simply has no further subdivision.
	Children(ctx context.Context, parentID string) ([]ChildKey, error)
}

// RegionFetcher performs one bounded fetch for a partition key and
// classifies the result. Implementations are pure functions of their input:
// no retries, no state.
type RegionFetcher interface {
	FetchRegion(ctx context.Context, key PartitionKey) Outcome
}
