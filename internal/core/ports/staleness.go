package ports

//go:generate mockgen -source=staleness.go -destination=mocks/mock_staleness.go -package=mocks

// StalenessCache answers whether build inputs changed since they were last observed.
// Implementations are safe for concurrent use.
type StalenessCache interface {
	// IsStale reports whether object must be rebuilt from source.
	// It is true when the object is missing and false when the source is missing.
	IsStale(object, source string) bool

	// IsWatchedStale reports whether a path without a build artifact changed since it was
	// last observed. The first check of a path records it and reports false.
	IsWatchedStale(path string) bool

	// Observe stages the current modification time of path to be persisted on Flush.
	Observe(path string)

	// Pin keeps the stored modification time of path unchanged on Flush,
	// overriding any Observe.
	Pin(path string)

	// Flush writes the ledger to disk.
	Flush() error
}

// StalenessCacheLoader opens the persisted staleness ledger.
type StalenessCacheLoader interface {
	// Load reads the ledger file. Relative paths passed to the returned cache,
	// and the paths recorded in the ledger, are resolved against root.
	// A missing ledger yields an empty cache.
	Load(root, ledger string) (StalenessCache, error)
}
