package ports

import "go.trai.ch/zen/internal/core/domain"

// PathResolver expands source specifications into file paths.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type PathResolver interface {
	// Expand resolves specs relative to root. Literal paths are returned as written;
	// searches are walked recursively and matched by file name. The result is
	// deduplicated and keeps declaration order, with search matches sorted lexically.
	Expand(root string, specs []domain.SourceSpec) ([]string, error)

	// Check reports every literal path or search root in specs that does not exist under root.
	Check(root string, specs []domain.SourceSpec) error
}
