package ports

import (
	"context"

	"go.trai.ch/zen/internal/core/domain"
)

// CompilerFinder locates the binaries that compile, link and archive targets.
//
//go:generate mockgen -source=toolchain.go -destination=mocks/mock_toolchain.go -package=mocks
type CompilerFinder interface {
	// Find returns the compiler for a language, honouring the project's overrides.
	Find(ctx context.Context, project *domain.Project, lang domain.LanguageConfig) (string, error)

	// Archiver returns the binary used to create static libraries.
	Archiver(ctx context.Context, project *domain.Project) (string, error)
}
