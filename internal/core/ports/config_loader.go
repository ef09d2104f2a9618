package ports

import "go.trai.ch/zen/internal/core/domain"

// ConfigLoader defines the interface for loading the project build file.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the build file of the project rooted at dir and returns the parsed project.
	Load(dir string) (*domain.Project, error)
}
