package ports

import (
	"github.com/spf13/pflag"
	"go.trai.ch/zen/internal/core/domain"
)

// SettingsLoader resolves tool settings from flags, environment, settings files and defaults.
//
//go:generate mockgen -source=settings.go -destination=mocks/mock_settings.go -package=mocks
type SettingsLoader interface {
	// Load resolves settings for the project rooted at dir. Flags that were set
	// explicitly take precedence. flags may be nil.
	Load(dir string, flags *pflag.FlagSet) (domain.Settings, error)
}
