package toolchain

// NewFinderWith creates a Finder with injected PATH lookup and environment.
func NewFinderWith(lookPath func(string) (string, error), getenv func(string) string) *Finder {
	return &Finder{lookPath: lookPath, getenv: getenv}
}
