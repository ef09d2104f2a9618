package settings

// NewLoaderWithCPU creates a loader whose jobs default is fixed.
func NewLoaderWithCPU(n int) *Loader {
	return &Loader{numCPU: func() int { return n }}
}
