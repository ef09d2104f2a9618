package toolchain

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/zen/internal/core/ports"
)

// NodeID is the unique identifier for the compiler finder Graft node.
const NodeID graft.ID = "adapter.toolchain"

func init() {
	graft.Register(graft.Node[ports.CompilerFinder]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.CompilerFinder, error) {
			return NewFinder(), nil
		},
	})
}
