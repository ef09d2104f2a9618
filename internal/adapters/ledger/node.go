package ledger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/zen/internal/core/ports"
)

// NodeID is the unique identifier for the staleness ledger Graft node.
const NodeID graft.ID = "adapter.ledger"

func init() {
	graft.Register(graft.Node[ports.StalenessCacheLoader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.StalenessCacheLoader, error) {
			return NewLoader(), nil
		},
	})
}
