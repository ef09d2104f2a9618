package orchestrator

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/zen/internal/adapters/fs"        //nolint:depguard // Wired in engine wiring
	"go.trai.ch/zen/internal/adapters/ledger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/zen/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/zen/internal/adapters/shell"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/zen/internal/adapters/toolchain" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/zen/internal/core/ports"
)

// NodeID is the unique identifier for the orchestrator Graft node.
const NodeID graft.ID = "engine.orchestrator"

func init() {
	graft.Register(graft.Node[*Orchestrator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			shell.NodeID,
			fs.ResolverNodeID,
			toolchain.NodeID,
			ledger.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Orchestrator, error) {
			executor, err := graft.Dep[ports.Executor](ctx)
			if err != nil {
				return nil, err
			}

			paths, err := graft.Dep[ports.PathResolver](ctx)
			if err != nil {
				return nil, err
			}

			finder, err := graft.Dep[ports.CompilerFinder](ctx)
			if err != nil {
				return nil, err
			}

			cacheLoader, err := graft.Dep[ports.StalenessCacheLoader](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(executor, paths, finder, cacheLoader, log), nil
		},
	})
}
