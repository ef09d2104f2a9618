// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/zen/internal/adapters/config"
	_ "go.trai.ch/zen/internal/adapters/fs"
	_ "go.trai.ch/zen/internal/adapters/ledger"
	_ "go.trai.ch/zen/internal/adapters/logger"
	_ "go.trai.ch/zen/internal/adapters/settings"
	_ "go.trai.ch/zen/internal/adapters/shell"
	_ "go.trai.ch/zen/internal/adapters/toolchain"
	_ "go.trai.ch/zen/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/zen/internal/app"
	_ "go.trai.ch/zen/internal/engine/orchestrator"
)
