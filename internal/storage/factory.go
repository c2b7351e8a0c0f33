// Package storage selects the StorageManager backend from configuration.
package storage

import (
	"fmt"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/bobmcallan/tradedesk/internal/interfaces"
	"github.com/bobmcallan/tradedesk/internal/storage/memory"
	"github.com/bobmcallan/tradedesk/internal/storage/surrealdb"
)

// Backend type constants.
const (
	BackendSurrealDB = "surrealdb"
	BackendMemory    = "memory"
)

// NewStorageManager creates the storage manager for config.Storage.Backend.
// Supported backends: "surrealdb" (default), "memory".
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	backend := config.Storage.Backend
	if backend == "" {
		backend = BackendSurrealDB
	}

	switch backend {
	case BackendSurrealDB:
		return surrealdb.NewManager(logger, config)

	case BackendMemory:
		logger.Warn().Msg("Using in-memory storage; data is lost on restart")
		return memory.NewManager(logger), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: surrealdb, memory)", backend)
	}
}
