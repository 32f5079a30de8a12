package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/interfaces"
	"github.com/ternarybob/finsaathi/internal/storage/badger"
)

// NewStorageManager creates the report archive storage from config
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	if config.Storage.Badger.Path == "" {
		return nil, fmt.Errorf("storage.badger.path is required")
	}
	return badger.NewManager(logger, &config.Storage.Badger)
}
