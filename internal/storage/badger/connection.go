package badger

import (
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/finsaathi/internal/common"
	"github.com/ternarybob/finsaathi/internal/models"
)

// Archived PDFs run to a few hundred KB; anything above this goes to the
// value log so the LSM tree only holds keys and metadata.
const valueThreshold = 1 << 10

// DB is the report archive's badgerhold store
type DB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	path   string
}

// OpenDB opens the archive at config.Path, wiping it first when
// ResetOnStartup is set.
func OpenDB(logger arbor.ILogger, config *common.BadgerConfig) (*DB, error) {
	if config.ResetOnStartup {
		if err := os.RemoveAll(config.Path); err != nil {
			logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to reset report archive")
		} else {
			logger.Debug().Str("path", config.Path).Msg("Report archive reset")
		}
	}

	if err := os.MkdirAll(config.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.ValueThreshold = valueThreshold
	options.Logger = nil

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open report archive at %s: %w", config.Path, err)
	}

	count, err := store.Count(&models.Report{}, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to count archived reports")
	}
	logger.Debug().Str("path", config.Path).Int("reports", int(count)).Msg("Report archive opened")

	return &DB{store: store, logger: logger, path: config.Path}, nil
}

func (d *DB) Store() *badgerhold.Store {
	return d.store
}

// Close flushes and closes the store; safe to call twice
func (d *DB) Close() error {
	if d.store == nil {
		return nil
	}
	err := d.store.Close()
	d.store = nil
	if err != nil {
		return fmt.Errorf("failed to close report archive at %s: %w", d.path, err)
	}
	return nil
}
