package storage

import (
	"testing"

	"github.com/bobmcallan/tradedesk/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageManagerMemory(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = BackendMemory

	mgr, err := NewStorageManager(common.NewSilentLogger(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, mgr.UserStore())
	assert.NoError(t, mgr.Close())
}

func TestNewStorageManagerUnknownBackend(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Backend = "badger"

	_, err := NewStorageManager(common.NewSilentLogger(), cfg)
	assert.ErrorContains(t, err, "unknown storage backend")
}
