package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelcore/node/cryptoutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkpoints.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	assert := assert.New(t)
	s := openTestStore(t)

	_, pk, err := cryptoutil.GenerateKeypair()
	require.NoError(t, err)

	snap := Snapshot{
		ChannelID:      [32]byte{1, 2, 3},
		Participants:   []cryptoutil.PublicKey{pk},
		Balances:       map[cryptoutil.PublicKey]int64{pk: 100},
		SequenceNumber: 3,
		Status:         0,
	}
	require.NoError(t, s.SaveSnapshot(snap))

	loaded, found, err := s.LoadSnapshot(snap.ChannelID)
	require.NoError(t, err)
	assert.True(found)
	assert.Equal(snap.SequenceNumber, loaded.SequenceNumber)
	assert.Equal(snap.Balances[pk], loaded.Balances[pk])
}

func TestLoadSnapshotMissing(t *testing.T) {
	assert := assert.New(t)
	s := openTestStore(t)
	_, found, err := s.LoadSnapshot([32]byte{9, 9, 9})
	require.NoError(t, err)
	assert.False(found)
}

func TestSaveSnapshotOverwritesPrior(t *testing.T) {
	assert := assert.New(t)
	s := openTestStore(t)

	channelID := [32]byte{5}
	require.NoError(t, s.SaveSnapshot(Snapshot{ChannelID: channelID, SequenceNumber: 1}))
	require.NoError(t, s.SaveSnapshot(Snapshot{ChannelID: channelID, SequenceNumber: 2}))

	loaded, found, err := s.LoadSnapshot(channelID)
	require.NoError(t, err)
	assert.True(found)
	assert.Equal(uint64(2), loaded.SequenceNumber)
}
