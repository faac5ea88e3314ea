package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/channelcore/node/chanerr"
	"github.com/channelcore/node/cryptoutil"
)

func TestNewRejectsBalanceMismatch(t *testing.T) {
	alice, bob := twoParty(t)
	_, err := New([]cryptoutil.PublicKey{alice.pk, bob.pk}, map[cryptoutil.PublicKey]int64{alice.pk: 10}, nil)
	assert.True(t, chanerr.Is(err, chanerr.KindUnknownParticipant))
}

func TestNewRejectsDuplicateParticipant(t *testing.T) {
	alice, _ := twoParty(t)
	_, err := New([]cryptoutil.PublicKey{alice.pk, alice.pk}, map[cryptoutil.PublicKey]int64{alice.pk: 10}, nil)
	assert.True(t, chanerr.Is(err, chanerr.KindMalformed))
}

func TestChannelIDIgnoresParticipantOrder(t *testing.T) {
	alice, bob := twoParty(t)
	a := ChannelID([]cryptoutil.PublicKey{alice.pk, bob.pk})
	b := ChannelID([]cryptoutil.PublicKey{bob.pk, alice.pk})
	assert.Equal(t, a, b)
}

func TestApplyUpdateAllOrNothing(t *testing.T) {
	assert := assert.New(t)
	alice, bob := twoParty(t)
	cs, err := New([]cryptoutil.PublicKey{alice.pk, bob.pk}, map[cryptoutil.PublicKey]int64{alice.pk: 100, bob.pk: 50}, nil)
	require.NoError(t, err)

	affected := orderedAffected(alice.pk, bob.pk)

	bad := signUpdate(cs.ChannelID(), 99, alice, bob, 10, affected, 1000)
	err = cs.ApplyUpdate(bad)
	assert.True(chanerr.Is(err, chanerr.KindInvalidSequence))

	assert.Equal(int64(100), cs.Balances()[alice.pk])
	assert.Equal(int64(50), cs.Balances()[bob.pk])
	assert.Equal(uint64(0), cs.SequenceNumber())

	good := signUpdate(cs.ChannelID(), 1, alice, bob, 10, affected, 1000)
	require.NoError(t, cs.ApplyUpdate(good))
	assert.Equal(int64(90), cs.Balances()[alice.pk])
	assert.Equal(int64(60), cs.Balances()[bob.pk])
	assert.Equal(uint64(1), cs.SequenceNumber())
	require.NotNil(t, cs.LatestUpdate())
	assert.Equal(uint64(1), cs.LatestUpdate().SequenceNumber)
}

func TestApplyUpdateRejectedWhenNotOpen(t *testing.T) {
	alice, bob := twoParty(t)
	cs, err := New([]cryptoutil.PublicKey{alice.pk, bob.pk}, map[cryptoutil.PublicKey]int64{alice.pk: 100, bob.pk: 50}, nil)
	require.NoError(t, err)
	cs.MarkClosed()

	affected := orderedAffected(alice.pk, bob.pk)
	update := signUpdate(cs.ChannelID(), 1, alice, bob, 10, affected, 1000)

	err = cs.ApplyUpdate(update)
	assert.True(t, chanerr.Is(err, chanerr.KindInvalidSequence))
}
