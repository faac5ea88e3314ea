package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/channelcore/node/cryptoutil"
)

func TestNewSigningPayloadSortsInputs(t *testing.T) {
	assert := assert.New(t)
	_, pkA, _ := cryptoutil.GenerateKeypair()
	_, pkB, _ := cryptoutil.GenerateKeypair()
	cryptoutil.SortKeys([]cryptoutil.PublicKey{pkA, pkB})

	lo, hi := pkA, pkB
	if hi.Less(lo) {
		lo, hi = hi, lo
	}

	changes := map[cryptoutil.PublicKey]int64{hi: 5, lo: -5}
	affected := []cryptoutil.PublicKey{hi, lo}

	payload := NewSigningPayload(1, [32]byte{9}, changes, affected, 1000)

	assert.Equal(lo, payload.BalanceChanges[0].Participant)
	assert.Equal(hi, payload.BalanceChanges[1].Participant)
	assert.Equal(lo, payload.AffectedParticipants[0])
	assert.Equal(hi, payload.AffectedParticipants[1])
}

func TestSigningPayloadBytesAreDeterministic(t *testing.T) {
	assert := assert.New(t)
	_, pk, _ := cryptoutil.GenerateKeypair()
	changes := map[cryptoutil.PublicKey]int64{pk: 10}
	affected := []cryptoutil.PublicKey{pk}

	p1 := NewSigningPayload(1, [32]byte{1}, changes, affected, 42)
	p2 := NewSigningPayload(1, [32]byte{1}, changes, affected, 42)
	assert.Equal(p1.Bytes(), p2.Bytes())
}

func TestSigningPayloadBytesLength(t *testing.T) {
	assert := assert.New(t)
	_, pk, _ := cryptoutil.GenerateKeypair()
	changes := map[cryptoutil.PublicKey]int64{pk: 10}
	affected := []cryptoutil.PublicKey{pk}

	payload := NewSigningPayload(1, [32]byte{1}, changes, affected, 42)
	buf := payload.Bytes()

	want := 8 + 32 + 8 + 1*(32+8) + 8 + 1*32 + 8
	assert.Len(buf, want)
}

func TestSigningPayloadBytesChangeWithContent(t *testing.T) {
	assert := assert.New(t)
	_, pk, _ := cryptoutil.GenerateKeypair()
	changes := map[cryptoutil.PublicKey]int64{pk: 10}
	affected := []cryptoutil.PublicKey{pk}

	a := NewSigningPayload(1, [32]byte{1}, changes, affected, 42)
	b := NewSigningPayload(2, [32]byte{1}, changes, affected, 42)
	assert.NotEqual(a.Bytes(), b.Bytes())
}
