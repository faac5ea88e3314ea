package channel

import (
	"github.com/channelcore/node/settlement"
	"github.com/channelcore/node/utxo"
)

// CloseTransaction builds the on-chain settlement transaction that pays out
// cs's current balances to each participant's settlement address, spending
// inputs supplied by the caller (the channel's funding outputs). It does not
// submit the transaction anywhere — on-chain submission is out of scope —
// it only constructs and hashes it so the caller can sign and submit it
// through whatever settlement layer the deployment uses. Participants with
// a zero or negative balance receive no output.
func (cs *ChannelState) CloseTransaction(inputs []utxo.Input) (utxo.Transaction, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	tx := utxo.Transaction{
		Version: 1,
		Inputs:  inputs,
	}
	for _, pk := range cs.participants {
		bal := cs.balances[pk]
		if bal <= 0 {
			continue
		}
		out, err := settlement.LockScriptFor(pk, uint64(bal))
		if err != nil {
			return utxo.Transaction{}, err
		}
		tx.Outputs = append(tx.Outputs, out)
	}
	tx.SetHash()
	return tx, nil
}
