package etf

import (
	"fmt"

	"github.com/hxuan190/block-etf/internal/adapters/persistence"
)

// Capture copies the committed state of every component. No call runs while it copies.
func (f *Fund) Capture() *persistence.State {
	var st *persistence.State
	f.Chain.Exclusive(func() {
		pools := append(f.V2.Pools(), f.V3.Pools()...)
		st = &persistence.State{
			Height: f.Chain.Height(),
			Tokens: f.Bank.Snapshot(),
			Ledger: f.Ledger.Snapshot(),
			Routes: f.Registry.Routes(),
			Router: f.Router.Snapshot(),
			Pools:  pools,
		}
	})
	return st
}

// Restore replaces the deployed state with a persisted one. Tokens the current
// basket needs are registered again if the snapshot predates them.
func (f *Fund) Restore(st *persistence.State) error {
	var err error
	f.Chain.Exclusive(func() {
		if err = f.Bank.Restore(st.Tokens); err != nil {
			err = fmt.Errorf("restore tokens: %w", err)
			return
		}
		f.registerTokens()
		if err = f.Ledger.Restore(st.Ledger); err != nil {
			err = fmt.Errorf("restore ledger: %w", err)
			return
		}
		if err = f.Registry.Restore(st.Routes); err != nil {
			err = fmt.Errorf("restore registry: %w", err)
			return
		}
		if err = f.Router.Restore(st.Router); err != nil {
			err = fmt.Errorf("restore router: %w", err)
			return
		}
		f.V2.Restore(st.Pools)
		f.V3.Restore(st.Pools)
		f.Chain.SetHeight(st.Height)
	})
	return err
}
